package ports

import "context"

// Display controls the full-screen state of the driver's display surface.
type Display interface {
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
}

// WindowOpener spawns the passenger window attached to a channel topic.
type WindowOpener interface {
	Open(ctx context.Context, topic string) (Window, error)
}

// Window is a spawned passenger window owned by the driver.
type Window interface {
	Close() error
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aretw0/marquee/internal/presentation/tui"
	"github.com/aretw0/marquee/pkg/adapters/process"
	"github.com/aretw0/marquee/pkg/channel"
	"github.com/aretw0/marquee/pkg/domain"
	"github.com/aretw0/marquee/pkg/observability"
	"github.com/aretw0/marquee/pkg/runner"
)

// PresentOptions configures the present and follow commands.
type PresentOptions struct {
	Slide int
	// JSON switches to line-delimited JSON commands and frames.
	JSON bool
	// NoWindow skips opening the audience window.
	NoWindow bool
	In       io.Reader
	Out      io.Writer
}

func (o PresentOptions) streams() (io.Reader, io.Writer) {
	in, out := o.In, o.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

// Present runs the presenter window until the presentation ends.
func Present(ctx context.Context, app *App, opts PresentOptions) error {
	if err := app.RequireDeck(); err != nil {
		return err
	}
	infra, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	cfg := app.Config.Channel
	peer := channel.NewPeer(infra.Transport, channel.WithTopic(cfg.Topic), channel.WithLogger(app.Logger))
	defer peer.Close()

	sessionOpts := []runner.SessionOption{
		runner.WithPeer(peer),
		runner.WithLiveReload(true),
		runner.WithSessionHooks(observability.PresenceHooks(infra.Presence, domain.Presence{
			Topic:      cfg.Topic,
			Title:      app.Engine.Name,
			SlideCount: app.Engine.Deck().SlideCount(),
		}, app.Logger)),
	}
	if infra.Locker != nil {
		sessionOpts = append(sessionOpts, runner.WithLease(infra.Locker, cfg.LeaseTTL))
	}

	window, ok, err := app.Config.Audience.Window()
	if err != nil {
		return err
	}
	if ok && !opts.NoWindow {
		if !infra.Shared {
			app.Logger.Warn("audience window cannot reach the in-process channel; use the redis transport", "topic", cfg.Topic)
		}
		sessionOpts = append(sessionOpts, runner.WithWindowOpener(process.NewOpener(window, process.WithLogger(app.Logger))))
	}

	handler, restore, more := terminalIO(opts, false)
	defer restore()
	session := app.Engine.NewSession(append(sessionOpts, more...)...)

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithSignalHandling(true),
	)
	return handleRunError(r.Run(ctx, session, opts.Slide))
}

// Follow runs an audience window attached to the configured topic.
func Follow(ctx context.Context, app *App, opts PresentOptions) error {
	if err := app.RequireDeck(); err != nil {
		return err
	}
	infra, err := app.Connect(ctx)
	if err != nil {
		return err
	}
	defer infra.Close()

	cfg := app.Config.Channel
	if infra.Shared {
		if _, err := infra.Presence.Lookup(ctx, cfg.Topic); errors.Is(err, domain.ErrPresenceNotFound) {
			app.Logger.Warn("no live presentation on topic yet, waiting for the presenter", "topic", cfg.Topic)
		}
	}

	peer := channel.NewPeer(infra.Transport, channel.WithTopic(cfg.Topic), channel.WithLogger(app.Logger))
	defer peer.Close()

	handler, restore, more := terminalIO(opts, true)
	defer restore()
	session := app.Engine.NewSession(append([]runner.SessionOption{
		runner.AsPassenger(),
		runner.WithPeer(peer),
		runner.WithLiveReload(true),
	}, more...)...)

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(app.Logger),
		runner.WithSignalHandling(true),
	)
	return handleRunError(r.Run(ctx, session, opts.Slide))
}

// terminalIO picks the input handler and renderer for the streams in opts.
func terminalIO(opts PresentOptions, audience bool) (runner.InputHandler, func(), []runner.SessionOption) {
	in, out := opts.streams()
	if opts.JSON {
		h := runner.NewJSONHandler(in, out)
		return h, func() {}, []runner.SessionOption{runner.WithSessionRenderer(h)}
	}

	restore, isTTY := rawTerminal(in)
	consoleOpts := []tui.ConsoleOption{}
	if audience {
		consoleOpts = append(consoleOpts, tui.AsAudience())
	}
	if md, err := tui.NewMarkdownRenderer("", terminalWidth(out, 80)); err == nil {
		consoleOpts = append(consoleOpts, tui.WithMarkdown(md))
	}

	sessionOpts := []runner.SessionOption{
		runner.WithSessionRenderer(tui.NewConsole(out, consoleOpts...)),
		runner.WithClockTick(time.Second),
	}
	if isTTY && !audience {
		sessionOpts = append(sessionOpts, runner.WithDisplay(tui.NewTerminalDisplay(out)))
	}
	return runner.NewKeyHandler(in), restore, sessionOpts
}

func handleRunError(err error) error {
	if errors.Is(err, domain.ErrLockHeld) {
		return fmt.Errorf("another presenter is driving this topic: %w", err)
	}
	return err
}

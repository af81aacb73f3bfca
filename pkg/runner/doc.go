/*
Package runner runs presentation windows.

A Session is one window: the playback state machine, the channel peer that pairs it
with the other window, and the collaborators that paint it (ports.Renderer), make it
full-screen (ports.Display) and open the audience window (ports.WindowOpener).
Sessions serialize every operation, so remote messages, timers and presenter input
never interleave.

A Runner feeds input into a session through a pluggable InputHandler.

# Key Components

  - Session: driver or passenger window, started with Start and ended with Exit.
  - Runner: the input loop, optionally bound to SIGINT/SIGTERM.
  - KeyHandler: raw terminal keys (space, arrows, escape, bound step keys).
  - JSONHandler: JSON-Lines commands for headless drivers; also reports frames.

# Usage

	hub := memory.NewHub()
	driver := runner.NewSession(deck,
		runner.WithPeer(channel.NewPeer(hub)),
		runner.WithSessionRenderer(renderer),
	)

	r := runner.NewRunner(runner.WithSignalHandling(true))
	if err := r.Run(ctx, driver, 0); err != nil {
		log.Fatal(err)
	}
*/
package runner

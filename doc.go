/*
Package marquee is a presentation playback engine for animated slide decks.

A deck is a list of slides; each slide carries elements and an ordered list of
animations. Marquee turns that list into the steps a presenter clicks through,
keeps a presenter window and any number of audience windows on the same
position, and simulates slide timing for editors.

# Concept

Each animation starts on a click, with the previous animation, after the previous
animation, or on a key press. The step compiler groups them into steps with
resolved start offsets. The playback state machine walks those steps and the
presentation channel mirrors every move between peers sharing a topic, whether
they live in the same process (memory transport) or on different machines (Redis).

# Usage

	eng, err := marquee.New(ctx, "./talk.yaml")
	if err != nil {
		log.Fatal(err)
	}

	steps, err := eng.Steps(0)
	if err != nil {
		log.Fatal(err)
	}
	for _, s := range steps {
		log.Println(s.Trigger, s.EndTime())
	}

	session := eng.NewSession()
	if err := session.Start(ctx, 0); err != nil {
		log.Fatal(err)
	}
	session.Advance(ctx)

The cmd/marquee binary wraps the engine with a terminal presenter, an HTTP bridge
for browser audience windows, and an MCP server.
*/
package marquee

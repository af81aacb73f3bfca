/*
Package domain contains the core domain models of the marquee playback engine.

It defines the authored animation model, the compiled step model, the playback state
of a presentation session and the messages exchanged between paired windows. This
package is kept pure and free of external dependencies like I/O or transports,
following Hexagonal Architecture principles.

# Key Entities

  - Animation: an authored entry in a slide's animation list (target, trigger, timing).
  - AnimationStep: one discrete "advance" unit compiled from the animation list.
  - PlaybackState: the (slide index, active step) pair driven while presenting.
  - ChannelMessage: the tagged union mirrored between driver and passenger windows.
  - PreviewSchedule: absolute timings used by the editor to simulate playback.
*/
package domain

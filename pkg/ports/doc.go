/*
Package ports defines the driven ports (interfaces) for the marquee playback engine.

These interfaces decouple the playback core from external implementations, allowing
the engine to work with various deck stores, message transports and renderers.

# Key Interfaces

  - DeckSource: read access to the slides of the deck being presented.
  - Transport: a named broadcast topic shared by the driver and passenger windows.
  - Renderer: the visual collaborator that paints a Frame.
  - Display / WindowOpener: full-screen control and the spawned passenger window.
  - DistributedLocker: claims the driver role for a topic across processes.
*/
package ports

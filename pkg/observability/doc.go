/*
Package observability provides lifecycle hooks for monitoring presentations.

It includes Prometheus metrics, structured logging of playback events and
presence announcements so followers can discover live presentations. Every
helper returns domain.LifecycleHooks that can be merged and passed to a session.
*/
package observability

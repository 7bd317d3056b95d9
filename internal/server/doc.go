// Package server implements the relay core: the TCP listener (plus the
// optional WebSocket bridge), one session handler per connection, the shared
// client registry, and broadcast fan-out.
//
// Concurrency model:
//   - one goroutine per accepted connection; inbound processing is strictly
//     sequential per session
//   - each connection's outbound writes are serialized by a per-connection
//     mutex so direct replies and broadcast deliveries never interleave
//     frames
//   - the registry lock is held only for insert/remove/snapshot, never
//     across network or gateway I/O
//   - shutdown is a level-triggered context cancellation observed by every
//     session and the listener
package server

// Package connection owns the push-connection lifecycle.
//
// Transport (the WebSocket client) dials the relay, reads messages, and
// owns reconnect scheduling with exponential backoff; it reports plain
// open/message/closed events. Manager reacts to those events: it parses
// snapshots, feeds the price ledger, drives the one-second staleness
// tick, and exposes the current connection status. All core mutation
// happens on the Manager's single run goroutine, so a snapshot is fully
// applied before the next tick reads ledger state.
package connection

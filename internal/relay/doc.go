// Package relay bridges the upstream tick feed to dashboard clients.
//
// The relay consumes a server-sent-events stream of price snapshots,
// caches the most recent payload, and fans it out over WebSocket to any
// number of connected watchers. When the upstream feed cannot be reached
// at startup it can fall back to a simulated random-walk feed so that
// downstream consumers still have data to render.
package relay

// Package staleness decides which instruments are stale: no price change
// for longer than their threshold while their market segment is trading.
//
// Evaluation runs on a fixed one-second tick, never per inbound message.
// That keeps the stale/fresh transition decoupled from feed jitter and
// makes "exactly one notification per staleness episode" a set diff
// between consecutive ticks.
package staleness

// Package ledger maintains the per-instrument record of the last known
// price and, critically, the wall-clock time of the last price *change* —
// not the last message arrival. That change timestamp is the anchor for
// staleness: upstream snapshot timestamps can repeat or lag, so the ledger
// measures "how long since we last saw this price move".
package ledger

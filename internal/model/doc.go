// Package model defines the data types shared across tickwatch.
//
// Conventions:
//   - Prices: float64 rupees, compared for exact equality (the feed sends
//     already-rounded values; any difference counts as a change)
//   - Timestamps: time.Time; wire format is ISO 8601
//   - Tickers: opaque instrument identifier strings (e.g. "RELIANCE",
//     "CRUDEOIL25APRFUT")
package model

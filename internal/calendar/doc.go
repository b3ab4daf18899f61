// Package calendar answers whether a market segment is trading at a given
// instant, from static per-exchange trading windows and a holiday table.
//
// All configured segments share one civil timezone (IST); wall-clock
// instants are evaluated in that zone. The package has no side effects.
package calendar

// Package exchange classifies instruments into market segments.
//
// Resolution order:
//  1. Explicit ticker -> exchange table (authoritative, config-injected)
//  2. Substring heuristic for derivative contract names (fallback only;
//     new contract naming patterns will misclassify)
//  3. Configurable default exchange (never an error)
package exchange

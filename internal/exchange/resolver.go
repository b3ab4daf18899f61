package exchange

import "strings"

// Known exchange codes.
const (
	NSE = "NSE" // NSE equity
	BSE = "BSE" // BSE equity
	NFO = "NFO" // NSE futures & options
	MCX = "MCX" // MCX commodities
	CDS = "CDS" // Currency derivatives
	BFO = "BFO" // BSE derivatives
)

// Codes lists every configured exchange code.
func Codes() []string {
	return []string{NSE, BSE, NFO, MCX, CDS, BFO}
}

// Resolver maps instrument tickers to exchange codes.
type Resolver struct {
	table      map[string]string // Authoritative ticker -> exchange lookups
	defaultExc string
}

// DefaultTable returns the built-in authoritative lookups for the
// instruments the feed is known to carry.
func DefaultTable() map[string]string {
	return map[string]string{
		"CRUDEOIL25APRFUT": MCX,
		"SENSEX25401FUT":   BSE,
		"NIFTY25APRFUT":    NSE,
		"INFY":             NSE,
		"USDINR25APRFUT":   CDS,
		"RELIANCE":         NSE,
	}
}

// NewResolver builds a Resolver. A nil table uses the built-in one; an
// empty defaultExchange falls back to NSE.
func NewResolver(table map[string]string, defaultExchange string) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	if defaultExchange == "" {
		defaultExchange = NSE
	}
	t := make(map[string]string, len(table))
	for ticker, exc := range table {
		t[strings.ToUpper(ticker)] = strings.ToUpper(exc)
	}
	return &Resolver{table: t, defaultExc: defaultExchange}
}

// Resolve returns the exchange code for a ticker. Unresolved tickers map
// to the default exchange, never an error.
func (r *Resolver) Resolve(ticker string) string {
	upper := strings.ToUpper(ticker)
	if exc, ok := r.table[upper]; ok {
		return exc
	}
	if exc, ok := resolveHeuristic(upper); ok {
		return exc
	}
	return r.defaultExc
}

// Default returns the fallback exchange code.
func (r *Resolver) Default() string {
	return r.defaultExc
}

// commodity and currency product names used by the contract-name heuristic.
var (
	commodityProducts = []string{"CRUDEOIL", "GOLD", "SILVER", "NATURALGAS", "COPPER", "ZINC", "NICKEL"}
	currencyProducts  = []string{"USDINR", "EURINR", "GBPINR", "JPYINR"}
)

// resolveHeuristic classifies derivative contracts by substrings of the
// contract name. Fragile by nature; the explicit table always wins.
func resolveHeuristic(ticker string) (string, bool) {
	if !strings.Contains(ticker, "FUT") {
		return "", false
	}
	for _, product := range commodityProducts {
		if strings.Contains(ticker, product) {
			return MCX, true
		}
	}
	for _, product := range currencyProducts {
		if strings.Contains(ticker, product) {
			return CDS, true
		}
	}
	if strings.Contains(ticker, "SENSEX") || strings.Contains(ticker, "BANKEX") {
		return BSE, true
	}
	if strings.Contains(ticker, "NIFTY") {
		return NSE, true
	}
	// Some unknown futures contract.
	return NFO, true
}

package models

import (
	"math"
	"sort"
	"strings"
	"time"
)

// QuoteSymbolMarker is the suffix market-data feeds append to FX pair symbols
const QuoteSymbolMarker = "=X"

// Quote represents one closing observation for a currency pair
type Quote struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Close     float64   `json:"close" db:"close"`
}

// PairSymbol builds the feed symbol for a pair, e.g. EURUSD=X
func PairSymbol(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote) + QuoteSymbolMarker
}

// ParsePairSymbol splits a feed symbol into base and quote codes.
// Accepts "EURUSD=X", "EURUSD" and "EUR/USD".
func ParsePairSymbol(symbol string) (base, quote string, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, QuoteSymbolMarker)
	if parts := strings.Split(s, "/"); len(parts) == 2 {
		s = parts[0] + parts[1]
	}
	if len(s) != 6 {
		return "", "", false
	}
	return s[:3], s[3:], true
}

// CurrencyPair identifies a directed base/quote pair
type CurrencyPair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// String renders the pair as BASE/QUOTE
func (p CurrencyPair) String() string {
	return p.Base + "/" + p.Quote
}

// Inverse swaps base and quote
func (p CurrencyPair) Inverse() CurrencyPair {
	return CurrencyPair{Base: p.Quote, Quote: p.Base}
}

// QuoteTable holds time-ordered closing series keyed by currency pair.
// It is immutable after construction and safe for concurrent readers.
type QuoteTable struct {
	series map[CurrencyPair][]Quote
}

// NewQuoteTable groups quotes by pair and sorts each series by timestamp.
// Quotes with an unparseable symbol, a zero timestamp, or a non-positive or
// non-finite close are dropped.
func NewQuoteTable(quotes []Quote) *QuoteTable {
	t := &QuoteTable{series: make(map[CurrencyPair][]Quote)}
	for _, q := range quotes {
		base, quote, ok := ParsePairSymbol(q.Symbol)
		if !ok || !validClose(q.Close) || q.Timestamp.IsZero() {
			continue
		}
		pair := CurrencyPair{Base: base, Quote: quote}
		t.series[pair] = append(t.series[pair], q)
	}
	for pair := range t.series {
		s := t.series[pair]
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Timestamp.Before(s[j].Timestamp)
		})
	}
	return t
}

func validClose(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Latest returns the most recent close for base→quote
func (t *QuoteTable) Latest(base, quote string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	s := t.series[CurrencyPair{Base: base, Quote: quote}]
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Close, true
}

// Closes returns the time-ordered closes for base→quote, or nil
func (t *QuoteTable) Closes(base, quote string) []float64 {
	if t == nil {
		return nil
	}
	s := t.series[CurrencyPair{Base: base, Quote: quote}]
	if len(s) == 0 {
		return nil
	}
	closes := make([]float64, len(s))
	for i, q := range s {
		closes[i] = q.Close
	}
	return closes
}

// Pairs returns every pair with at least one observation
func (t *QuoteTable) Pairs() []CurrencyPair {
	if t == nil {
		return nil
	}
	pairs := make([]CurrencyPair, 0, len(t.series))
	for p := range t.series {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].String() < pairs[j].String()
	})
	return pairs
}

// Len returns the number of pairs in the table
func (t *QuoteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.series)
}

// RateMethod records how a rate was obtained
type RateMethod string

const (
	RateMethodIdentity    RateMethod = "identity"
	RateMethodCache       RateMethod = "cache"
	RateMethodDirect      RateMethod = "direct"
	RateMethodInverse     RateMethod = "inverse"
	RateMethodBridged     RateMethod = "bridged"
	RateMethodUnavailable RateMethod = "unavailable"
)

// RateResult is the outcome of resolving a currency pair.
// A zero Rate means the pair could not be resolved.
type RateResult struct {
	Base   string     `json:"base"`
	Quote  string     `json:"quote"`
	Rate   float64    `json:"rate"`
	Direct bool       `json:"direct"`
	Method RateMethod `json:"method"`
}

// Available reports whether a usable rate was resolved
func (r RateResult) Available() bool {
	return r.Rate > 0
}

// RateCacheEntry is the memo stored for a resolved pair
type RateCacheEntry struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}

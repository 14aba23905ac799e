package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/utils"
)

// DefaultReferenceCurrency is the bridging currency used when none is configured
const DefaultReferenceCurrency = "USD"

// RateCache memoizes resolved rates per currency pair. Implementations must
// be safe for concurrent use; concurrent writes to one pair resolve as last
// writer wins.
type RateCache interface {
	Get(ctx context.Context, base, quote string) (float64, bool)
	Set(ctx context.Context, base, quote string, rate float64)
	Clear(ctx context.Context) error
}

// QuoteTableSource supplies the latest quote snapshot when a caller does not pass one
type QuoteTableSource interface {
	QuoteTable(ctx context.Context) (*models.QuoteTable, error)
}

// CurrencyRateResolver resolves exchange rates via direct quotes, inverted
// quotes, or a two-leg bridge through a reference currency.
type CurrencyRateResolver struct {
	reference string
	cache     RateCache
	source    QuoteTableSource
	logger    *logrus.Logger
}

// NewCurrencyRateResolver creates a resolver. A nil cache disables memoization;
// a nil source means calls without a table see no quotes.
func NewCurrencyRateResolver(reference string, cache RateCache, source QuoteTableSource, logger *logrus.Logger) (*CurrencyRateResolver, error) {
	if reference == "" {
		reference = DefaultReferenceCurrency
	}
	ref, err := utils.NormalizeCurrencyCode(reference)
	if err != nil {
		return nil, fmt.Errorf("invalid reference currency: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CurrencyRateResolver{
		reference: ref,
		cache:     cache,
		source:    source,
		logger:    logger,
	}, nil
}

// Reference returns the bridging currency
func (r *CurrencyRateResolver) Reference() string {
	return r.reference
}

// SetSource replaces the snapshot source used when no table is passed
func (r *CurrencyRateResolver) SetSource(source QuoteTableSource) {
	r.source = source
}

// Resolve returns the base->quote rate, consulting the cache before the table.
// A nil table means the latest snapshot from the configured source.
func (r *CurrencyRateResolver) Resolve(ctx context.Context, base, quote string, table *models.QuoteTable) (models.RateResult, error) {
	return r.resolve(ctx, base, quote, table, true)
}

// ResolveFresh is Resolve without cache reads. Resolved rates are still written back.
func (r *CurrencyRateResolver) ResolveFresh(ctx context.Context, base, quote string, table *models.QuoteTable) (models.RateResult, error) {
	return r.resolve(ctx, base, quote, table, false)
}

// ClearCache drops every memoized rate
func (r *CurrencyRateResolver) ClearCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Clear(ctx)
}

func (r *CurrencyRateResolver) resolve(ctx context.Context, base, quote string, table *models.QuoteTable, useCache bool) (models.RateResult, error) {
	var err error
	if base, err = utils.NormalizeCurrencyCode(base); err != nil {
		return models.RateResult{}, err
	}
	if quote, err = utils.NormalizeCurrencyCode(quote); err != nil {
		return models.RateResult{}, err
	}

	result := models.RateResult{Base: base, Quote: quote}

	if base == quote {
		result.Rate = 1.0
		result.Direct = true
		result.Method = models.RateMethodIdentity
		return result, nil
	}

	if useCache && r.cache != nil {
		if rate, ok := r.cache.Get(ctx, base, quote); ok && rate > 0 {
			result.Rate = rate
			result.Method = models.RateMethodCache
			return result, nil
		}
	}

	if table == nil {
		if table, err = r.snapshot(ctx); err != nil {
			return models.RateResult{}, err
		}
	}

	if rate, ok := table.Latest(base, quote); ok {
		result.Rate = rate
		result.Direct = true
		result.Method = models.RateMethodDirect
		r.remember(ctx, base, quote, rate)
		return result, nil
	}

	if rate, ok := table.Latest(quote, base); ok {
		result.Rate = invert(rate)
		result.Direct = true
		result.Method = models.RateMethodInverse
		r.remember(ctx, base, quote, result.Rate)
		return result, nil
	}

	toRef, okBase := legRate(table, base, r.reference)
	fromRef, okQuote := legRate(table, r.reference, quote)
	if okBase && okQuote {
		result.Rate = decimal.NewFromFloat(toRef).Mul(decimal.NewFromFloat(fromRef)).InexactFloat64()
		result.Method = models.RateMethodBridged
		r.remember(ctx, base, quote, result.Rate)
		return result, nil
	}

	r.logger.WithFields(logrus.Fields{
		"base":      base,
		"quote":     quote,
		"reference": r.reference,
	}).Debug("Exchange rate unavailable")

	result.Method = models.RateMethodUnavailable
	return result, nil
}

func (r *CurrencyRateResolver) snapshot(ctx context.Context) (*models.QuoteTable, error) {
	if r.source == nil {
		return models.NewQuoteTable(nil), nil
	}
	table, err := r.source.QuoteTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote snapshot: %w", err)
	}
	return table, nil
}

func (r *CurrencyRateResolver) remember(ctx context.Context, base, quote string, rate float64) {
	if r.cache == nil || rate <= 0 {
		return
	}
	r.cache.Set(ctx, base, quote, rate)
}

// legRate resolves one bridge leg as direct, then inverse of the opposite quote.
func legRate(table *models.QuoteTable, from, to string) (float64, bool) {
	if from == to {
		return 1.0, true
	}
	if rate, ok := table.Latest(from, to); ok {
		return rate, true
	}
	if rate, ok := table.Latest(to, from); ok {
		return invert(rate), true
	}
	return 0, false
}

func invert(rate float64) float64 {
	if rate == 0 {
		return 0
	}
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(rate)).InexactFloat64()
}

// MemoryRateCache is an in-process RateCache. Pairs are stored independently
// in a sync.Map so unrelated pairs never contend on a shared lock.
type MemoryRateCache struct {
	entries sync.Map
	now     func() time.Time
}

// NewMemoryRateCache creates an empty in-memory cache
func NewMemoryRateCache() *MemoryRateCache {
	return &MemoryRateCache{now: time.Now}
}

// Get returns the cached rate for base->quote
func (c *MemoryRateCache) Get(_ context.Context, base, quote string) (float64, bool) {
	v, ok := c.entries.Load(models.CurrencyPair{Base: base, Quote: quote})
	if !ok {
		return 0, false
	}
	return v.(models.RateCacheEntry).Rate, true
}

// Set overwrites the cached rate for base->quote
func (c *MemoryRateCache) Set(_ context.Context, base, quote string, rate float64) {
	c.entries.Store(models.CurrencyPair{Base: base, Quote: quote}, models.RateCacheEntry{
		Base:      base,
		Quote:     quote,
		Rate:      rate,
		UpdatedAt: c.now(),
	})
}

// Entry returns the full cache entry for base->quote
func (c *MemoryRateCache) Entry(base, quote string) (models.RateCacheEntry, bool) {
	v, ok := c.entries.Load(models.CurrencyPair{Base: base, Quote: quote})
	if !ok {
		return models.RateCacheEntry{}, false
	}
	return v.(models.RateCacheEntry), true
}

// Clear removes every entry
func (c *MemoryRateCache) Clear(context.Context) error {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		return true
	})
	return nil
}

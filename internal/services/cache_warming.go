package services

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/utils"
)

// WarmResult summarizes one warming pass
type WarmResult struct {
	Pairs       int           `json:"pairs"`
	Warmed      int           `json:"warmed"`
	Unavailable int           `json:"unavailable"`
	Duration    time.Duration `json:"duration"`
}

// RateCacheWarmer re-resolves rates from a set of home currencies to every
// destination currency after a snapshot load, so the rate cache follows the
// latest quotes instead of serving values memoized from an older snapshot.
type RateCacheWarmer struct {
	rates  *CurrencyRateResolver
	homes  []string
	logger *logrus.Logger
}

// NewRateCacheWarmer creates a warmer for the given home currencies. Invalid
// and duplicate codes are dropped.
func NewRateCacheWarmer(rates *CurrencyRateResolver, homes []string, logger *logrus.Logger) *RateCacheWarmer {
	if logger == nil {
		logger = logrus.New()
	}
	seen := make(map[string]struct{})
	var valid []string
	for _, code := range homes {
		normalized, err := utils.NormalizeCurrencyCode(code)
		if err != nil {
			logger.WithField("currency", code).Warn("Skipping invalid warm currency")
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		valid = append(valid, normalized)
	}
	return &RateCacheWarmer{rates: rates, homes: valid, logger: logger}
}

// Homes returns the normalized home currencies
func (w *RateCacheWarmer) Homes() []string {
	return w.homes
}

// Warm resolves every home->destination pair against table and writes the
// results to the rate cache. Only cancellation stops a pass early.
func (w *RateCacheWarmer) Warm(ctx context.Context, airports models.AirportDirectory, table *models.QuoteTable) (WarmResult, error) {
	start := time.Now()
	var result WarmResult

	if w.rates == nil || len(w.homes) == 0 {
		return result, nil
	}

	locals := destinationCurrencies(airports)
	for _, home := range w.homes {
		for _, local := range locals {
			if home == local {
				continue
			}
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Pairs++

			rate, err := w.rates.ResolveFresh(ctx, home, local, table)
			if err != nil {
				w.logger.WithError(err).WithFields(logrus.Fields{
					"base":  home,
					"quote": local,
				}).Warn("Failed to warm rate")
				continue
			}
			if rate.Available() {
				result.Warmed++
			} else {
				result.Unavailable++
			}
		}
	}

	result.Duration = time.Since(start)
	w.logger.WithFields(logrus.Fields{
		"pairs":       result.Pairs,
		"warmed":      result.Warmed,
		"unavailable": result.Unavailable,
		"duration":    result.Duration.String(),
	}).Info("Rate cache warming completed")

	return result, nil
}

// destinationCurrencies returns the sorted distinct valid currencies of the directory
func destinationCurrencies(airports models.AirportDirectory) []string {
	set := make(map[string]struct{})
	for _, a := range airports {
		if code, err := utils.NormalizeCurrencyCode(a.Currency); err == nil {
			set[code] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

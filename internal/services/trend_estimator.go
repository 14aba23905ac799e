package services

import (
	"context"
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/utils"
)

// DefaultTrendWindow is the number of observations between the compared points
const DefaultTrendWindow = 7

// TrendMethod records which series a trend was computed from
type TrendMethod string

const (
	TrendMethodIdentity     TrendMethod = "identity"
	TrendMethodDirect       TrendMethod = "direct"
	TrendMethodInverse      TrendMethod = "inverse"
	TrendMethodBridged      TrendMethod = "bridged"
	TrendMethodInsufficient TrendMethod = "insufficient"
)

// TrendResult is the percentage change of a pair over a trailing window
type TrendResult struct {
	Base    string      `json:"base"`
	Quote   string      `json:"quote"`
	Window  int         `json:"window"`
	Percent float64     `json:"percent"`
	Points  int         `json:"points"`
	Method  TrendMethod `json:"method"`
}

// TrendEstimator computes trailing-window percentage changes of FX series
type TrendEstimator struct {
	reference string
	source    QuoteTableSource
	logger    *logrus.Logger
}

// NewTrendEstimator creates an estimator that bridges through reference
func NewTrendEstimator(reference string, source QuoteTableSource, logger *logrus.Logger) (*TrendEstimator, error) {
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
	return &TrendEstimator{reference: ref, source: source, logger: logger}, nil
}

// SetSource replaces the snapshot source used when no table is passed
func (e *TrendEstimator) SetSource(source QuoteTableSource) {
	e.source = source
}

// Trend returns only the percentage for base->quote
func (e *TrendEstimator) Trend(ctx context.Context, base, quote string, window int, table *models.QuoteTable) (float64, error) {
	res, err := e.Estimate(ctx, base, quote, window, table)
	if err != nil {
		return 0, err
	}
	return res.Percent, nil
}

// Estimate computes the percent change between the latest observation and
// the one window points earlier. Series shorter than window+1 points give 0.
//
// Without a direct or inverse series the result is bridged as
// trend(base->REF) - trend(quote->REF). That difference only approximates the
// compounded change of the cross rate and is kept for compatibility with
// existing rankings.
func (e *TrendEstimator) Estimate(ctx context.Context, base, quote string, window int, table *models.QuoteTable) (TrendResult, error) {
	var err error
	if base, err = utils.NormalizeCurrencyCode(base); err != nil {
		return TrendResult{}, err
	}
	if quote, err = utils.NormalizeCurrencyCode(quote); err != nil {
		return TrendResult{}, err
	}
	if window <= 0 {
		window = DefaultTrendWindow
	}

	res := TrendResult{Base: base, Quote: quote, Window: window}
	if base == quote {
		res.Method = TrendMethodIdentity
		return res, nil
	}

	if table == nil {
		if table, err = e.snapshot(ctx); err != nil {
			return TrendResult{}, err
		}
	}

	if closes, method := pairSeries(table, base, quote); closes != nil {
		res.Points = len(closes)
		res.Method = method
		if len(closes) < window+1 {
			res.Method = TrendMethodInsufficient
			return res, nil
		}
		res.Percent = percentChange(closes, window)
		return res, nil
	}

	baseLeg, okBase := e.legTrend(table, base, window)
	quoteLeg, okQuote := e.legTrend(table, quote, window)
	if !okBase || !okQuote {
		res.Method = TrendMethodInsufficient
		return res, nil
	}
	res.Percent = baseLeg - quoteLeg
	res.Method = TrendMethodBridged

	e.logger.WithFields(logrus.Fields{
		"base":      base,
		"quote":     quote,
		"reference": e.reference,
		"percent":   res.Percent,
	}).Debug("Bridged trend estimate")

	return res, nil
}

// MovingAverage returns the simple moving average of the latest period
// closes for base->quote, using the inverse series if needed. It returns 0
// when fewer than period points exist.
func (e *TrendEstimator) MovingAverage(ctx context.Context, base, quote string, period int, table *models.QuoteTable) (float64, error) {
	var err error
	if base, err = utils.NormalizeCurrencyCode(base); err != nil {
		return 0, err
	}
	if quote, err = utils.NormalizeCurrencyCode(quote); err != nil {
		return 0, err
	}
	if base == quote {
		return 1.0, nil
	}
	if period <= 0 {
		period = DefaultTrendWindow
	}
	if table == nil {
		if table, err = e.snapshot(ctx); err != nil {
			return 0, err
		}
	}

	closes, _ := pairSeries(table, base, quote)
	if len(closes) < period {
		return 0, nil
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(closes)))
	if len(values) == 0 {
		return 0, nil
	}
	return values[len(values)-1], nil
}

// legTrend computes the trend of currency->REF for one bridge leg.
func (e *TrendEstimator) legTrend(table *models.QuoteTable, currency string, window int) (float64, bool) {
	if currency == e.reference {
		return 0, true
	}
	closes, _ := pairSeries(table, currency, e.reference)
	if closes == nil {
		return 0, false
	}
	if len(closes) < window+1 {
		return 0, true
	}
	return percentChange(closes, window), true
}

func (e *TrendEstimator) snapshot(ctx context.Context) (*models.QuoteTable, error) {
	if e.source == nil {
		return models.NewQuoteTable(nil), nil
	}
	table, err := e.source.QuoteTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote snapshot: %w", err)
	}
	return table, nil
}

// pairSeries returns the direct series, or the inverse series inverted point-wise.
func pairSeries(table *models.QuoteTable, base, quote string) ([]float64, TrendMethod) {
	if closes := table.Closes(base, quote); closes != nil {
		return closes, TrendMethodDirect
	}
	if closes := table.Closes(quote, base); closes != nil {
		inverted := make([]float64, len(closes))
		for i, v := range closes {
			inverted[i] = invert(v)
		}
		return inverted, TrendMethodInverse
	}
	return nil, ""
}

func percentChange(closes []float64, window int) float64 {
	n := len(closes)
	if window <= 0 || n < window+1 {
		return 0
	}
	latest := closes[n-1]
	earlier := closes[n-1-window]
	if earlier == 0 {
		return 0
	}
	return (latest - earlier) / earlier * 100
}

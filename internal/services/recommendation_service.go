package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/wayfare-go/internal/models"
	"github.com/irfndi/wayfare-go/internal/telemetry"
	"github.com/irfndi/wayfare-go/internal/utils"
)

// ConnectionSource loads the full connection table
type ConnectionSource interface {
	LoadConnections(ctx context.Context) ([]models.Connection, error)
}

// AirportSource loads the airport directory
type AirportSource interface {
	LoadAirports(ctx context.Context) ([]models.Airport, error)
}

// QuoteSource loads FX quotes observed at or after since
type QuoteSource interface {
	LoadQuotes(ctx context.Context, since time.Time) ([]models.Quote, error)
}

// FareSource looks up the latest known fare for a route
type FareSource interface {
	LatestFare(ctx context.Context, origin, destination string) (float64, bool, error)
}

// RecommendationServiceConfig holds configuration for the recommendation service
type RecommendationServiceConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	QuoteLookback   time.Duration `mapstructure:"quote_lookback"`
	MaxCandidates   int           `mapstructure:"max_candidates"`
	Concurrency     int           `mapstructure:"concurrency"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	TrendWindow     int           `mapstructure:"trend_window"`
	AveragePeriod   int           `mapstructure:"average_period"`
	Enabled         bool          `mapstructure:"enabled"`

	// Home currencies whose rates are re-resolved after every refresh
	WarmCurrencies []string `mapstructure:"warm_currencies"`

	Breaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// DefaultRecommendationServiceConfig returns the defaults used for unset fields
func DefaultRecommendationServiceConfig() RecommendationServiceConfig {
	return RecommendationServiceConfig{
		RefreshInterval: 15 * time.Minute,
		QuoteLookback:   90 * 24 * time.Hour,
		MaxCandidates:   200,
		Concurrency:     8,
		DefaultLimit:    10,
		TrendWindow:     DefaultTrendWindow,
		AveragePeriod:   DefaultTrendWindow,
		Enabled:         true,
		Breaker:         DefaultCircuitBreakerConfig(),
	}
}

// Breaker names, one per upstream source
const (
	breakerRoutes = "route_source"
	breakerQuotes = "quote_source"
	breakerFares  = "fare_source"
)

// Snapshot is the immutable set of tables a recommendation runs against
type Snapshot struct {
	Index    *RouteIndex
	Quotes   *models.QuoteTable
	Airports models.AirportDirectory
	Resolver *RouteResolver
	LoadedAt time.Time
}

// SnapshotStatus summarizes the loaded snapshot
type SnapshotStatus struct {
	Loaded      bool      `json:"loaded"`
	LoadedAt    time.Time `json:"loaded_at"`
	Connections int       `json:"connections"`
	RoutePairs  int       `json:"route_pairs"`
	Airports    int       `json:"airports"`
	QuotePairs  int       `json:"quote_pairs"`

	Sources map[string]CircuitBreakerStats `json:"sources,omitempty"`
}

// RecommendationService ranks destinations for an origin by combining the
// route, rate, trend and fare engines. Tables are reloaded on a fixed
// interval and swapped in atomically; requests never block on a refresh.
type RecommendationService struct {
	connections ConnectionSource
	airports    AirportSource
	quotes      QuoteSource
	fares       FareSource

	breakers *CircuitBreakerManager

	rates  *CurrencyRateResolver
	warmer *RateCacheWarmer
	trends *TrendEstimator
	scorer *DestinationScorer

	config    RecommendationServiceConfig
	logger    *logrus.Logger
	refreshes RefreshLogger
	tracer    *telemetry.BusinessTracer
	snapshot  atomic.Pointer[Snapshot]
	now       func() time.Time

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	isRunning   bool
	mu          sync.RWMutex
	lastRefresh time.Time
	refreshErr  error
}

// RefreshLogger receives a summary line for every successful snapshot refresh
type RefreshLogger interface {
	LogRefresh(airports, connections, quotes int, duration int64)
}

// NewRecommendationService wires the engines to their table sources. airports
// and fares may be nil. A nil rates, trends or scorer is replaced by a default
// engine bridging through DefaultReferenceCurrency with an in-memory cache.
// The service becomes the snapshot source for rates and trends.
func NewRecommendationService(
	connections ConnectionSource,
	airports AirportSource,
	quotes QuoteSource,
	fares FareSource,
	rates *CurrencyRateResolver,
	trends *TrendEstimator,
	scorer *DestinationScorer,
	cfg RecommendationServiceConfig,
	logger *logrus.Logger,
) *RecommendationService {
	defaults := DefaultRecommendationServiceConfig()
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}
	if cfg.QuoteLookback <= 0 {
		cfg.QuoteLookback = defaults.QuoteLookback
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaults.MaxCandidates
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = defaults.TrendWindow
	}
	if cfg.AveragePeriod <= 0 {
		cfg.AveragePeriod = defaults.AveragePeriod
	}
	if logger == nil {
		logger = logrus.New()
	}
	if scorer == nil {
		scorer = NewDestinationScorer(DefaultReferenceFare)
	}
	if rates == nil {
		// the default reference is always a valid code
		rates, _ = NewCurrencyRateResolver(DefaultReferenceCurrency, NewMemoryRateCache(), nil, logger)
	}
	if trends == nil {
		trends, _ = NewTrendEstimator(rates.Reference(), nil, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &RecommendationService{
		connections: connections,
		airports:    airports,
		quotes:      quotes,
		fares:       fares,
		breakers:    NewCircuitBreakerManager(cfg.Breaker, logger),
		rates:       rates,
		trends:      trends,
		scorer:      scorer,
		config:      cfg,
		logger:      logger,
		tracer:      telemetry.NewBusinessTracer(),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	rates.SetSource(s)
	trends.SetSource(s)
	if len(cfg.WarmCurrencies) > 0 {
		s.warmer = NewRateCacheWarmer(rates, cfg.WarmCurrencies, logger)
	}
	return s
}

// SetRefreshLogger routes refresh summaries to l in addition to the service log
func (s *RecommendationService) SetRefreshLogger(l RefreshLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes = l
}

// Start begins the periodic snapshot refresh
func (s *RecommendationService) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Snapshot refresh loop is disabled in configuration")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("recommendation service is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"refresh_interval": s.config.RefreshInterval.String(),
		"quote_lookback":   s.config.QuoteLookback.String(),
		"max_candidates":   s.config.MaxCandidates,
	}).Info("Starting recommendation service")

	s.wg.Add(1)
	go s.refreshLoop()

	return nil
}

// Stop gracefully shuts down the refresh loop
func (s *RecommendationService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("Stopping recommendation service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Recommendation service stopped")
}

// IsRunning returns true if the refresh loop is active
func (s *RecommendationService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *RecommendationService) refreshLoop() {
	defer s.wg.Done()

	if err := s.Refresh(s.ctx); err != nil {
		s.logger.WithError(err).Error("Initial snapshot refresh failed")
	}

	ticker := time.NewTicker(s.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(s.ctx); err != nil {
				s.logger.WithError(err).Error("Snapshot refresh failed")
			}
		}
	}
}

// Refresh reloads every table and swaps in a freshly built snapshot.
// The previous snapshot stays in place if any load fails.
func (s *RecommendationService) Refresh(ctx context.Context) (err error) {
	ctx, span := s.tracer.TraceSnapshotRefresh(ctx)
	defer func() {
		s.recordRefresh(err)
		s.tracer.End(span, err)
	}()

	startTime := s.now()

	if s.connections == nil || s.quotes == nil {
		return fmt.Errorf("connection and quote sources are required")
	}

	var (
		conns    []models.Connection
		airports []models.Airport
		quotes   []models.Quote
	)
	err = s.breakers.Get(breakerRoutes).Execute(ctx, func(ctx context.Context) error {
		var loadErr error
		if conns, loadErr = s.connections.LoadConnections(ctx); loadErr != nil {
			return fmt.Errorf("failed to load connections: %w", loadErr)
		}
		if s.airports != nil {
			if airports, loadErr = s.airports.LoadAirports(ctx); loadErr != nil {
				return fmt.Errorf("failed to load airports: %w", loadErr)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = s.breakers.Get(breakerQuotes).Execute(ctx, func(ctx context.Context) error {
		var loadErr error
		if quotes, loadErr = s.quotes.LoadQuotes(ctx, startTime.Add(-s.config.QuoteLookback)); loadErr != nil {
			return fmt.Errorf("failed to load quotes: %w", loadErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	dir := models.NewAirportDirectory(airports)
	snap := &Snapshot{
		Index:    NewRouteIndex(conns),
		Quotes:   models.NewQuoteTable(quotes),
		Airports: dir,
		Resolver: NewRouteResolver(dir, s.logger),
		LoadedAt: startTime,
	}
	s.snapshot.Store(snap)

	s.tracer.RecordSnapshot(span, telemetry.SnapshotMetrics{
		Connections: snap.Index.Size(),
		RoutePairs:  snap.Index.PairCount(),
		Airports:    len(dir),
		QuotePairs:  snap.Quotes.Len(),
	})
	s.logger.WithFields(logrus.Fields{
		"connections": snap.Index.Size(),
		"route_pairs": snap.Index.PairCount(),
		"airports":    len(dir),
		"quote_pairs": snap.Quotes.Len(),
		"duration":    time.Since(startTime).String(),
	}).Info("Snapshot refreshed")

	s.mu.RLock()
	refreshes := s.refreshes
	s.mu.RUnlock()
	if refreshes != nil {
		refreshes.LogRefresh(len(dir), snap.Index.Size(), len(quotes), time.Since(startTime).Milliseconds())
	}

	if s.warmer != nil {
		if _, warmErr := s.warmer.Warm(ctx, dir, snap.Quotes); warmErr != nil {
			s.logger.WithError(warmErr).Warn("Rate cache warming interrupted")
		}
	}

	return nil
}

func (s *RecommendationService) recordRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
	if err == nil {
		s.lastRefresh = s.now()
	}
}

// Status returns a summary of the current snapshot
func (s *RecommendationService) Status() SnapshotStatus {
	sources := s.breakers.Stats()
	if len(sources) == 0 {
		sources = nil
	}
	snap := s.snapshot.Load()
	if snap == nil {
		return SnapshotStatus{Sources: sources}
	}
	return SnapshotStatus{
		Loaded:      true,
		LoadedAt:    snap.LoadedAt,
		Connections: snap.Index.Size(),
		RoutePairs:  snap.Index.PairCount(),
		Airports:    len(snap.Airports),
		QuotePairs:  snap.Quotes.Len(),
		Sources:     sources,
	}
}

// LastRefreshError returns the error of the most recent refresh, if any
func (s *RecommendationService) LastRefreshError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshErr
}

// QuoteTable returns the quote table of the current snapshot
func (s *RecommendationService) QuoteTable(ctx context.Context) (*models.QuoteTable, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Quotes, nil
}

// current returns the loaded snapshot, loading one on first use.
func (s *RecommendationService) current(ctx context.Context) (*Snapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.snapshot.Load(), nil
}

// Routes resolves itineraries between two airports on the current snapshot
func (s *RecommendationService) Routes(ctx context.Context, from, to string) (models.PathResult, error) {
	from, err := utils.NormalizeAirportCode(from)
	if err != nil {
		return models.PathResult{}, err
	}
	to, err = utils.NormalizeAirportCode(to)
	if err != nil {
		return models.PathResult{}, err
	}

	ctx, span := s.tracer.TraceRouteResolution(ctx, from, to)
	snap, err := s.current(ctx)
	if err != nil {
		s.tracer.End(span, err)
		return models.PathResult{}, err
	}
	result := snap.Resolver.Resolve(snap.Index, from, to)
	s.tracer.RecordRouteResult(span, len(result.Direct), len(result.OneStop), len(result.TwoStop))
	s.tracer.End(span, nil)
	return result, nil
}

// Rate resolves base->quote on the current snapshot. fresh bypasses cached rates.
func (s *RecommendationService) Rate(ctx context.Context, base, quote string, fresh bool) (models.RateResult, error) {
	ctx, span := s.tracer.TraceRateResolution(ctx, base, quote, fresh)
	snap, err := s.current(ctx)
	if err != nil {
		s.tracer.End(span, err)
		return models.RateResult{}, err
	}
	res, err := s.resolveRate(ctx, base, quote, fresh, snap.Quotes)
	if err == nil {
		s.tracer.RecordRate(span, res.Rate, string(res.Method))
	}
	s.tracer.End(span, err)
	return res, err
}

// Trend estimates the trailing-window change of base->quote on the current snapshot
func (s *RecommendationService) Trend(ctx context.Context, base, quote string, window int) (TrendResult, error) {
	if window <= 0 {
		window = s.config.TrendWindow
	}
	ctx, span := s.tracer.TraceTrendEstimation(ctx, base, quote, window)
	snap, err := s.current(ctx)
	if err != nil {
		s.tracer.End(span, err)
		return TrendResult{}, err
	}
	res, err := s.trends.Estimate(ctx, base, quote, window, snap.Quotes)
	if err == nil {
		s.tracer.RecordTrend(span, res.Percent, string(res.Method))
	}
	s.tracer.End(span, err)
	return res, err
}

// ClearRateCache drops every memoized exchange rate
func (s *RecommendationService) ClearRateCache(ctx context.Context) error {
	return s.rates.ClearCache(ctx)
}

func (s *RecommendationService) resolveRate(ctx context.Context, base, quote string, fresh bool, table *models.QuoteTable) (models.RateResult, error) {
	if fresh {
		return s.rates.ResolveFresh(ctx, base, quote, table)
	}
	return s.rates.Resolve(ctx, base, quote, table)
}

// Recommend scores every reachable candidate destination for the request
// and returns them ranked by descending score. Destinations without any
// itinerary are left out; destinations with unknown currency data or fares
// are still scored using neutral terms.
func (s *RecommendationService) Recommend(ctx context.Context, req models.RecommendationRequest) (rec *models.Recommendation, err error) {
	origin, err := utils.NormalizeAirportCode(req.Origin)
	if err != nil {
		return nil, err
	}
	home, err := utils.NormalizeCurrencyCode(req.HomeCurrency)
	if err != nil {
		return nil, err
	}
	if req.TrendWindow <= 0 {
		req.TrendWindow = s.config.TrendWindow
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}

	ctx, span := s.tracer.TraceRecommendation(ctx, origin, home, req.Fresh)
	defer func() { s.tracer.End(span, err) }()

	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}

	destinations := s.candidateDestinations(snap, origin, req.Destinations)

	results := make([]*models.Candidate, len(destinations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, dest := range destinations {
		g.Go(func() error {
			cand, err := s.evaluate(gctx, snap, origin, home, dest, req)
			if err != nil {
				return err
			}
			results[i] = cand
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to evaluate destinations: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	RankCandidates(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	metrics := telemetry.RecommendationMetrics{Evaluated: len(destinations), Returned: len(candidates)}
	if len(candidates) > 0 {
		metrics.TopScore = candidates[0].Score
	}
	s.tracer.RecordRecommendation(span, metrics)
	s.logger.WithFields(logrus.Fields{
		"origin":    origin,
		"currency":  home,
		"evaluated": len(destinations),
		"returned":  len(candidates),
	}).Debug("Recommendations ranked")

	return &models.Recommendation{
		RequestID:   uuid.NewString(),
		Origin:      origin,
		Currency:    home,
		Candidates:  candidates,
		Evaluated:   len(destinations),
		SnapshotAt:  snap.LoadedAt,
		GeneratedAt: s.now(),
	}, nil
}

// candidateDestinations returns the requested destinations, or every known
// airport, excluding the origin and capped at MaxCandidates.
func (s *RecommendationService) candidateDestinations(snap *Snapshot, origin string, requested []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(code string) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || code == origin {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	if len(requested) > 0 {
		for _, code := range requested {
			add(code)
		}
	} else {
		codes := make([]string, 0, len(snap.Airports))
		for code := range snap.Airports {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		if len(codes) == 0 {
			codes = snap.Index.Airports()
		}
		for _, code := range codes {
			add(code)
		}
	}

	if len(out) > s.config.MaxCandidates {
		s.logger.WithFields(logrus.Fields{
			"origin":    origin,
			"requested": len(out),
			"limit":     s.config.MaxCandidates,
		}).Warn("Candidate destinations truncated")
		out = out[:s.config.MaxCandidates]
	}
	return out
}

func (s *RecommendationService) evaluate(ctx context.Context, snap *Snapshot, origin, home, dest string, req models.RecommendationRequest) (*models.Candidate, error) {
	paths := snap.Resolver.Resolve(snap.Index, origin, dest)
	tier := paths.BestTier()
	if tier == models.RouteTierNone {
		return nil, nil
	}
	itinerary, _ := paths.Best()
	airport := snap.Airports.Lookup(dest)

	cand := &models.Candidate{
		Departure:    origin,
		Arrival:      dest,
		City:         airport.City,
		Country:      airport.Country,
		RouteTier:    tier,
		RouteQuality: tier.Quality(),
		Itinerary:    itinerary,
	}

	if local, err := utils.NormalizeCurrencyCode(airport.Currency); err == nil {
		cand.Pair = models.CurrencyPair{Base: home, Quote: local}

		rate, err := s.resolveRate(ctx, home, local, req.Fresh, snap.Quotes)
		if err != nil {
			return nil, err
		}
		cand.Rate = rate.Rate
		cand.RateDirect = rate.Direct

		if cand.TrendPercent, err = s.trends.Trend(ctx, home, local, req.TrendWindow, snap.Quotes); err != nil {
			return nil, err
		}
		if cand.RateAverage, err = s.trends.MovingAverage(ctx, home, local, s.config.AveragePeriod, snap.Quotes); err != nil {
			return nil, err
		}
	} else if airport.Currency != "" {
		s.logger.WithFields(logrus.Fields{
			"airport":  dest,
			"currency": airport.Currency,
		}).Warn("Airport has an invalid currency code")
	}

	if s.fares != nil {
		var (
			fare float64
			ok   bool
		)
		err := s.breakers.Get(breakerFares).Execute(ctx, func(ctx context.Context) error {
			var lookupErr error
			fare, ok, lookupErr = s.fares.LatestFare(ctx, origin, dest)
			return lookupErr
		})
		switch {
		case errors.Is(err, ErrCircuitOpen):
			// fare source is cooling down; score without a fare
		case err != nil:
			s.logger.WithError(err).WithFields(logrus.Fields{
				"origin":      origin,
				"destination": dest,
			}).Warn("Fare lookup failed")
		case ok && fare > 0:
			cand.Fare = &fare
		}
	}

	input := ScoreInput{
		Rate:         cand.Rate,
		TrendPercent: cand.TrendPercent,
		RouteQuality: cand.RouteQuality,
	}
	if cand.Fare != nil {
		input.Fare = *cand.Fare
	}
	cand.Score = s.scorer.Score(input)

	return cand, nil
}

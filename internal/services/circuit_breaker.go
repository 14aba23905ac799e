package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned when a source is short-circuited after repeated failures
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	Closed CircuitBreakerState = iota
	Open
	HalfOpen
)

// String returns the state name used in logs and status output
func (s CircuitBreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for a source circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"` // consecutive failures before opening
	SuccessThreshold int           `mapstructure:"success_threshold"` // half-open successes before closing
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`      // wait before probing again
	MaxProbes        int           `mapstructure:"max_probes"`        // concurrent calls allowed while half-open
}

// DefaultCircuitBreakerConfig returns the defaults applied to unset fields
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
		MaxProbes:        1,
	}
}

// CircuitBreakerStats holds counters for one breaker
type CircuitBreakerStats struct {
	State           string    `json:"state"`
	TotalCalls      int64     `json:"total_calls"`
	FailedCalls     int64     `json:"failed_calls"`
	RejectedCalls   int64     `json:"rejected_calls"`
	LastFailureTime time.Time `json:"last_failure_time,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// CircuitBreaker stops calling a table or fare source that keeps failing,
// so refreshes fail fast and the previous snapshot keeps serving.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig
	logger *logrus.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           CircuitBreakerState
	failures        int
	successes       int
	probes          int
	lastStateChange time.Time
	stats           CircuitBreakerStats
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(name string, config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = defaults.OpenTimeout
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = defaults.MaxProbes
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &CircuitBreaker{
		name:            name,
		config:          config,
		logger:          logger,
		now:             time.Now,
		state:           Closed,
		lastStateChange: time.Now(),
	}
}

// Execute runs fn unless the breaker is open. The lock is not held while fn runs.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.acquire() {
		// the transition to open is logged once in setState
		cb.logger.WithFields(logrus.Fields{
			"circuit_breaker": cb.name,
			"state":           cb.State().String(),
		}).Debug("Circuit breaker is open, rejecting call")
		return ErrCircuitOpen
	}

	err := fn(ctx)
	// A cancelled caller says nothing about the health of the source
	if err != nil && ctx.Err() != nil {
		cb.release()
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) acquire() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalCalls++

	switch cb.state {
	case Closed:
		return true
	case Open:
		if cb.now().Sub(cb.lastStateChange) < cb.config.OpenTimeout {
			cb.stats.RejectedCalls++
			return false
		}
		cb.setState(HalfOpen)
		cb.probes = 1
		return true
	case HalfOpen:
		if cb.probes >= cb.config.MaxProbes {
			cb.stats.RejectedCalls++
			return false
		}
		cb.probes++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == HalfOpen && cb.probes > 0 {
		cb.probes--
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == HalfOpen && cb.probes > 0 {
		cb.probes--
	}

	if err == nil {
		switch cb.state {
		case Closed:
			cb.failures = 0
		case HalfOpen:
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.setState(Closed)
			}
		}
		return
	}

	cb.stats.FailedCalls++
	cb.stats.LastFailureTime = cb.now()
	cb.stats.LastError = err.Error()

	switch cb.state {
	case Closed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.setState(Open)
		}
	case HalfOpen:
		cb.setState(Open)
	}

	cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"state":           cb.state.String(),
		"failure_count":   cb.failures,
		"error":           err.Error(),
	}).Warn("Circuit breaker: failed call")
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0

	entry := cb.logger.WithFields(logrus.Fields{
		"circuit_breaker": cb.name,
		"old_state":       oldState.String(),
		"new_state":       newState.String(),
	})
	if newState == Open {
		entry.Warn("Circuit breaker state changed")
		return
	}
	entry.Info("Circuit breaker state changed")
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a copy of the breaker counters
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	stats := cb.stats
	stats.State = cb.state.String()
	return stats
}

// Reset closes the breaker and clears its failure count
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(Closed)
	cb.failures = 0
}

// CircuitBreakerManager hands out one breaker per named source
type CircuitBreakerManager struct {
	config   CircuitBreakerConfig
	logger   *logrus.Logger
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerManager creates a manager whose breakers share config
func NewCircuitBreakerManager(config CircuitBreakerConfig, logger *logrus.Logger) *CircuitBreakerManager {
	return &CircuitBreakerManager{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it on first use
func (m *CircuitBreakerManager) Get(name string) *CircuitBreaker {
	m.mu.RLock()
	breaker, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if breaker, ok := m.breakers[name]; ok {
		return breaker
	}
	breaker = NewCircuitBreaker(name, m.config, m.logger)
	m.breakers[name] = breaker
	return breaker
}

// Stats returns the counters of every breaker by name
func (m *CircuitBreakerManager) Stats() map[string]CircuitBreakerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]CircuitBreakerStats, len(m.breakers))
	for name, breaker := range m.breakers {
		out[name] = breaker.Stats()
	}
	return out
}

// ResetAll closes every breaker
func (m *CircuitBreakerManager) ResetAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, breaker := range m.breakers {
		breaker.Reset()
	}
}

package resilience

import (
	"sync"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/errors"
)

// BreakerConfig configures one provider's circuit breaker (§4.3 policy 3).
type BreakerConfig struct {
	// WindowSize is the number of most recent call outcomes retained to
	// compute the failure rate.
	WindowSize int
	// MinCalls is the minimum number of samples in the window before the
	// failure rate is even considered.
	MinCalls int
	// FailureRateThreshold is the fraction (0..1) of failures in the window
	// above which the breaker trips to open.
	FailureRateThreshold float64
	// OpenDuration is how long the breaker stays open before probing.
	OpenDuration time.Duration
	// HalfOpenProbes is how many calls are admitted while half-open.
	HalfOpenProbes int
}

// DefaultBreakerConfig returns conservative defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:           20,
		MinCalls:             5,
		FailureRateThreshold: 0.5,
		OpenDuration:         30 * time.Second,
		HalfOpenProbes:       3,
	}
}

// Breaker is a per-provider circuit breaker implementing the closed → open
// → half_open → {closed, open} state machine of §4.3 policy 3.
type Breaker struct {
	mu     sync.Mutex
	cfg    BreakerConfig
	state  ingredient.BreakerStateValue
	window []bool // true = success
	head   int
	filled int

	transitionedAt time.Time
	halfOpenSeen   int
	halfOpenFailed bool
}

// NewBreaker constructs a closed Breaker from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 20
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &Breaker{
		cfg:            cfg,
		state:          ingredient.BreakerClosed,
		window:         make([]bool, cfg.WindowSize),
		transitionedAt: time.Now(),
	}
}

// Allow reports whether a call may proceed right now, transitioning
// open → half_open automatically once OpenDuration has elapsed. Rejections
// fail immediately with CodeBreakerOpen and never invoke the adapter (§8 P8).
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case ingredient.BreakerClosed:
		return nil
	case ingredient.BreakerOpen:
		if time.Since(b.transitionedAt) >= b.cfg.OpenDuration {
			b.state = ingredient.BreakerHalfOpen
			b.transitionedAt = time.Now()
			b.halfOpenSeen = 1 // this call is the first half-open probe
			b.halfOpenFailed = false
			return nil
		}
		return errors.New(errors.CodeBreakerOpen, "circuit breaker open")
	case ingredient.BreakerHalfOpen:
		if b.halfOpenSeen >= b.cfg.HalfOpenProbes {
			return errors.New(errors.CodeBreakerOpen, "circuit breaker half-open probe budget exhausted")
		}
		b.halfOpenSeen++
		return nil
	}
	return nil
}

// RecordResult reports the outcome of a call that Allow() admitted.
func (b *Breaker) RecordResult(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case ingredient.BreakerHalfOpen:
		if !success {
			b.halfOpenFailed = true
		}
		if b.halfOpenSeen >= b.cfg.HalfOpenProbes {
			if b.halfOpenFailed {
				b.state = ingredient.BreakerOpen
			} else {
				b.state = ingredient.BreakerClosed
				b.resetWindowLocked()
			}
			b.transitionedAt = time.Now()
		}
		return
	default:
		b.recordWindowLocked(success)
		if b.state == ingredient.BreakerClosed && b.shouldTripLocked() {
			b.state = ingredient.BreakerOpen
			b.transitionedAt = time.Now()
		}
	}
}

func (b *Breaker) recordWindowLocked(success bool) {
	b.window[b.head] = success
	b.head = (b.head + 1) % len(b.window)
	if b.filled < len(b.window) {
		b.filled++
	}
}

func (b *Breaker) resetWindowLocked() {
	b.head = 0
	b.filled = 0
}

func (b *Breaker) shouldTripLocked() bool {
	if b.filled < b.cfg.MinCalls {
		return false
	}
	failures := 0
	for i := 0; i < b.filled; i++ {
		if !b.window[i] {
			failures++
		}
	}
	rate := float64(failures) / float64(b.filled)
	return rate > b.cfg.FailureRateThreshold
}

// State returns a point-in-time snapshot for Health reporting.
func (b *Breaker) State() ingredient.BreakerStateValue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Snapshot returns a full BreakerState for a given provider ID.
func (b *Breaker) Snapshot(p ingredient.ProviderID) ingredient.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	failures := 0
	for i := 0; i < b.filled; i++ {
		if !b.window[i] {
			failures++
		}
	}
	return ingredient.BreakerState{
		Provider:           p,
		State:              b.state,
		RecentFailureCount: failures,
		WindowFilled:       b.filled,
		LastTransitionAt:   b.transitionedAt,
		HalfOpenProbeCount: b.halfOpenSeen,
	}
}

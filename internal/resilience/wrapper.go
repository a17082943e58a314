package resilience

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/mommyshops/irae/internal/providers"
)

// PolicyConfig bundles one provider's full resilience configuration (§4.3).
type PolicyConfig struct {
	RateLimiter     RateLimiterConfig
	Bulkhead        int
	Breaker         BreakerConfig
	Retry           RetryConfig
	PerCallDeadline time.Duration
}

// DefaultPolicyConfig returns conservative, broadly applicable defaults.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		RateLimiter:     DefaultRateLimiterConfig(),
		Bulkhead:        5,
		Breaker:         DefaultBreakerConfig(),
		Retry:           DefaultRetryConfig(),
		PerCallDeadline: 3 * time.Second,
	}
}

// Wrapper composes the four resilience policies named in §4.3 — rate
// limiter, bulkhead, circuit breaker, retry — around a single
// providers.Adapter, in that order, under a hard per-call deadline. The
// Resilience Layer never returns a Go error to its caller: every rejection
// or exhaustion collapses into a failure IngredientFact via
// providers.FailureFact, matching the adapter contract.
type Wrapper struct {
	adapter providers.Adapter
	cfg     PolicyConfig
	limiter Limiter
	bulk    *Bulkhead
	breaker *Breaker
	log     logging.Logger
}

// NewWrapper builds a Wrapper around adapter using cfg. log may be nil, in
// which case logging.Default() is used lazily.
func NewWrapper(adapter providers.Adapter, cfg PolicyConfig, log logging.Logger) *Wrapper {
	if log == nil {
		log = logging.Default()
	}
	return &Wrapper{
		adapter: adapter,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimiter),
		bulk:    NewBulkhead(cfg.Bulkhead),
		breaker: NewBreaker(cfg.Breaker),
		log:     log.Named("resilience").With(logging.String("provider", string(adapter.ID()))),
	}
}

// NewWrapperWithLimiter builds a Wrapper using limiter in place of the
// default in-process RateLimiter — used to wire a distributed token bucket
// (§4.13) for a provider whose quota is shared across instances.
func NewWrapperWithLimiter(adapter providers.Adapter, cfg PolicyConfig, limiter Limiter, log logging.Logger) *Wrapper {
	w := NewWrapper(adapter, cfg, log)
	w.limiter = limiter
	return w
}

// BreakerSnapshot exposes the underlying breaker's state for health
// reporting (§4.8 C8), without exposing the breaker itself.
func (w *Wrapper) BreakerSnapshot() ingredient.BreakerState {
	return w.breaker.Snapshot(w.adapter.ID())
}

// Fetch runs the full policy chain for name and always returns a
// fully-formed IngredientFact, bounded by cfg.PerCallDeadline regardless of
// how many retries are attempted inside it.
func (w *Wrapper) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	id := w.adapter.ID()

	callCtx, cancel := context.WithTimeout(ctx, w.cfg.PerCallDeadline)
	defer cancel()

	if err := w.limiter.Acquire(callCtx); err != nil {
		w.log.Warn("rate limited", logging.Err(err))
		return providers.FailureFact(id, name, ingredient.StatusRateLimited)
	}

	release, err := w.bulk.Acquire(callCtx)
	if err != nil {
		w.log.Warn("bulkhead full", logging.Err(err))
		return providers.FailureFact(id, name, ingredient.StatusBulkheadFull)
	}
	defer release()

	if err := w.breaker.Allow(); err != nil {
		w.log.Warn("breaker open", logging.Err(err))
		return providers.FailureFact(id, name, ingredient.StatusBreakerOpen)
	}

	var fact ingredient.IngredientFact
	retryErr := withRetry(callCtx, w.cfg.Retry, func(ctx context.Context) error {
		fact = w.adapter.Fetch(ctx, name)
		if !fact.Success {
			return errors.New(statusToCode(fact.StatusCode), "provider call failed")
		}
		return nil
	})

	w.breaker.RecordResult(retryErr == nil)

	if retryErr != nil && fact.ProviderID == "" {
		// The adapter never even produced a fact (e.g. panic-free early ctx
		// cancellation before the first attempt); synthesize one.
		return providers.FailureFact(id, name, ingredient.StatusTimeout)
	}
	return fact
}

// statusToCode maps an IngredientFact's StatusCode onto the error taxonomy
// so withRetry's transience check (errors.IsTransient) can drive the
// retry-or-not decision from the adapter's own classification.
func statusToCode(status ingredient.StatusCode) errors.Code {
	switch status {
	case ingredient.StatusTimeout:
		return errors.CodeTimeout
	case ingredient.StatusUpstream5xx:
		return errors.CodeUpstream5xx
	case ingredient.StatusConnReset:
		return errors.CodeConnReset
	case ingredient.StatusRateLimited:
		return errors.CodeRateLimited
	case ingredient.StatusParseError:
		return errors.CodeParseError
	case ingredient.StatusUpstream4xx:
		return errors.CodeUpstream4xx
	default:
		return errors.CodeInternal
	}
}

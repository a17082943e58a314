package resilience

import (
	"context"

	"github.com/mommyshops/irae/internal/platform/errors"
)

// Bulkhead caps the number of concurrent in-flight calls to a provider
// using a buffered channel as a counting semaphore (§4.3 policy 2). Calls
// over the limit fail fast rather than queueing, matching "over-limit calls
// fail fast with bulkhead_full."
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead constructs a Bulkhead that admits at most maxConcurrent calls
// at a time. maxConcurrent <= 0 is treated as 1.
func NewBulkhead(maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bulkhead{slots: make(chan struct{}, maxConcurrent)}
}

// Acquire takes a slot if one is immediately available, or fails fast with
// CodeBulkheadFull. It never blocks waiting for capacity.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case b.slots <- struct{}{}:
		return func() { <-b.slots }, nil
	default:
		return nil, errors.New(errors.CodeBulkheadFull, "bulkhead at capacity")
	}
}

// InFlight returns the number of calls currently holding a slot.
func (b *Bulkhead) InFlight() int { return len(b.slots) }

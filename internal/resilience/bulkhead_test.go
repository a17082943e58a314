package resilience

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBulkhead_FailsFastAtCapacity(t *testing.T) {
	b := NewBulkhead(2)
	ctx := context.Background()

	release1, err := b.Acquire(ctx)
	require.NoError(t, err)
	release2, err := b.Acquire(ctx)
	require.NoError(t, err)

	_, err = b.Acquire(ctx)
	require.Error(t, err)
	require.Equal(t, 2, b.InFlight())

	release1()
	_, err = b.Acquire(ctx)
	require.NoError(t, err)

	release2()
}

func TestBulkhead_ZeroOrNegativeTreatedAsOne(t *testing.T) {
	b := NewBulkhead(0)
	ctx := context.Background()

	release, err := b.Acquire(ctx)
	require.NoError(t, err)
	_, err = b.Acquire(ctx)
	require.Error(t, err)
	release()
}

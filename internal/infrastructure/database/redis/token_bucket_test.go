package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mommyshops/irae/internal/platform/logging"
)

type fakeScriptRunner struct {
	allowed []int64
	pos     int
	err     error
}

func (f *fakeScriptRunner) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd {
	cmd := goredis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	val := int64(0)
	if f.pos < len(f.allowed) {
		val = f.allowed[f.pos]
		f.pos++
	}
	cmd.SetVal(val)
	return cmd
}

func newTestBucket(runner scriptRunner) *DistributedTokenBucket {
	return &DistributedTokenBucket{
		client:         runner,
		key:            "irae:ratelimit:test",
		limit:          5,
		refillPerSec:   5,
		acquireTimeout: 50 * time.Millisecond,
		ttlSeconds:     60,
		log:            logging.NewNop(),
		now:            time.Now,
	}
}

func TestDistributedTokenBucket_AcquireSucceedsWhenScriptAllows(t *testing.T) {
	runner := &fakeScriptRunner{allowed: []int64{1}}
	b := newTestBucket(runner)

	require.NoError(t, b.Acquire(context.Background()))
}

func TestDistributedTokenBucket_AcquireTimesOutWhenBucketStaysEmpty(t *testing.T) {
	runner := &fakeScriptRunner{allowed: []int64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}}
	b := newTestBucket(runner)
	b.acquireTimeout = 20 * time.Millisecond

	err := b.Acquire(context.Background())
	require.Error(t, err)
}

func TestDistributedTokenBucket_AcquireDeniesOnRedisError(t *testing.T) {
	runner := &fakeScriptRunner{err: errors.New("connection refused")}
	b := newTestBucket(runner)

	err := b.Acquire(context.Background())
	require.Error(t, err)
}

func TestDistributedTokenBucket_SatisfiesResilienceLimiterInterface(t *testing.T) {
	var _ interface {
		Acquire(ctx context.Context) error
	} = newTestBucket(&fakeScriptRunner{})
	assert.True(t, true)
}

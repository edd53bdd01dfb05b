package throttle

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaim_SurvivesPrune(t *testing.T) {
	th := NewDomainThrottle(Config{Concurrency: 1})

	slot := th.claim("claimed.example")
	assert.Equal(t, int64(1), atomic.LoadInt64(&slot.active))

	th.mu.Lock()
	th.prune()
	kept, ok := th.domains["claimed.example"]
	th.mu.Unlock()

	require.True(t, ok, "a claimed slot must not be pruned")
	assert.Same(t, slot, kept)
}

func TestPrune_DropsIdleDomains(t *testing.T) {
	th := NewDomainThrottle(Config{Concurrency: 1})
	ctx := context.Background()

	held, err := th.Acquire(ctx, "held.example")
	require.NoError(t, err)
	defer held()

	for i := 0; i < pruneThreshold; i++ {
		release, err := th.Acquire(ctx, fmt.Sprintf("d%d.example", i))
		require.NoError(t, err)
		release()
	}

	th.mu.Lock()
	n := len(th.domains)
	_, ok := th.domains["held.example"]
	th.mu.Unlock()

	assert.True(t, ok)
	assert.Less(t, n, pruneThreshold)
}

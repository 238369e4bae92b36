package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorTicksThroughStages(t *testing.T) {
	var mu sync.Mutex
	var ticks []Tick
	got := make(chan struct{})

	ind := Start(context.Background(), time.Millisecond, []string{"a", "b"}, func(tk Tick) {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, tk)
		if len(ticks) == 3 {
			close(got)
		}
	})

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("indicator did not tick")
	}
	ind.Stop()
	ind.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(ticks), 3)
	assert.Equal(t, "a", ticks[0].Stage)
	assert.Equal(t, "b", ticks[1].Stage)
	assert.Equal(t, "b", ticks[2].Stage, "last stage repeats")
	assert.Equal(t, 2, ticks[2].Step)
}

func TestIndicatorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ind := Start(ctx, time.Hour, nil, nil)
	cancel()

	select {
	case <-ind.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("indicator kept running after cancel")
	}
}

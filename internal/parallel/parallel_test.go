package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = 4
	cfg.MinChunkSize = 8

	var counter int64
	seen := make([]int32, 1000)
	For(len(seen), func(i int) {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	require.Equal(t, int64(len(seen)), counter)
	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d visited %d times", i, v)
	}
}

func TestFor_SequentialPreservesOrder(t *testing.T) {
	for _, cfg := range []Config{Sequential(), {Enabled: false, NumWorkers: 8, MinChunkSize: 1}} {
		var order []int
		For(50, func(i int) {
			order = append(order, i)
		}, cfg)

		require.Len(t, order, 50)
		for i, v := range order {
			assert.Equal(t, i, v)
		}
	}
}

func TestFor_SmallInputStaysOnCaller(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	var order []int
	For(100, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Len(t, order, 100)
}

func TestFor_Zero(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

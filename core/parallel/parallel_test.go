package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelizeCoversEveryIndex(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		seen := make([]int32, 100)
		Parallelize(len(seen), workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			require.Equal(t, int32(1), n, "index %d with %d workers", i, workers)
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, 4, func(start, end int) { called = true })
	assert.False(t, called)
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var calls int32
	ParallelizeWithThreshold(10, 100, 8, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestForEachSequentialAndParallelAgree(t *testing.T) {
	square := func(out []int) func(i int) error {
		return func(i int) error {
			out[i] = i * i
			return nil
		}
	}

	seq := make([]int, 50)
	par := make([]int, 50)
	require.NoError(t, ForEach(50, 0, 1, square(seq)))
	require.NoError(t, ForEach(50, 0, 8, square(par)))
	assert.Equal(t, seq, par)
}

func TestForEachReturnsLowestIndexError(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	var attempted int32
	err := ForEach(20, 0, 4, func(i int) error {
		atomic.AddInt32(&attempted, 1)
		switch i {
		case 7:
			return errA
		case 15:
			return errB
		}
		return nil
	})

	assert.Equal(t, errA, err)
	assert.Equal(t, int32(20), attempted)
}

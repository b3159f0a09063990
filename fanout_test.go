package salish

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequentialFanoutOrder(t *testing.T) {
	var order []int
	SequentialFanout().Each(5, func(i int) {
		order = append(order, i)
	})
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPooledFanoutRunsAll(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int]struct{})

	PooledFanout(4).Each(32, func(i int) {
		mu.Lock()
		seen[i] = struct{}{}
		mu.Unlock()
	})

	assert.Len(t, seen, 32, "Each must complete every call before returning")
}

func TestPooledFanoutBoundsConcurrency(t *testing.T) {
	const workers = 2

	var current, peak atomic.Int64
	PooledFanout(workers).Each(16, func(int) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		current.Add(-1)
	})

	assert.LessOrEqual(t, peak.Load(), int64(workers))
	assert.Positive(t, peak.Load())
}

func TestPooledFanoutClampsWorkers(t *testing.T) {
	var calls atomic.Int64
	PooledFanout(0).Each(3, func(int) {
		calls.Add(1)
	})
	assert.EqualValues(t, 3, calls.Load())
}

func TestFanoutZeroCalls(t *testing.T) {
	SequentialFanout().Each(0, func(int) {
		t.Fatal("must not be called")
	})
	PooledFanout(2).Each(0, func(int) {
		t.Fatal("must not be called")
	})
}

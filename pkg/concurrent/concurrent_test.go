package concurrent

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

func TestForEach(t *testing.T) {
	var sum atomic.Int64
	ForEach(sequence.From([]int{1, 2, 3, 4}), func(v int) {
		sum.Add(int64(v))
	})
	require.Equal(t, int64(10), sum.Load())
}

func TestForEachEmpty(t *testing.T) {
	ForEach(sequence.From([]int(nil)), func(int) {
		t.Fatal("action must not run")
	})
}

func TestFanOut(t *testing.T) {
	var mu sync.Mutex
	a, b := []int{}, []int{}

	FanOut(sequence.From([]int{1, 2, 3}),
		func(v int) {
			mu.Lock()
			a = append(a, v)
			mu.Unlock()
		},
		func(v int) {
			mu.Lock()
			b = append(b, v*10)
			mu.Unlock()
		},
	)

	// Elements are delivered in order even though handlers run in
	// parallel per element.
	require.Equal(t, []int{1, 2, 3}, a)
	require.Equal(t, []int{10, 20, 30}, b)
}

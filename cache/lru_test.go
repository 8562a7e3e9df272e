package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUOrder_TouchMaintainsPermutation(t *testing.T) {
	order := newLRUOrder(6)
	require.True(t, order.isPermutation())

	for _, slot := range []int{3, 1, 4, 1, 5, 9, 2, 6} {
		if slot >= 6 {
			continue
		}
		order.touch(slot)
		require.True(t, order.isPermutation())
	}
}

func TestLRUOrder_LeastToMostRecentOrder(t *testing.T) {
	order := newLRUOrder(4)
	order.touch(2)
	order.touch(0)
	order.touch(3)
	// MRU to LRU: 3, 0, 2, 1

	var seen []int
	order.leastToMostRecent(func(slot int) bool {
		seen = append(seen, slot)
		return false
	})
	require.Equal(t, []int{1, 2, 0, 3}, seen)
}

func TestLRUOrder_VisitCanStopEarly(t *testing.T) {
	order := newLRUOrder(4)
	var seen []int
	order.leastToMostRecent(func(slot int) bool {
		seen = append(seen, slot)
		return true
	})
	require.Len(t, seen, 1)
}

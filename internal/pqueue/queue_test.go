package pqueue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDequeueEmpty(t *testing.T) {
	q := New[string]()

	require.True(t, q.IsEmpty())
	item, ok := q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, "", item)
}

func TestQueueSingleElement(t *testing.T) {
	q := New[string]()
	q.Enqueue("only", 3.5)

	require.Equal(t, 1, q.Len())
	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "only", item)
	assert.True(t, q.IsEmpty())
}

func TestQueueServesLowestPriorityFirst(t *testing.T) {
	q := New[string]()
	q.Enqueue("c", 3)
	q.Enqueue("a", 1)
	q.Enqueue("d", 4)
	q.Enqueue("b", 2)

	var got []string
	for !q.IsEmpty() {
		item, _ := q.Dequeue()
		got = append(got, item)
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestQueueNonDecreasingOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	q := New[float64]()

	const n = 500
	for i := 0; i < n; i++ {
		p := rng.Float64() * 100
		q.Enqueue(p, p)
	}
	require.Equal(t, n, q.Len())

	prev := -1.0
	for i := 0; i < n; i++ {
		p, ok := q.Dequeue()
		require.True(t, ok)
		require.GreaterOrEqual(t, p, prev, "dequeue %d out of order", i)
		prev = p
	}
	assert.True(t, q.IsEmpty())
}

func TestQueueAllowsDuplicateItems(t *testing.T) {
	q := New[string]()
	q.Enqueue("x", 10)
	q.Enqueue("x", 2)
	q.Enqueue("y", 5)

	first, _ := q.Dequeue()
	second, _ := q.Dequeue()
	third, _ := q.Dequeue()

	assert.Equal(t, []string{"x", "y", "x"}, []string{first, second, third})
}

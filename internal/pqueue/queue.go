package pqueue

// entry pairs an item with the priority it was enqueued at.
type entry[T any] struct {
	item     T
	priority float64
}

// Queue is an array-backed binary min-heap keyed by a float priority.
// The item with the numerically smallest priority is dequeued first.
//
// There is no decrease-key: callers that need to lower an item's priority
// enqueue it again and skip the stale copy when it surfaces. Among equal
// priorities the dequeue order depends on insertion history and is not
// guaranteed to be FIFO.
type Queue[T any] struct {
	heap []entry[T]
}

func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Enqueue appends the item and sifts it toward the root.
func (q *Queue[T]) Enqueue(item T, priority float64) {
	q.heap = append(q.heap, entry[T]{item: item, priority: priority})
	q.siftUp(len(q.heap) - 1)
}

// Dequeue removes and returns the item with the lowest priority.
// The second return value is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T

	n := len(q.heap)
	if n == 0 {
		return zero, false
	}

	if n == 1 {
		top := q.heap[0]
		q.heap[0] = entry[T]{}
		q.heap = q.heap[:0]
		return top.item, true
	}

	top := q.heap[0]
	q.swap(0, n-1)
	q.heap[n-1] = entry[T]{} // release the reference held by the backing array
	q.heap = q.heap[:n-1]
	q.siftDown(0)

	return top.item, true
}

func (q *Queue[T]) Len() int { return len(q.heap) }

func (q *Queue[T]) IsEmpty() bool { return len(q.heap) == 0 }

func (q *Queue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].priority <= q.heap[i].priority {
			return
		}
		q.swap(parent, i)
		i = parent
	}
}

func (q *Queue[T]) siftDown(i int) {
	n := len(q.heap)
	for {
		left := 2*i + 1
		right := left + 1
		smallest := i

		if left < n && q.heap[left].priority < q.heap[smallest].priority {
			smallest = left
		}
		if right < n && q.heap[right].priority < q.heap[smallest].priority {
			smallest = right
		}
		if smallest == i {
			return
		}

		q.swap(i, smallest)
		i = smallest
	}
}

func (q *Queue[T]) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
}

package sched

import (
	"github.com/emirpasic/gods/trees/binaryheap"
)

// taskHeap is an array-backed binary min-heap of pending tasks ordered by
// (expiration, id). Tasks are referenced, never copied.
type taskHeap struct {
	h *binaryheap.Heap
}

func newTaskHeap() *taskHeap {
	return &taskHeap{h: binaryheap.NewWith(cmp)}
}

func (q *taskHeap) push(t *Task) { q.h.Push(t) }

func (q *taskHeap) peek() (*Task, bool) {
	v, ok := q.h.Peek()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

func (q *taskHeap) pop() (*Task, bool) {
	v, ok := q.h.Pop()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

func (q *taskHeap) len() int { return q.h.Size() }

func (q *taskHeap) clear() { q.h.Clear() }

// cmp orders tasks by expiration and breaks ties by id, which keeps equal
// deadlines in insertion order.
func cmp(a, b any) int {
	ta, tb := a.(*Task), b.(*Task)
	switch {
	case ta.expiration < tb.expiration:
		return -1
	case ta.expiration > tb.expiration:
		return 1
	case ta.id < tb.id:
		return -1
	case ta.id > tb.id:
		return 1
	default:
		return 0
	}
}

package sched

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaskHeap_PriorityThenInsertionOrder verifies the (deadline, id) order
// Given: tasks A(normal), B(immediate), C(normal) pushed in that order
// When: they are popped
// Then: B comes first, and A precedes C by insertion id
func TestTaskHeap_PriorityThenInsertionOrder(t *testing.T) {
	q := newTaskHeap()
	a := newTask(1, PriorityNormal, 0, func() {}, true)
	b := newTask(2, PriorityImmediate, 0, func() {}, true)
	c := newTask(3, PriorityNormal, 0, func() {}, true)
	q.push(a)
	q.push(b)
	q.push(c)

	for _, want := range []*Task{b, a, c} {
		got, ok := q.pop()
		require.True(t, ok)
		assert.Same(t, want, got)
	}
	_, ok := q.pop()
	assert.False(t, ok)
}

func TestTaskHeap_PeekDoesNotRemove(t *testing.T) {
	q := newTaskHeap()
	_, ok := q.peek()
	assert.False(t, ok, "peek on empty heap")

	task := newTask(1, PriorityLow, 0, func() {}, true)
	q.push(task)

	got, ok := q.peek()
	require.True(t, ok)
	assert.Same(t, task, got)
	assert.Equal(t, 1, q.len())
}

func TestTaskHeap_RandomPushesPopSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := newTaskHeap()
	for i := 1; i <= 500; i++ {
		p := Priority(rng.Intn(5) + 1)
		start := time.Duration(rng.Intn(1000)) * time.Millisecond
		q.push(newTask(TaskID(i), p, start, func() {}, true))
	}

	var prev *Task
	for q.len() > 0 {
		cur, ok := q.pop()
		require.True(t, ok)
		if prev != nil {
			require.LessOrEqual(t, cmp(prev, cur), 0, "%v popped before %v", prev, cur)
		}
		prev = cur
	}
}

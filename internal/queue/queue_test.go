package queue

import (
	"testing"
)

func TestPushPop(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	if got := q.Pop(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if got := q.Pop(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := q.Len(); got != 1 {
		t.Errorf("expected length 1, got %d", got)
	}
}

func TestPop_EmptyReturnsZero(t *testing.T) {
	q := New[string]()

	if got := q.Pop(); got != "" {
		t.Errorf("expected zero value, got %q", got)
	}
}

func TestLast(t *testing.T) {
	q := New[int]()

	if got := q.Last(); got != 0 {
		t.Errorf("expected zero value on empty queue, got %d", got)
	}

	q.Push(5, 7)
	if got := q.Last(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := q.Len(); got != 2 {
		t.Errorf("Last must not consume, length is %d", got)
	}
}

func TestGetAndEmpty(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	items := q.GetAndEmpty()

	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
	if !q.Empty() {
		t.Error("queue should be empty")
	}
}

func TestClear(t *testing.T) {
	q := New[int]()
	q.Push(1, 2)
	q.Clear()

	if !q.Empty() {
		t.Error("queue should be empty after Clear")
	}
}

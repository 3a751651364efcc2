package tiersched

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestForEachRunsAllItems(t *testing.T) {
	d := newDispatcher()
	var sum atomic.Int64
	batch := []int{1, 2, 3, 4, 5}
	forEach(d, batch, func(n int) error {
		sum.Add(int64(n))
		return nil
	}, func(int, error) {
		t.Fatalf("unexpected fault")
	})
	if got := sum.Load(); got != 15 {
		t.Fatalf("sum = %d, want 15", got)
	}
}

func TestForEachIsolatesErrors(t *testing.T) {
	d := newDispatcher()
	batch := []int{1, 2, 3}
	var faults atomic.Int64
	var succeeded atomic.Int64
	forEach(d, batch, func(n int) error {
		if n == 2 {
			return errors.New("boom")
		}
		succeeded.Add(1)
		return nil
	}, func(item int, err error) {
		faults.Add(1)
	})
	if faults.Load() != 1 {
		t.Fatalf("faults = %d, want 1", faults.Load())
	}
	if succeeded.Load() != 2 {
		t.Fatalf("succeeded = %d, want 2", succeeded.Load())
	}
}

func TestForEachIsolatesPanics(t *testing.T) {
	d := newDispatcher()
	batch := []int{1, 2, 3}
	var faults atomic.Int64
	forEach(d, batch, func(n int) error {
		if n == 1 {
			panic("kaboom")
		}
		return nil
	}, func(item int, err error) {
		faults.Add(1)
		if err == nil {
			t.Fatalf("expected non-nil error for panic recovery")
		}
	})
	if faults.Load() != 1 {
		t.Fatalf("faults = %d, want 1", faults.Load())
	}
}

func TestForEachEmptyBatch(t *testing.T) {
	d := newDispatcher()
	forEach[int](d, nil, func(int) error {
		t.Fatalf("fn should not be called for empty batch")
		return nil
	}, func(int, error) {})
}

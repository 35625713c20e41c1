package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := New(4)

	var counter int64
	for i := 0; i < 100; i++ {
		p.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	p.Close()

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestPool_CloseIsDrainBarrier(t *testing.T) {
	p := New(2, WithQueueSize(64))

	var finished int64
	for i := 0; i < 20; i++ {
		p.Submit(func() {
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&finished, 1)
		})
	}
	p.Close()

	if got := atomic.LoadInt64(&finished); got != 20 {
		t.Errorf("Close returned with %d/20 tasks finished", got)
	}
	if !p.IsClosed() {
		t.Error("IsClosed should be true after Close")
	}
}

func TestPool_FixedWorkerCount(t *testing.T) {
	p := New(3)
	defer p.Close()

	var current, peak int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			n := atomic.AddInt32(&current, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&current, -1)
		})
	}
	wg.Wait()

	if peak > 3 {
		t.Errorf("peak concurrency %d exceeds worker count 3", peak)
	}
	if p.Cap() != 3 {
		t.Errorf("Cap() = %d, want 3", p.Cap())
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	p := New(2)
	p.Close()

	if p.Submit(func() { t.Error("task should not execute after Close") }) {
		t.Error("Submit returned true after Close")
	}
}

func TestPool_DoubleClose(t *testing.T) {
	t.Parallel()

	p := New(2)
	p.Close()
	p.Close()
}

func TestPool_NilTask(t *testing.T) {
	p := New(1)
	defer p.Close()
	if p.Submit(nil) {
		t.Error("Submit(nil) should return false")
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := New(0)
	defer p.Close()
	if p.Cap() <= 0 {
		t.Errorf("Cap() = %d, want > 0", p.Cap())
	}
}

func TestMap_PreservesOrder(t *testing.T) {
	p := New(4)
	defer p.Close()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	got := Map(p, items, func(n int) int { return n * n })

	for i, n := range items {
		if got[i] != n*n {
			t.Errorf("Map[%d] = %d, want %d", i, got[i], n*n)
		}
	}
}

func TestMap_ClosedPool(t *testing.T) {
	p := New(2)
	p.Close()

	got := Map(p, []string{"a", "b"}, func(s string) string { return s + s })
	if len(got) != 2 || got[0] != "" || got[1] != "" {
		t.Errorf("Map on closed pool = %q, want zero values", got)
	}
}

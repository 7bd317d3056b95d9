package queue

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_PushPopOrder(t *testing.T) {
	q := New[int](4)

	for i := 0; i < 10; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if q.Len() != 10 {
		t.Errorf("Len() = %d, want 10", q.Len())
	}

	for i := 0; i < 10; i++ {
		got, ok := q.TryPop()
		if !ok {
			t.Fatalf("TryPop() empty at item %d", i)
		}
		if got != i {
			t.Errorf("popped %d, want %d", got, i)
		}
	}

	if _, ok := q.TryPop(); ok {
		t.Error("TryPop() on empty queue returned ok")
	}
}

func TestQueue_GrowsPastInitialCapacity(t *testing.T) {
	q := New[int](2)

	for i := 0; i < 100; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Len != 100 {
		t.Errorf("Len = %d, want 100", stats.Len)
	}
	if stats.Cap < 100 {
		t.Errorf("Cap = %d, want >= 100", stats.Cap)
	}

	// Order survives the grows.
	for i := 0; i < 100; i++ {
		got, _ := q.TryPop()
		if got != i {
			t.Fatalf("popped %d, want %d", got, i)
		}
	}
}

func TestQueue_GrowWhileWrapped(t *testing.T) {
	q := New[int](4)

	// Advance head so the ring wraps before growing.
	q.Push(0)
	q.Push(1)
	q.TryPop()
	q.TryPop()

	for i := 2; i < 20; i++ {
		q.Push(i)
	}

	for i := 2; i < 20; i++ {
		got, _ := q.TryPop()
		if got != i {
			t.Fatalf("popped %d, want %d", got, i)
		}
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[string](4)

	done := make(chan string, 1)
	go func() {
		item, _ := q.Pop()
		done <- item
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push("wake up")

	select {
	case got := <-done:
		if got != "wake up" {
			t.Errorf("Pop() = %q, want %q", got, "wake up")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake after Push")
	}
}

func TestQueue_CloseDrainsRemaining(t *testing.T) {
	q := New[int](4)
	q.Push(1)
	q.Push(2)
	q.Close()

	if q.Push(3) {
		t.Error("Push after Close returned true")
	}

	for want := 1; want <= 2; want++ {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Errorf("Pop() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop() on closed empty queue returned ok")
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[int](8)

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, ok := q.Pop(); !ok {
				return
			}
			received++
		}
	}()

	wg.Wait()
	q.Close()
	<-done

	if received != producers*perProducer {
		t.Errorf("received %d items, want %d", received, producers*perProducer)
	}
}

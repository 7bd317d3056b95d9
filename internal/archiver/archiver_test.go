package archiver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/relaywire/chat-relay/internal/store"
)

// recordingGateway counts AppendMessage calls; other operations are unused
// by the archiver.
type recordingGateway struct {
	mu      sync.Mutex
	appends []Entry
	failOn  string // text that should fail to persist
}

func (g *recordingGateway) Login(ctx context.Context, username, password string) (store.UserRecord, error) {
	return store.UserRecord{}, store.ErrInvalidCredentials
}

func (g *recordingGateway) Register(ctx context.Context, username, password string, r, gg, b uint8) (store.UserRecord, error) {
	return store.UserRecord{}, errors.New("not implemented")
}

func (g *recordingGateway) FetchRecent(ctx context.Context, limit int) ([]store.ArchivedMessage, error) {
	return nil, nil
}

func (g *recordingGateway) AppendMessage(ctx context.Context, userID int32, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if text == g.failOn {
		return errors.New("gateway write failed")
	}
	g.appends = append(g.appends, Entry{AuthorID: userID, Text: text})
	return nil
}

func (g *recordingGateway) recorded() []Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Entry(nil), g.appends...)
}

func TestArchiver_PersistsInArrivalOrder(t *testing.T) {
	gw := &recordingGateway{}
	a := New(DefaultConfig(), gw, nil)
	a.Start()

	a.Enqueue(7, "first")
	a.Enqueue(7, "second")
	a.Enqueue(3, "third")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	got := gw.recorded()
	want := []Entry{{7, "first"}, {7, "second"}, {3, "third"}}
	if len(got) != len(want) {
		t.Fatalf("persisted %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestArchiver_FailedAppendDoesNotStopConsumer(t *testing.T) {
	gw := &recordingGateway{failOn: "poison"}
	a := New(DefaultConfig(), gw, nil)
	a.Start()

	a.Enqueue(1, "before")
	a.Enqueue(1, "poison")
	a.Enqueue(1, "after")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.Stop(ctx)

	got := gw.recorded()
	if len(got) != 2 {
		t.Fatalf("persisted %d entries, want 2", len(got))
	}
	if got[0].Text != "before" || got[1].Text != "after" {
		t.Errorf("persisted %v, want [before after]", got)
	}
}

func TestArchiver_EnqueueAfterStopIsDropped(t *testing.T) {
	gw := &recordingGateway{}
	a := New(DefaultConfig(), gw, nil)
	a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	a.Stop(ctx)

	a.Enqueue(1, "late")

	if got := gw.recorded(); len(got) != 0 {
		t.Errorf("persisted %v after stop, want none", got)
	}
}

func TestArchiver_ConcurrentProducersAllPersisted(t *testing.T) {
	gw := &recordingGateway{}
	a := New(DefaultConfig(), gw, nil)
	a.Start()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int32) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				a.Enqueue(id, "msg")
			}
		}(int32(p))
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.Stop(ctx)

	if got := len(gw.recorded()); got != producers*perProducer {
		t.Errorf("persisted %d entries, want %d", got, producers*perProducer)
	}
}

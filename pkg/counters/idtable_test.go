package counters

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"counterbot/pkg/logger"
)

type countingStore struct {
	*MemoryStore
	calls atomic.Int32
	fail  atomic.Bool
	delay time.Duration
}

func (s *countingStore) CounterIDs(ctx context.Context) (map[string]CounterID, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.fail.Load() {
		return nil, unavailable("counter ids", errors.New("boom"))
	}
	return s.MemoryStore.CounterIDs(ctx)
}

func TestIDTable_RefreshAndLookup(t *testing.T) {
	mem := NewMemoryStore()
	mem.Seed("warnings", 7, nil)
	table := NewIDTable(mem, logger.NewNop())

	if _, ok := table.Lookup("warnings"); ok {
		t.Fatal("table should be empty before refresh")
	}
	if err := table.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if id, ok := table.Lookup("warnings"); !ok || id != 7 {
		t.Fatalf("expected warnings -> 7, got %d %v", id, ok)
	}
	if table.RefreshedAt().IsZero() {
		t.Fatal("RefreshedAt should be set")
	}

	snap := table.Snapshot()
	snap["votes"] = 9
	if _, ok := table.Lookup("votes"); ok {
		t.Fatal("snapshot must not alias the table")
	}
}

func TestIDTable_FailedRefreshKeepsPrevious(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	store.Seed("warnings", 7, nil)
	table := NewIDTable(store, logger.NewNop())

	if err := table.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	store.fail.Store(true)
	if err := table.Refresh(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, ok := table.Lookup("warnings"); !ok {
		t.Fatal("failed refresh should keep previous table")
	}
}

func TestIDTable_ConcurrentRefreshShared(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), delay: 50 * time.Millisecond}
	store.Seed("warnings", 7, nil)
	table := NewIDTable(store, logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = table.Refresh(context.Background())
		}()
	}
	wg.Wait()

	if calls := store.calls.Load(); calls >= 8 {
		t.Fatalf("expected concurrent refreshes to be collapsed, got %d store reads", calls)
	}
}

func TestIDTable_Schedule(t *testing.T) {
	table := NewIDTable(NewMemoryStore(), logger.NewNop())

	if err := table.StartSchedule("not a spec"); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := table.StartSchedule("@every 1h"); err != nil {
		t.Fatalf("StartSchedule: %v", err)
	}
	table.StopSchedule()
}

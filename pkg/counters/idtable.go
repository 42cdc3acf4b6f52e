package counters

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"counterbot/pkg/logger"
)

// IDTable caches the counter key -> CounterID mapping. IDs are assigned
// when counters are registered elsewhere; this table only reads them.
type IDTable struct {
	store Store
	log   *logger.Logger

	mu          sync.RWMutex
	ids         map[string]CounterID
	refreshedAt time.Time

	group singleflight.Group
	cron  *cron.Cron
}

// NewIDTable creates an empty table over store. Call Refresh to populate it.
func NewIDTable(store Store, log *logger.Logger) *IDTable {
	return &IDTable{
		store: store,
		log:   log,
		ids:   make(map[string]CounterID),
	}
}

// Refresh reloads the table. Concurrent callers share one store read.
// On failure the previous table is kept.
func (t *IDTable) Refresh(ctx context.Context) error {
	_, err, _ := t.group.Do("refresh", func() (interface{}, error) {
		ids, err := t.store.CounterIDs(ctx)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		t.ids = ids
		t.refreshedAt = time.Now()
		t.mu.Unlock()

		t.log.Debug("Refreshed counter id table", zap.Int("counters", len(ids)))
		return nil, nil
	})
	return err
}

// Lookup returns the ID assigned to key.
func (t *IDTable) Lookup(key string) (CounterID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[key]
	return id, ok
}

// Snapshot returns a copy of the table.
func (t *IDTable) Snapshot() map[string]CounterID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]CounterID, len(t.ids))
	for k, v := range t.ids {
		out[k] = v
	}
	return out
}

// RefreshedAt returns when the table was last loaded successfully.
func (t *IDTable) RefreshedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.refreshedAt
}

// StartSchedule refreshes the table on the given cron spec (e.g. "@every 1m").
func (t *IDTable) StartSchedule(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.Refresh(ctx); err != nil {
			t.log.Warn("Counter id table refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid id refresh schedule %q: %w", spec, err)
	}

	t.cron = c
	c.Start()
	t.log.Info("Scheduled counter id refresh", zap.String("spec", spec))
	return nil
}

// StopSchedule stops scheduled refreshes and waits for a running one.
func (t *IDTable) StopSchedule() {
	if t.cron == nil {
		return
	}
	<-t.cron.Stop().Done()
}

package counters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"counterbot/pkg/logger"
)

// fileSnapshot is the on-disk layout of a FileStore.
//
//	{
//	  "counter_ids": {"warnings": 1},
//	  "values": {"1:-:300000000000000001": 3}
//	}
type fileSnapshot struct {
	CounterIDs map[string]CounterID `json:"counter_ids"`
	Values     map[string]int64     `json:"values"`
}

// FileStore serves counter values from a JSON file and reloads it when the
// file changes on disk. Another process owns writes.
type FileStore struct {
	log      *logger.Logger
	filePath string

	mu      sync.RWMutex
	data    fileSnapshot
	loadErr error
	closed  bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// FileStoreConfig configures the file store.
type FileStoreConfig struct {
	FilePath string
	// Watch enables reloading when the file changes.
	Watch bool
}

// NewFileStore opens a file-backed store. A missing file is an error:
// unlike an empty counter, a missing store cannot be told apart from a
// misconfiguration.
func NewFileStore(log *logger.Logger, cfg *FileStoreConfig) (*FileStore, error) {
	s := &FileStore{
		log:      log,
		filePath: cfg.FilePath,
		done:     make(chan struct{}),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	if cfg.Watch {
		if err := s.startWatch(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Load reads the file into memory. On failure the previous snapshot is
// dropped and reads report ErrStorageUnavailable until a load succeeds.
func (s *FileStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	var snap fileSnapshot
	if err == nil {
		err = json.Unmarshal(raw, &snap)
		if err != nil {
			err = fmt.Errorf("parsing counter file: %w", err)
		}
	} else {
		err = fmt.Errorf("reading counter file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.loadErr = err
		s.data = fileSnapshot{}
		return err
	}

	s.loadErr = nil
	s.data = snap
	s.log.Debug("Loaded counter file",
		zap.String("file", s.filePath),
		zap.Int("counters", len(snap.CounterIDs)),
		zap.Int("values", len(snap.Values)))
	return nil
}

// GetCurrentValue implements Store.
func (s *FileStore) GetCurrentValue(ctx context.Context, key ScopeKey) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.readableLocked(); err != nil {
		return 0, false, unavailable("get", err)
	}
	v, ok := s.data.Values[key.String()]
	return v, ok, nil
}

// CounterIDs implements Store.
func (s *FileStore) CounterIDs(ctx context.Context) (map[string]CounterID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.readableLocked(); err != nil {
		return nil, unavailable("counter ids", err)
	}
	out := make(map[string]CounterID, len(s.data.CounterIDs))
	for k, v := range s.data.CounterIDs {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) readableLocked() error {
	if s.closed {
		return errClosed
	}
	return s.loadErr
}

// startWatch watches the parent directory so editors that replace the file
// with a rename are still picked up.
func (s *FileStore) startWatch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.filePath)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching counter file: %w", err)
	}
	s.watcher = w

	target := filepath.Clean(s.filePath)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if err := s.Load(); err != nil {
					s.log.Warn("Counter file reload failed", zap.Error(err))
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warn("Counter file watcher error", zap.Error(err))
			case <-s.done:
				return
			}
		}
	}()

	s.log.Info("Watching counter file", zap.String("file", s.filePath))
	return nil
}

// Close stops the watcher.
func (s *FileStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	var err error
	if s.watcher != nil {
		err = s.watcher.Close()
	}
	s.wg.Wait()
	return err
}

package config

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/solmere/tilescout/internal/engine"
)

// reloadDebounce coalesces the write-event bursts editors produce when
// saving a file.
const reloadDebounce = 200 * time.Millisecond

// Store holds the live configuration and optionally watches its file for
// changes. Reads see a complete config or the previous one, never a
// partial reload; invalid edits are logged and ignored.
type Store struct {
	mu  sync.RWMutex
	cfg Config

	logger  *slog.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStore creates a store holding the given configuration.
func NewStore(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Get returns the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ActivePreset returns the current scoring preset. Handed to the
// orchestrator as its preset source so new jobs pick up reloads.
func (s *Store) ActivePreset() engine.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.ActivePreset()
}

// Watch starts watching the config file and swapping in valid reloads.
// Call Stop to release the watcher.
func (s *Store) Watch(path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.watchLoop(path)
	return nil
}

// Stop ends the watch loop. No-op when Watch was never called.
func (s *Store) Stop() {
	if s.watcher == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
	_ = s.watcher.Close()
	s.watcher = nil
}

func (s *Store) watchLoop(path string) {
	defer close(s.doneCh)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-s.stopCh:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			s.reload(path)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config watch error", "error", err)
		}
	}
}

func (s *Store) reload(path string) {
	cfg, err := Load(path)
	if err != nil {
		// Keep serving the previous config; a broken edit must not take
		// the search down.
		s.logger.Warn("config reload rejected", "path", path, "error", err)
		return
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.logger.Info("config reloaded", "path", path, "preset", cfg.Engine.Preset)
}

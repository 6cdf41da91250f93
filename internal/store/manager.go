package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Mode is the manager's backend state.
type Mode string

const (
	// ModeDurable means calls go to the durable backend.
	ModeDurable Mode = "durable"
	// ModeFallback means calls go to the in-process backend.
	ModeFallback Mode = "fallback"
)

// Compile-time check that *Manager satisfies the Store interface.
var _ Store = (*Manager)(nil)

// commandTimeout bounds each durable-backend call. Exceeding it counts as a
// store failure and triggers the fallback path, not a caller-visible error.
const commandTimeout = 60 * time.Second

// Manager fronts the durable and in-process backends as a small state
// machine. It starts in ModeDurable when a durable backend is configured and
// transitions to ModeFallback on any connection or query failure; it never
// transitions back within the same process lifetime — re-promotion requires
// an explicit re-initialization. Records written before a degradation remain
// in the durable backend and are not visible through the fallback; this is a
// documented limitation, surfaced via Mode rather than hidden.
type Manager struct {
	mu       sync.RWMutex
	mode     Mode
	durable  Store
	fallback *MemoryStore
	logger   *slog.Logger
}

// NewManager creates a Manager. durable may be nil, in which case the
// manager starts (and stays) in ModeFallback.
func NewManager(durable Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	mode := ModeFallback
	if durable != nil {
		mode = ModeDurable
	}
	return &Manager{
		mode:     mode,
		durable:  durable,
		fallback: NewMemoryStore(),
		logger:   logger,
	}
}

// Open selects and initializes the configured backend. An unreachable
// durable backend degrades to the in-process fallback instead of failing
// startup.
func Open(backend, dsn, path string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	var durable Store
	var err error
	switch backend {
	case "postgres":
		durable, err = OpenPostgres(dsn)
	case "sqlite":
		durable, err = OpenSQLite(path)
	case "memory":
		logger.Info("using in-memory storage (durable backend disabled)")
	default:
		err = fmt.Errorf("unknown store backend %q", backend)
	}

	if err != nil {
		logger.Warn("durable backend unavailable, falling back to in-memory storage", "backend", backend, "error", err)
		durable = nil
	}
	if durable != nil {
		logger.Info("connected to durable store", "backend", backend)
	}
	return NewManager(durable, logger)
}

// Mode returns the current backend state, exposed for observability.
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// degrade transitions to ModeFallback after a durable-backend failure.
func (m *Manager) degrade(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeFallback {
		return
	}
	m.mode = ModeFallback
	m.logger.Warn("durable store failed, degrading to in-memory fallback", "op", op, "error", err)
}

func (m *Manager) current() Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mode == ModeDurable {
		return m.durable
	}
	return m.fallback
}

// Store upserts a record by analysis id. A durable-backend failure degrades
// the write to the in-process backend; the write itself always succeeds.
func (m *Manager) Store(ctx context.Context, analysisID, repository string, results json.RawMessage) error {
	if s := m.current(); s != m.fallback {
		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		err := s.Store(callCtx, analysisID, repository, results)
		cancel()
		if err == nil {
			return nil
		}
		m.degrade("store", err)
	}
	return m.fallback.Store(ctx, analysisID, repository, results)
}

// Get returns the record for analysisID, or nil if absent.
func (m *Manager) Get(ctx context.Context, analysisID string) (*AnalysisRecord, error) {
	if s := m.current(); s != m.fallback {
		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		rec, err := s.Get(callCtx, analysisID)
		cancel()
		if err == nil {
			return rec, nil
		}
		m.degrade("get", err)
	}
	return m.fallback.Get(ctx, analysisID)
}

// List returns matching records, newest first.
func (m *Manager) List(ctx context.Context, filter ListFilter) ([]AnalysisRecord, error) {
	if s := m.current(); s != m.fallback {
		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		recs, err := s.List(callCtx, filter)
		cancel()
		if err == nil {
			return recs, nil
		}
		m.degrade("list", err)
	}
	return m.fallback.List(ctx, filter)
}

// Delete removes the record for analysisID.
func (m *Manager) Delete(ctx context.Context, analysisID string) (bool, error) {
	if s := m.current(); s != m.fallback {
		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		ok, err := s.Delete(callCtx, analysisID)
		cancel()
		if err == nil {
			return ok, nil
		}
		m.degrade("delete", err)
	}
	return m.fallback.Delete(ctx, analysisID)
}

// Stats returns aggregate statistics from the active backend.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	if s := m.current(); s != m.fallback {
		callCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		stats, err := s.Stats(callCtx)
		cancel()
		if err == nil {
			return stats, nil
		}
		m.degrade("stats", err)
	}
	return m.fallback.Stats(ctx)
}

// Close releases both backends.
func (m *Manager) Close() error {
	var err error
	if m.durable != nil {
		err = m.durable.Close()
	}
	m.fallback.Close()
	return err
}

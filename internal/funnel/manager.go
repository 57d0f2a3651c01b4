package funnel

import (
	"context"
	"fmt"
	"log/slog"
)

// SnapshotStore persists one serialized funnel snapshot per session.
type SnapshotStore interface {
	GetFunnelSnapshot(ctx context.Context, userID string) ([]byte, error)
	UpsertFunnelSnapshot(ctx context.Context, userID string, blob []byte) error
}

// Manager loads and saves funnel state snapshots for a session. It is the
// only component that touches the snapshot store.
type Manager struct {
	store SnapshotStore
}

// NewManager creates a snapshot manager backed by the given store.
func NewManager(store SnapshotStore) *Manager {
	return &Manager{store: store}
}

// Load returns the session's funnel state, falling back to the default
// initial state when no snapshot exists or the stored blob is unusable. A
// store read failure is treated the same way: the visitor gets a working
// funnel rather than a fatal error.
func (m *Manager) Load(ctx context.Context, userID string) State {
	blob, err := m.store.GetFunnelSnapshot(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load funnel snapshot, starting fresh", "user_id", userID, "error", err)
		return New()
	}
	state, restored := Restore(blob)
	if !restored && len(blob) > 0 {
		slog.Warn("Discarding malformed funnel snapshot", "user_id", userID, "size", len(blob))
	}
	return state
}

// Save serializes the state and writes it to the snapshot store. Callers
// invoke it after every successful transition.
func (m *Manager) Save(ctx context.Context, userID string, s State) error {
	blob, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal funnel state: %w", err)
	}
	if err := m.store.UpsertFunnelSnapshot(ctx, userID, blob); err != nil {
		return fmt.Errorf("persist funnel snapshot: %w", err)
	}
	return nil
}

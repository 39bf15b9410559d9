package etl

import "sync"

// Hook function types for sync events
type (
	// SyncCompletedHook is called after a bulk sync finished (not for cached responses)
	SyncCompletedHook func(result *SyncResult)

	// SourceSyncedHook is called after a single-source sync finished
	SourceSyncedHook func(result *SourceSyncResult)
)

// Hooks registers event callbacks.
type Hooks interface {
	OnSyncCompleted(fn SyncCompletedHook)
	OnSourceSynced(fn SourceSyncedHook)
}

// hooks manages event callbacks for syncs
type hooks struct {
	mu              sync.RWMutex
	onSyncCompleted []SyncCompletedHook
	onSourceSynced  []SourceSyncedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSyncCompleted implements Hooks.
func (c *client) OnSyncCompleted(fn SyncCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSyncCompleted = append(c.hooks.onSyncCompleted, fn)
}

// OnSourceSynced implements Hooks.
func (c *client) OnSourceSynced(fn SourceSyncedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onSourceSynced = append(c.hooks.onSourceSynced, fn)
}

func (h *hooks) syncCompleted(r *SyncResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSyncCompleted {
		fn(r)
	}
}

func (h *hooks) sourceSynced(r *SourceSyncResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSourceSynced {
		fn(r)
	}
}

// Package container provides a minimal in-memory state container implementing
// the host protocol consumed by update.Binder. It models the cooperative
// update cycle of a UI-style framework: commits queue fragments during a
// tick, and Flush folds them into committed state under a new revision.
//
// A Container is owned by a single goroutine; it is not safe for concurrent
// use.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-update/internal/clone"
	"github.com/goliatone/go-update/pkg/activity"
	"github.com/google/uuid"
)

// Container holds committed state plus the fragments scheduled since the
// last flush.
type Container struct {
	committed map[string]any
	pending   []map[string]any
	revision  string
	hooks     activity.Hooks
}

// Option configures a Container.
type Option func(*Container)

// WithHooks attaches activity hooks notified on every flush.
func WithHooks(hooks activity.Hooks) Option {
	return func(c *Container) {
		c.hooks = hooks
	}
}

// New constructs a container seeded with a deep copy of initial.
func New(initial map[string]any, opts ...Option) *Container {
	c := &Container{
		committed: clone.Map(initial),
		revision:  uuid.NewString(),
	}
	if c.committed == nil {
		c.committed = map[string]any{}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// State returns the committed state. Callers must treat it as read-only;
// updates flow through Commit and Flush.
func (c *Container) State() map[string]any {
	return c.committed
}

// Revision returns the identifier assigned at the last flush.
func (c *Container) Revision() string {
	return c.revision
}

// Commit schedules fragment for the next flush. The fragment is deep copied
// so later caller mutation cannot leak into the queue.
func (c *Container) Commit(fragment map[string]any) error {
	if fragment == nil {
		return fmt.Errorf("container: fragment is required")
	}
	c.pending = append(c.pending, clone.Map(fragment))
	return nil
}

// Pending folds the queued fragments into a single fragment, later commits
// overriding earlier ones key by key. The second result is false when
// nothing is queued.
func (c *Container) Pending() (map[string]any, bool) {
	if len(c.pending) == 0 {
		return nil, false
	}
	folded := make(map[string]any)
	for _, fragment := range c.pending {
		for key, value := range fragment {
			folded[key] = value
		}
	}
	return folded, true
}

// Dirty reports whether any fragment awaits a flush.
func (c *Container) Dirty() bool {
	return len(c.pending) > 0
}

// Flush merges the queued fragments into committed state, assigns a fresh
// revision, clears the queue and returns the new revision. Flushing with an
// empty queue keeps the current revision.
func (c *Container) Flush() string {
	if len(c.pending) == 0 {
		return c.revision
	}
	next := make(map[string]any, len(c.committed))
	for key, value := range c.committed {
		next[key] = value
	}
	folded, _ := c.Pending()
	for key, value := range folded {
		next[key] = value
	}
	c.committed = next
	c.pending = nil
	c.revision = uuid.NewString()

	if c.hooks.Enabled() {
		_ = c.hooks.Notify(context.Background(), activity.BuildStateFlushedEvent(activity.UpdateEventInput{
			Revision:   c.revision,
			OccurredAt: time.Now(),
		}))
	}
	return c.revision
}

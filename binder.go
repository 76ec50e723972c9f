package update

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-update/pkg/activity"
)

// Host is the state container protocol consumed in bound mode: a readable
// committed state and a commit capability that schedules a fragment merge.
type Host interface {
	State() map[string]any
	Commit(fragment map[string]any) error
}

// PendingReporter is optionally implemented by hosts whose framework batches
// commits before flushing them. Pending returns the fragment scheduled but
// not yet flushed, so sequential updates within the same tick observe a
// consistent base instead of stale committed state. Hosts that flush
// immediately simply omit it.
type PendingReporter interface {
	Pending() (map[string]any, bool)
}

var (
	// ErrNilHost indicates NewBinder was called without a host.
	ErrNilHost = errors.New("update: host is required")
	// ErrEmptyPath indicates a bound update addressed no top-level property.
	ErrEmptyPath = errors.New("update: bound updates require a non-empty path")
)

// Binder applies shorthand updates against a single host. It owns the
// pending-state cache for that host: the cache is rebuilt at the start of
// every call while the host reports a pending fragment, and dropped as soon
// as it stops. A Binder is bound to exactly one host and, like the host
// protocol it models, is meant for single-goroutine cooperative use.
type Binder struct {
	host Host
	cfg  binderConfig
	last map[string]any
}

// NewBinder wraps host for bound updates.
func NewBinder(host Host, opts ...Option) (*Binder, error) {
	if host == nil {
		return nil, ErrNilHost
	}
	cfg := applyOptions(opts)
	if cfg.applier == nil {
		cfg.applier = defaultApplier
	}
	return &Binder{host: host, cfg: cfg}, nil
}

// Host returns the bound host.
func (b *Binder) Host() Host {
	return b.host
}

// Apply performs a single-path bound update: it computes the new value for
// the addressed top-level property against the last known state, commits a
// one-property fragment, and returns that property's new value directly.
func (b *Binder) Apply(op Op, path string, value any) (any, error) {
	resolved := ParsePath(path)
	if resolved.IsRoot() {
		return nil, ErrEmptyPath
	}
	fragment, err := b.applyEntries(op, []batchEntry{{path: resolved, value: value}})
	if err != nil {
		return nil, err
	}
	prop, _ := resolved.Shift()
	return fragment[prop], nil
}

// ApplyBatch performs N independent updates sharing op within one call and
// one commit, returning the full fragment of updated top-level properties.
//
// Values that are themselves plain map[string]any are treated as nested
// batch instructions and expanded into joined sub-paths, recursively. This
// means a literal map value cannot be assigned through ApplyBatch: use Apply
// for that. Expansion order is deterministic (sorted paths), so when two
// entries address the same top-level property the later one starts from the
// earlier one's result.
func (b *Binder) ApplyBatch(op Op, updates map[string]any) (map[string]any, error) {
	entries := expandBatch(nil, updates)
	if len(entries) == 0 {
		return map[string]any{}, nil
	}
	return b.applyEntries(op, entries)
}

// ApplyWhen applies like Apply only when the condition expression evaluates
// to true against the last known state. The second result reports whether
// the update was applied.
func (b *Binder) ApplyWhen(condition string, op Op, path string, value any) (any, bool, error) {
	ok, err := b.evaluateCondition(condition, path)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	result, err := b.Apply(op, path, value)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// ApplyBatchWhen applies like ApplyBatch only when the condition expression
// evaluates to true against the last known state.
func (b *Binder) ApplyBatchWhen(condition string, op Op, updates map[string]any) (map[string]any, bool, error) {
	ok, err := b.evaluateCondition(condition, "")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	fragment, err := b.ApplyBatch(op, updates)
	if err != nil {
		return nil, false, err
	}
	return fragment, true, nil
}

type batchEntry struct {
	path  Path
	value any
}

func expandBatch(prefix Path, updates map[string]any) []batchEntry {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var entries []batchEntry
	for _, key := range keys {
		path := prefix.Join(ParsePath(key)...)
		if nested, ok := updates[key].(map[string]any); ok {
			entries = append(entries, expandBatch(path, nested)...)
			continue
		}
		entries = append(entries, batchEntry{path: path, value: updates[key]})
	}
	return entries
}

func (b *Binder) applyEntries(op Op, entries []batchEntry) (map[string]any, error) {
	last := b.refreshLast()
	fragment := make(map[string]any, len(entries))
	for _, entry := range entries {
		if entry.path.IsRoot() {
			return nil, ErrEmptyPath
		}
		prop, rest := entry.path.Shift()

		// Whole-property replacement skips the applier entirely.
		if rest.IsRoot() && op == OpSet {
			fragment[prop] = entry.value
			continue
		}

		base, written := fragment[prop]
		if !written {
			base = last[prop]
		}
		next, err := applyWith(b.cfg.applier, base, op, rest, entry.value)
		if err != nil {
			return nil, fmt.Errorf("update: %s at %q: %w", op, entry.path, err)
		}
		fragment[prop] = next
	}

	if err := b.host.Commit(fragment); err != nil {
		return nil, fmt.Errorf("update: commit: %w", err)
	}
	b.emit(op, entries, last, fragment)
	return fragment, nil
}

// refreshLast rebuilds the per-call pending-state cache. While the host
// reports a pending fragment the cache overlays it, key by key, on top of
// committed state; otherwise the cache is dropped and committed state is the
// base.
func (b *Binder) refreshLast() map[string]any {
	committed := b.host.State()
	reporter, ok := b.host.(PendingReporter)
	if !ok {
		b.last = nil
		return committed
	}
	pending, ok := reporter.Pending()
	if !ok {
		b.last = nil
		return committed
	}
	last := make(map[string]any, len(committed)+len(pending))
	for key, value := range committed {
		last[key] = value
	}
	for key, value := range pending {
		last[key] = value
	}
	b.last = last
	return last
}

func (b *Binder) emit(op Op, entries []batchEntry, last, fragment map[string]any) {
	if !b.cfg.emitter.Enabled() {
		return
	}
	ctx := context.Background()
	now := time.Now()
	for _, entry := range entries {
		before, _ := Lookup(last, entry.path)
		after, _ := Lookup(fragment, entry.path)
		event := activity.BuildUpdateAppliedEvent(activity.UpdateEventInput{
			Op:         string(op),
			Path:       entry.path.String(),
			OldValue:   before,
			NewValue:   after,
			Batched:    len(entries) > 1,
			OccurredAt: now,
		})
		// Emission failures never affect an already-committed update.
		_ = b.cfg.emitter.Emit(ctx, event)
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	update "github.com/goliatone/go-update"
	"github.com/google/uuid"
)

// ErrETagMismatch indicates an optimistic-concurrency conflict between the
// caller's expected revision and the stored one.
var ErrETagMismatch = errors.New("store: etag mismatch")

// Ref identifies one persisted snapshot for one state domain.
type Ref struct {
	Domain string
	Key    string
}

// Identifier returns the canonical storage key for the reference.
func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", fmt.Errorf("store: domain is required")
	}
	if r.Key == "" {
		return "", fmt.Errorf("store: key is required")
	}
	return fmt.Sprintf("%s/%s", r.Domain, r.Key), nil
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	RevisionID string            `json:"revision_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Mutator applies an in-place change to a loaded snapshot.
type Mutator[T any] func(*T) error

// Mutate loads the snapshot at ref, applies fn, and saves the result under a
// fresh revision. A missing snapshot starts from the zero value. When both
// the caller and the stored record carry an ETag they must agree, otherwise
// ErrETagMismatch is returned and nothing is saved.
func Mutate[T any](ctx context.Context, s Store[T], ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if s == nil {
		return zero, Meta{}, fmt.Errorf("store: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("store: mutator is required")
	}

	snapshot, loadedMeta, ok, err := s.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("store: load %q for key %q: %w", ref.Domain, ref.Key, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.RevisionID = uuid.NewString()
	saveMeta.UpdatedAt = time.Now()
	savedMeta, err := s.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("store: save %q for key %q: %w", ref.Domain, ref.Key, err)
	}
	return snapshot, savedMeta, nil
}

// Patch loads the map snapshot at ref, applies one shorthand update through
// the core apply layer, and saves the result under a fresh revision. A
// missing snapshot starts from an empty map.
func Patch(ctx context.Context, s Store[map[string]any], ref Ref, meta Meta, op update.Op, path string, value any) (map[string]any, Meta, error) {
	return Mutate(ctx, s, ref, meta, func(snapshot *map[string]any) error {
		if *snapshot == nil {
			*snapshot = map[string]any{}
		}
		next, err := update.Apply(*snapshot, op, path, value)
		if err != nil {
			return err
		}
		patched, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("store: patched snapshot is %T, want map", next)
		}
		*snapshot = patched
		return nil
	})
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.RevisionID != "" {
		out.RevisionID = override.RevisionID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

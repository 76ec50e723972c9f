package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-update/pkg/store"
)

type fakeStore[T any] struct {
	loadSnapshot T
	loadMeta     store.Meta
	loadOK       bool
	loadErr      error

	saveCalls  int
	savedRef   store.Ref
	savedMeta  store.Meta
	savedValue T
	saveErr    error
}

func (s *fakeStore[T]) Load(_ context.Context, ref store.Ref) (T, store.Meta, bool, error) {
	var zero T
	if s.loadErr != nil {
		return zero, store.Meta{}, false, s.loadErr
	}
	return s.loadSnapshot, s.loadMeta, s.loadOK, nil
}

func (s *fakeStore[T]) Save(_ context.Context, ref store.Ref, snapshot T, meta store.Meta) (store.Meta, error) {
	s.saveCalls++
	s.savedRef = ref
	s.savedMeta = meta
	s.savedValue = snapshot
	if s.saveErr != nil {
		return store.Meta{}, s.saveErr
	}
	return meta, nil
}

func TestMutateSavesFreshRevision(t *testing.T) {
	fake := &fakeStore[map[string]any]{
		loadSnapshot: map[string]any{"count": 1},
		loadMeta:     store.Meta{RevisionID: "rev-old", ETag: "v1"},
		loadOK:       true,
	}
	ref := store.Ref{Domain: "profiles", Key: "u42"}

	snapshot, meta, err := store.Mutate(context.Background(), fake, ref, store.Meta{ETag: "v1"}, func(v *map[string]any) error {
		(*v)["count"] = 2
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if snapshot["count"] != 2 {
		t.Fatalf("expected mutated snapshot, got %v", snapshot)
	}
	if fake.saveCalls != 1 {
		t.Fatalf("expected 1 save call, got %d", fake.saveCalls)
	}
	if meta.RevisionID == "" || meta.RevisionID == "rev-old" {
		t.Fatalf("expected fresh revision id, got %q", meta.RevisionID)
	}
	if meta.UpdatedAt.IsZero() {
		t.Fatalf("expected updated timestamp")
	}
}

func TestMutateMissingSnapshotStartsFromZero(t *testing.T) {
	fake := &fakeStore[map[string]any]{}
	ref := store.Ref{Domain: "profiles", Key: "u42"}

	snapshot, _, err := store.Mutate(context.Background(), fake, ref, store.Meta{}, func(v *map[string]any) error {
		if *v != nil {
			t.Fatalf("expected zero snapshot, got %v", *v)
		}
		*v = map[string]any{"seeded": true}
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if snapshot["seeded"] != true {
		t.Fatalf("expected seeded snapshot, got %v", snapshot)
	}
}

func TestMutateETagMismatchDoesNotSave(t *testing.T) {
	fake := &fakeStore[map[string]any]{
		loadSnapshot: map[string]any{"count": 1},
		loadMeta:     store.Meta{RevisionID: "rev-1", ETag: "v1"},
		loadOK:       true,
	}
	ref := store.Ref{Domain: "profiles", Key: "u42"}

	_, _, err := store.Mutate(context.Background(), fake, ref, store.Meta{ETag: "v2"}, func(v *map[string]any) error {
		(*v)["count"] = 2
		return nil
	})
	if !errors.Is(err, store.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if fake.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", fake.saveCalls)
	}
}

func TestMutatorErrorDoesNotSave(t *testing.T) {
	fake := &fakeStore[map[string]any]{
		loadSnapshot: map[string]any{"count": 1},
		loadOK:       true,
	}
	ref := store.Ref{Domain: "profiles", Key: "u42"}

	boom := errors.New("bad mutation")
	_, _, err := store.Mutate(context.Background(), fake, ref, store.Meta{}, func(v *map[string]any) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if fake.saveCalls != 0 {
		t.Fatalf("expected no save calls, got %d", fake.saveCalls)
	}
}

func TestIdentifierRequiresDomainAndKey(t *testing.T) {
	if _, err := (store.Ref{Key: "u42"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing domain")
	}
	if _, err := (store.Ref{Domain: "profiles"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing key")
	}
	id, err := (store.Ref{Domain: "profiles", Key: "u42"}).Identifier()
	if err != nil {
		t.Fatalf("identifier: %v", err)
	}
	if id != "profiles/u42" {
		t.Fatalf("expected profiles/u42, got %q", id)
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/goliatone/go-update/internal/hydrate"
)

// MemoryStore is an in-memory Store keeping snapshots as JSON payloads, so
// loads exercise the same decode path a durable backend would.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	decoder *hydrate.Decoder[T]
}

type memoryRecord struct {
	payload []byte
	meta    Meta
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption[T any] func(*MemoryStore[T])

// WithDecoder overrides the decoder used to rebuild snapshots on Load.
func WithDecoder[T any](decoder *hydrate.Decoder[T]) MemoryStoreOption[T] {
	return func(s *MemoryStore[T]) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore[T any](options ...MemoryStoreOption[T]) *MemoryStore[T] {
	s := &MemoryStore[T]{
		records: map[string]memoryRecord{},
		decoder: hydrate.NewDecoder[T](),
	}
	for _, option := range options {
		if option != nil {
			option(s)
		}
	}
	return s
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	id, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}

	snapshot, err := s.decoder.Decode(hydrate.Context{Domain: ref.Domain, Key: ref.Key}, record.payload)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("store: decode %q: %w", id, err)
	}
	return snapshot, cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	id, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("store: encode %q: %w", id, err)
	}

	s.mu.Lock()
	s.records[id] = memoryRecord{payload: payload, meta: cloneMeta(meta)}
	s.mu.Unlock()
	return cloneMeta(meta), nil
}

// Len reports how many snapshots the store currently holds.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra != nil {
		out.Extra = make(map[string]string, len(meta.Extra))
		for k, v := range meta.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

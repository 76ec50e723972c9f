package activity

import (
	"strings"
	"time"
)

// UpdateEventInput describes the common fields for update lifecycle events.
type UpdateEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	Op         string
	Path       string
	OldValue   any
	NewValue   any
	Batched    bool
	Revision   string
	OccurredAt time.Time
}

// BuildUpdateAppliedEvent constructs a normalized activity event for a single
// applied update.
func BuildUpdateAppliedEvent(input UpdateEventInput) Event {
	return buildUpdateEvent("update.applied", "state.path", input)
}

// BuildStateFlushedEvent constructs an activity event describing a container
// flush, committing pending fragments into a new revision.
func BuildStateFlushedEvent(input UpdateEventInput) Event {
	return buildUpdateEvent("state.flushed", "state", input)
}

// BuildSnapshotSavedEvent constructs an activity event describing a snapshot
// persisted to a store.
func BuildSnapshotSavedEvent(input UpdateEventInput) Event {
	return buildUpdateEvent("snapshot.saved", "snapshot", input)
}

func buildUpdateEvent(verb, objectType string, input UpdateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Op != "" {
		metadata = ensureMetadata(metadata)
		metadata["op"] = input.Op
	}
	if input.Path != "" {
		metadata = ensureMetadata(metadata)
		metadata["path"] = input.Path
	}
	if input.Batched {
		metadata = ensureMetadata(metadata)
		metadata["batched"] = true
	}
	if input.Revision != "" {
		metadata = ensureMetadata(metadata)
		metadata["revision"] = input.Revision
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Path)
	}
	if objectID == "" {
		objectID = strings.TrimSpace(input.Revision)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

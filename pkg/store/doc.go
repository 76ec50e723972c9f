// Package store defines persistence-facing contracts for loading and saving
// host state snapshots, plus helpers that orchestrate load-apply-save around
// the core update primitives.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - Mutate wraps load-modify-save with optimistic concurrency via Meta.ETag.
//   - Patch runs one shorthand update (set/push/splice) through Mutate so a
//     persisted snapshot can be edited without hand-writing the round trip.
//
// The core update package remains persistence-agnostic; all persistence logic
// stays behind Store implementations supplied by consumers. Ref.Identifier()
// provides a canonical storage key format (`domain/key`), and every saved
// revision gets a fresh Meta.RevisionID.
package store

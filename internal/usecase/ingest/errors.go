// Package ingest turns the gazette listing page into persisted tasks.
//
// One run fetches the page, extracts entries, classifies and synthesizes a
// draft per entry, drops drafts whose source is already stored and persists
// the rest. Runs are serialized within a process and are safe to repeat:
// against unchanged remote content every run after the first creates nothing.
package ingest

import "errors"

// Sentinel errors for ingest use case operations.
var (
	// ErrSnapshotFailed indicates the existing-source snapshot could not be read,
	// so no draft could be admitted safely.
	ErrSnapshotFailed = errors.New("failed to load existing task sources")

	// ErrFetchFailed wraps fetch failures. The extractor logs and swallows it.
	ErrFetchFailed = errors.New("failed to fetch gazette page")

	// ErrParseFailed wraps markup parse failures. The extractor logs and swallows it.
	ErrParseFailed = errors.New("failed to parse gazette page")
)

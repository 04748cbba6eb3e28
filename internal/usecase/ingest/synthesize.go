package ingest

import (
	"context"
	"fmt"
	"time"

	"gazette-tasks/internal/domain/entity"
)

const (
	// DeadlineOffset is added to the ingestion time to get the task deadline.
	DeadlineOffset = 7 * 24 * time.Hour
	// PreSubmissionOffset is added to the ingestion time to get the pre-submission date.
	PreSubmissionOffset = 3 * 24 * time.Hour
)

// SourceURL joins the base URL and an entry's relative URL verbatim. The
// result is the deduplication key, so it is not normalized.
func SourceURL(baseURL, relativeURL string) string {
	return baseURL + relativeURL
}

// Synthesize builds the draft for entry. Every derived timestamp comes from
// the single ingestedAt value.
func Synthesize(entry entity.GazetteEntry, baseURL string, ingestedAt time.Time) entity.TaskDraft {
	source := SourceURL(baseURL, entry.RelativeURL)
	pre := ingestedAt.Add(PreSubmissionOffset)
	return entity.TaskDraft{
		Title:                entry.Title,
		Description:          fmt.Sprintf("Gazette notice from %s. Source URL: %s", entry.PublishedDateText, source),
		Category:             Classify(entry.Title),
		Deadline:             ingestedAt.Add(DeadlineOffset),
		PreSubmissionDate:    &pre,
		Priority:             entity.PriorityMedium,
		Status:               entity.StatusPending,
		Source:               source,
		HasInfoSession:       false,
		RequiresRegistration: false,
	}
}

// SynthesizeAll maps every entry with the same ingestion time.
func SynthesizeAll(entries []entity.GazetteEntry, baseURL string, ingestedAt time.Time) []entity.TaskDraft {
	drafts := make([]entity.TaskDraft, 0, len(entries))
	for _, e := range entries {
		drafts = append(drafts, Synthesize(e, baseURL, ingestedAt))
	}
	return drafts
}

// Drafter turns one extraction into drafts. It never consults a task store.
type Drafter struct {
	extractor *Extractor
	baseURL   string
	now       func() time.Time
}

// NewDrafter creates a Drafter stamping drafts with time.Now.
func NewDrafter(extractor *Extractor, baseURL string) *Drafter {
	return &Drafter{extractor: extractor, baseURL: baseURL, now: time.Now}
}

// Drafts extracts the page and synthesizes every entry. Extraction failures
// yield an empty result.
func (d *Drafter) Drafts(ctx context.Context) []entity.TaskDraft {
	return SynthesizeAll(d.extractor.Extract(ctx), d.baseURL, d.now())
}

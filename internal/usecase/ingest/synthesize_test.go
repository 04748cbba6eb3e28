package ingest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/usecase/ingest"
)

const baseURL = "https://www.gazette.gov.mv"

func TestSynthesize(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 30, 0, 0, time.UTC)
	entry := entity.GazetteEntry{
		Title:             "Annual Budget Circular",
		RelativeURL:       "/iulaan/101",
		PublishedDateText: "12 March 2024",
	}

	d := ingest.Synthesize(entry, baseURL, now)

	assert.Equal(t, "Annual Budget Circular", d.Title)
	assert.Equal(t, "Gazette notice from 12 March 2024. Source URL: https://www.gazette.gov.mv/iulaan/101", d.Description)
	assert.Equal(t, entity.CategoryFinancial, d.Category)
	assert.Equal(t, "https://www.gazette.gov.mv/iulaan/101", d.Source)
	assert.Equal(t, entity.PriorityMedium, d.Priority)
	assert.Equal(t, entity.StatusPending, d.Status)
	assert.False(t, d.HasInfoSession)
	assert.False(t, d.RequiresRegistration)
	require.NoError(t, d.Validate())
}

func TestSynthesize_Schedule(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 9, 23, 59, 59, 999, time.UTC),
		time.Date(2024, 10, 27, 1, 30, 0, 0, time.FixedZone("MVT", 5*3600)),
	}
	for _, now := range instants {
		d := ingest.Synthesize(entity.GazetteEntry{Title: "x"}, baseURL, now)
		require.NotNil(t, d.PreSubmissionDate)

		assert.Equal(t, 7*24*time.Hour, d.Deadline.Sub(now))
		assert.Equal(t, 3*24*time.Hour, d.PreSubmissionDate.Sub(now))
		assert.Equal(t, 4*24*time.Hour, d.Deadline.Sub(*d.PreSubmissionDate))
		assert.True(t, d.PreSubmissionDate.Before(d.Deadline))
	}
}

func TestSynthesize_EmptyHrefUsesBaseURL(t *testing.T) {
	d := ingest.Synthesize(entity.GazetteEntry{Title: "Public Notice: Registration"}, baseURL, time.Now())
	assert.Equal(t, baseURL, d.Source)
	assert.Equal(t, "Gazette notice from . Source URL: https://www.gazette.gov.mv", d.Description)
}

func TestSynthesizeAll_SharedTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	drafts := ingest.SynthesizeAll([]entity.GazetteEntry{
		{Title: "a", RelativeURL: "/1"},
		{Title: "b", RelativeURL: "/2"},
	}, baseURL, now)

	require.Len(t, drafts, 2)
	assert.True(t, drafts[0].Deadline.Equal(drafts[1].Deadline))
}

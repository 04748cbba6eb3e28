package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordIngestionRun(t *testing.T) {
	before := testutil.ToFloat64(IngestionRunsTotal.WithLabelValues("empty"))
	RecordIngestionRun("empty", 120*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(IngestionRunsTotal.WithLabelValues("empty")))
}

func TestRecordTaskCreated(t *testing.T) {
	tests := []struct {
		name   string
		origin string
	}{
		{name: "ingested", origin: "ingestion"},
		{name: "manual", origin: "manual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(TasksCreatedTotal.WithLabelValues(tt.origin))
			RecordTaskCreated(tt.origin)
			assert.Equal(t, before+1, testutil.ToFloat64(TasksCreatedTotal.WithLabelValues(tt.origin)))
		})
	}
}

func TestRecordEntriesAndDuplicates(t *testing.T) {
	extracted := testutil.ToFloat64(EntriesExtractedTotal)
	dups := testutil.ToFloat64(EntriesDuplicateTotal)

	RecordEntriesExtracted(3)
	RecordDuplicates(2)

	assert.Equal(t, extracted+3, testutil.ToFloat64(EntriesExtractedTotal))
	assert.Equal(t, dups+2, testutil.ToFloat64(EntriesDuplicateTotal))
}

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(GazetteFetchTotal.WithLabelValues("http_error"))
	assert.NotPanics(t, func() {
		RecordFetch("http_error", time.Second, 0)
		RecordFetch("success", time.Second, 2048)
	})
	assert.Equal(t, before+1, testutil.ToFloat64(GazetteFetchTotal.WithLabelValues("http_error")))
}

func TestSetOnline(t *testing.T) {
	SetOnline(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(LiveViewOnline))
	SetOnline(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(LiveViewOnline))
}

func TestGauges(t *testing.T) {
	SetSubscribers(4)
	SetLiveViewTasks(12)
	UpdateDBConnectionStats(3, 7)

	assert.Equal(t, 4.0, testutil.ToFloat64(ChangefeedSubscribers))
	assert.Equal(t, 12.0, testutil.ToFloat64(LiveViewTasks))
	assert.Equal(t, 3.0, testutil.ToFloat64(DBConnectionsActive))
	assert.Equal(t, 7.0, testutil.ToFloat64(DBConnectionsIdle))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/tasks", "200"))
	RecordHTTPRequest("GET", "/tasks", "200", 5*time.Millisecond, 512)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/tasks", "200")))
}

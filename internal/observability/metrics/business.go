package metrics

import (
	"time"
)

// RecordIngestionRun records the outcome of one ingestion run.
// result is one of success, partial, fetch_failed, parse_failed or error.
func RecordIngestionRun(result string, duration time.Duration) {
	IngestionRunsTotal.WithLabelValues(result).Inc()
	IngestionDuration.Observe(duration.Seconds())
}

func RecordEntriesExtracted(count int) {
	EntriesExtractedTotal.Add(float64(count))
}

func RecordDuplicates(count int) {
	EntriesDuplicateTotal.Add(float64(count))
}

func RecordTaskCreated(origin string) {
	TasksCreatedTotal.WithLabelValues(origin).Inc()
}

func RecordPersistFailure() {
	TaskPersistFailuresTotal.Inc()
}

// RecordFetch records a publication page fetch. size is ignored for failures.
func RecordFetch(result string, duration time.Duration, size int) {
	GazetteFetchTotal.WithLabelValues(result).Inc()
	GazetteFetchDuration.Observe(duration.Seconds())
	if result == "success" {
		GazetteFetchSize.Observe(float64(size))
	}
}

func SetSubscribers(n int) {
	ChangefeedSubscribers.Set(float64(n))
}

func RecordChange(kind string) {
	ChangefeedChangesTotal.WithLabelValues(kind).Inc()
}

func SetLiveViewTasks(n int) {
	LiveViewTasks.Set(float64(n))
}

func SetOnline(online bool) {
	if online {
		LiveViewOnline.Set(1)
		return
	}
	LiveViewOnline.Set(0)
}

func RecordMutationRejected(operation, reason string) {
	MutationsRejectedTotal.WithLabelValues(operation, reason).Inc()
}

func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// Package metrics holds the Prometheus collectors of the API process and the
// helpers that record into them. Collectors live in the default registry and
// are served on /metrics.
//
//	start := time.Now()
//	n, err := svc.FetchGazetteData(ctx)
//	metrics.RecordIngestionRun(result, time.Since(start))
package metrics

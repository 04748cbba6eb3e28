// Package resilience groups the fault tolerance helpers used around the
// gazette fetch and the outbound notification calls.
//
// Only circuit breaking lives here. Failed gazette fetches and failed task
// writes are reported to the caller and never retried automatically; the next
// scheduled or manual run is the retry.
//
//	cb := circuitbreaker.New(circuitbreaker.GazetteFetchConfig())
//	body, err := circuitbreaker.Do(cb, func() ([]byte, error) {
//	    return fetch(ctx, url)
//	})
package resilience

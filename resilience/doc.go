// Package resilience provides the retry and concurrency-limiting patterns
// used by imgkit's transport and worker layers.
//
//   - Retry: re-runs an operation on a fixed backoff schedule while a
//     predicate classifies the failure as transient
//   - Bulkhead: bounds the number of concurrent calls
//
// Typical use wraps a single HTTP exchange:
//
//	resp, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*http.Response, error) {
//	    return client.Do(req)
//	})
package resilience

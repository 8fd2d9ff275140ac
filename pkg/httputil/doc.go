// Package httputil provides HTTP helpers shared by the API client.
//
// # Retry
//
// [Retry] re-runs an operation that failed with a transient error:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried. The delay doubles after
// every attempt; a RetryableError carrying a longer After (for example from a
// Retry-After header) waits that long instead:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Retry-After
//
// [ParseRetryAfter] reads the header in either of its two forms, delay in
// seconds or an HTTP date.
package httputil

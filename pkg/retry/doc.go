// Package retry provides backoff and retry logic for transient browser
// failures such as a navigation that times out or a reload that aborts
//
// Errors typed as page or timeout failures are retried; UI mismatches and
// cancelled contexts are returned immediately
//
//	cfg := retry.NewConfig(ctx, 3, time.Second, 30*time.Second, log)
//	err := retry.Do(func() error {
//		return page.Reload(ctx)
//	}, cfg)
package retry

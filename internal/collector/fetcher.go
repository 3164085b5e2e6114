package collector

import "context"

// Fetcher performs one GET against a provider and returns the raw body.
// Errors are *errs.Error values classified by kind.
type Fetcher interface {
	Fetch(ctx context.Context, provider, url string) ([]byte, error)
	Name() string
}

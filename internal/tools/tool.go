package tools

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultUserAgent is sent with plain HTTP fetches when no override is
// configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// FetchPolicy gates outbound fetches. The governance package provides the
// default implementation.
type FetchPolicy interface {
	EvaluateFetch(ctx context.Context, rawURL string) error
}

// checkFetch validates and policy-checks a URL before any network access.
func checkFetch(ctx context.Context, policy FetchPolicy, rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if policy != nil {
		if err := policy.EvaluateFetch(ctx, rawURL); err != nil {
			return nil, err
		}
	}
	return u, nil
}

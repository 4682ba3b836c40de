package tools

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

// ScraperTool fetches a webpage and extracts its main content as clean,
// sanitized text.
type ScraperTool struct {
	UserAgent string
	Policy    FetchPolicy
	client    *http.Client
}

func NewScraperTool(policy FetchPolicy) *ScraperTool {
	return &ScraperTool{
		UserAgent: DefaultUserAgent,
		Policy:    policy,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchArticle downloads the page and returns its title and readable text.
func (s *ScraperTool) FetchArticle(ctx context.Context, pageURL string) (string, string, error) {
	parsedURL, err := checkFetch(ctx, s.Policy, pageURL)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse article: %v", err)
	}

	// Strip any remaining HTML tags or scripts.
	sanitized := bluemonday.StrictPolicy().Sanitize(article.TextContent)
	return article.Title, sanitized, nil
}

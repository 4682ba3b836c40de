package agents

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/arjun/wayfarer/internal/state"
)

// DestinationResearcher profiles a destination, or recommends one when the
// query left it open, grounding the model in live web research.
type DestinationResearcher struct {
	Agent
	Search  SearchProvider
	Fetcher ArticleFetcher
}

func NewDestinationResearcher(base Agent, search SearchProvider, fetcher ArticleFetcher) *DestinationResearcher {
	return &DestinationResearcher{Agent: base, Search: search, Fetcher: fetcher}
}

func (a *DestinationResearcher) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	destination, _ := params["destination"].(string)

	var research strings.Builder
	fmt.Fprintf(&research, "Travel request: %s\n", snapshot.Query.Raw)
	if interests, ok := params["interests"].([]string); ok && len(interests) > 0 {
		fmt.Fprintf(&research, "Interests: %s\n", strings.Join(interests, ", "))
	}

	var sources []string
	if a.Search != nil {
		query := "travel guide " + destination
		if destination == "" {
			query = "destination recommendations for: " + snapshot.Query.Raw
		}
		results, err := a.Search.Search(ctx, query)
		if err != nil {
			log.Printf("Warning: destination web search failed: %v", err)
		} else {
			fmt.Fprintf(&research, "\n-- WEB SEARCH RESULTS --\n%s\n", truncate(results, 6000))
			sources = append(sources, "web search: "+query)
		}
	}
	if a.Fetcher != nil && destination != "" {
		guide := guideURL(destination)
		title, text, err := a.Fetcher.FetchArticle(ctx, guide)
		if err != nil {
			log.Printf("Warning: failed to fetch travel guide %s: %v", guide, err)
		} else {
			fmt.Fprintf(&research, "\n-- %s --\n%s\n", title, truncate(text, 8000))
			sources = append(sources, guide)
		}
	}

	var profile state.DestinationProfile
	if err := a.generateJSON(ctx, research.String(), &profile); err != nil {
		return nil, fmt.Errorf("destination research failed: %v", err)
	}
	if profile.Destination == "" {
		profile.Destination = destination
	}
	if profile.Destination == "" {
		return nil, fmt.Errorf("research produced no destination")
	}
	profile.Sources = sources
	return profile, nil
}

func guideURL(destination string) string {
	page := strings.ReplaceAll(strings.TrimSpace(destination), " ", "_")
	return "https://en.wikivoyage.org/wiki/" + url.PathEscape(page)
}

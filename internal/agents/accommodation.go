package agents

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/arjun/wayfarer/internal/state"
)

// AccommodationSearch produces lodging options for the destination.
type AccommodationSearch struct {
	Agent
	Browser RenderedFetcher

	// SearchURL is a template with a %s placeholder for the destination.
	SearchURL string
}

func NewAccommodationSearch(base Agent, browser RenderedFetcher, searchURL string) *AccommodationSearch {
	return &AccommodationSearch{Agent: base, Browser: browser, SearchURL: searchURL}
}

func (a *AccommodationSearch) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	destination, _ := params["destination"].(string)
	if destination == "" {
		return nil, fmt.Errorf("no destination to search accommodation for")
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Find accommodation options in %q", destination)
	if t := snapshot.Preferences.AccommodationType; t != "" {
		fmt.Fprintf(&prompt, " (preferred type: %s)", t)
	}
	if from, _ := params["depart_date"].(string); from != "" {
		fmt.Fprintf(&prompt, " from %s", from)
	}
	if to, _ := params["return_date"].(string); to != "" {
		fmt.Fprintf(&prompt, " to %s", to)
	}
	prompt.WriteString(".\n")

	if a.Browser != nil && a.SearchURL != "" {
		pageURL := fmt.Sprintf(a.SearchURL, url.QueryEscape(destination))
		page, err := a.Browser.FetchRendered(ctx, pageURL)
		if err != nil {
			log.Printf("Warning: accommodation results page fetch failed: %v", err)
		} else {
			fmt.Fprintf(&prompt, "\n-- SEARCH RESULTS PAGE --\n%s\n", truncate(page, 12000))
			prompt.WriteString("Extract the options from the page above.\n")
		}
	}

	var options []state.AccommodationOption
	if err := a.generateJSON(ctx, prompt.String(), &options); err != nil {
		return nil, fmt.Errorf("accommodation search failed: %v", err)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("accommodation search returned no options")
	}
	for i := range options {
		if options[i].Currency == "" {
			options[i].Currency = snapshot.Query.Currency
		}
	}
	return options, nil
}

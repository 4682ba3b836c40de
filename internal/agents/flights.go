package agents

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/arjun/wayfarer/internal/state"
)

// FlightSearch produces flight options for the requested route. When a
// rendered-page fetcher is configured it grounds the model in a live
// search-results page; otherwise the model estimates typical options.
type FlightSearch struct {
	Agent
	Browser RenderedFetcher

	// SearchURL is a template with %s placeholders for origin and
	// destination. Empty disables the live fetch.
	SearchURL string
}

func NewFlightSearch(base Agent, browser RenderedFetcher, searchURL string) *FlightSearch {
	return &FlightSearch{Agent: base, Browser: browser, SearchURL: searchURL}
}

func (a *FlightSearch) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	origin, _ := params["origin"].(string)
	destination, _ := params["destination"].(string)
	if destination == "" {
		return nil, fmt.Errorf("no destination to search flights for")
	}
	departDate, _ := params["depart_date"].(string)
	returnDate, _ := params["return_date"].(string)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Find flight options from %q to %q", origin, destination)
	if departDate != "" {
		fmt.Fprintf(&prompt, " departing %s", departDate)
	}
	if returnDate != "" {
		fmt.Fprintf(&prompt, " returning %s", returnDate)
	}
	prompt.WriteString(".\n")

	if a.Browser != nil && a.SearchURL != "" && origin != "" {
		pageURL := fmt.Sprintf(a.SearchURL, url.QueryEscape(origin), url.QueryEscape(destination))
		page, err := a.Browser.FetchRendered(ctx, pageURL)
		if err != nil {
			log.Printf("Warning: flight results page fetch failed: %v", err)
		} else {
			fmt.Fprintf(&prompt, "\n-- SEARCH RESULTS PAGE --\n%s\n", truncate(page, 12000))
			prompt.WriteString("Extract the options from the page above.\n")
		}
	}

	var options []state.FlightOption
	if err := a.generateJSON(ctx, prompt.String(), &options); err != nil {
		return nil, fmt.Errorf("flight search failed: %v", err)
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("flight search returned no options")
	}
	for i := range options {
		if options[i].Currency == "" {
			options[i].Currency = snapshot.Query.Currency
		}
	}
	return options, nil
}

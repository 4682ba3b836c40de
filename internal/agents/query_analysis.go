package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/arjun/wayfarer/internal/state"
)

// QueryAnalyzer parses the traveler's free-form request into a structured
// query, derived preferences, and a confidence score.
type QueryAnalyzer struct {
	Agent
}

func NewQueryAnalyzer(base Agent) *QueryAnalyzer {
	return &QueryAnalyzer{Agent: base}
}

type queryAnalysisReply struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DepartDate  string  `json:"depart_date"`
	ReturnDate  string  `json:"return_date"`
	Travelers   int     `json:"travelers"`
	Budget      float64 `json:"budget"`
	Currency    string  `json:"currency"`
	Preferences struct {
		TravelStyle       string   `json:"travel_style"`
		AccommodationType string   `json:"accommodation_type"`
		Interests         []string `json:"interests"`
		Pace              string   `json:"pace"`
		DietaryNeeds      []string `json:"dietary_needs"`
	} `json:"preferences"`
	Confidence float64 `json:"confidence"`
}

func (a *QueryAnalyzer) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		query = snapshot.Query.Raw
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty travel query")
	}

	var reply queryAnalysisReply
	if err := a.generateJSON(ctx, "Travel request: "+query, &reply); err != nil {
		return nil, fmt.Errorf("query analysis failed: %v", err)
	}

	qa := state.QueryAnalysis{
		Query: state.TravelQuery{
			Raw:         query,
			Origin:      reply.Origin,
			Destination: reply.Destination,
			DepartDate:  reply.DepartDate,
			ReturnDate:  reply.ReturnDate,
			Travelers:   reply.Travelers,
			Budget:      reply.Budget,
			Currency:    reply.Currency,
		},
		Preferences: state.Preferences{
			TravelStyle:       reply.Preferences.TravelStyle,
			AccommodationType: reply.Preferences.AccommodationType,
			Interests:         reply.Preferences.Interests,
			Pace:              reply.Preferences.Pace,
			DietaryNeeds:      reply.Preferences.DietaryNeeds,
		},
		Confidence: reply.Confidence,
	}
	if qa.Query.Travelers <= 0 {
		qa.Query.Travelers = 1
	}
	if qa.Query.Destination == "" && qa.Confidence > 0.5 {
		qa.Confidence = 0.5
	}
	return qa, nil
}

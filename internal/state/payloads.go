package state

// QueryAnalysis is the canonical payload of the query analysis capability.
type QueryAnalysis struct {
	Query       TravelQuery `json:"query"`
	Preferences Preferences `json:"preferences"`
	Confidence  float64     `json:"confidence"`
}

// DestinationProfile is the canonical payload of destination research.
type DestinationProfile struct {
	Destination string   `json:"destination"`
	Summary     string   `json:"summary"`
	Highlights  []string `json:"highlights,omitempty"`
	BestSeason  string   `json:"best_season,omitempty"`
	Advisories  []string `json:"advisories,omitempty"`
	Sources     []string `json:"sources,omitempty"`
}

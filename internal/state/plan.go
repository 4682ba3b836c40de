package state

// FlightOption is one flight candidate produced by the flight search capability.
type FlightOption struct {
	Airline      string  `json:"airline"`
	FlightNumber string  `json:"flight_number"`
	Depart       string  `json:"depart"`
	Arrive       string  `json:"arrive"`
	Stops        int     `json:"stops"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
}

// AccommodationOption is one lodging candidate.
type AccommodationOption struct {
	Name          string  `json:"name"`
	Kind          string  `json:"kind"` // hotel, hostel, apartment, ...
	Location      string  `json:"location"`
	PricePerNight float64 `json:"price_per_night"`
	Currency      string  `json:"currency"`
	Rating        float64 `json:"rating"`
}

// TransportOption is one way of getting around at the destination.
type TransportOption struct {
	Mode          string  `json:"mode"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// TransportationPlan covers local transportation for the whole trip.
type TransportationPlan struct {
	Summary string            `json:"summary"`
	Options []TransportOption `json:"options"`
}

// Activity is a single itinerary entry.
type Activity struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	DurationHours float64 `json:"duration_hours"`
	Cost          float64 `json:"cost"`
}

// DayPlan holds the activities scheduled for one day of the trip.
type DayPlan struct {
	Day        int        `json:"day"`
	Activities []Activity `json:"activities"`
}

// BudgetReport breaks the trip cost down against the traveler's budget.
type BudgetReport struct {
	Total     float64            `json:"total"`
	Currency  string             `json:"currency"`
	Breakdown map[string]float64 `json:"breakdown"`
	Remaining float64            `json:"remaining"`
	Notes     string             `json:"notes"`
}

// Plan is the output aggregate populated across workflow stages.
//
// Each field is written wholesale by the result merger (or a designated
// stage handler) from a single successful task outcome; a failed task
// leaves its field at the last known value and records an alert instead.
type Plan struct {
	Flights        []FlightOption        `json:"flights,omitempty"`
	Accommodation  []AccommodationOption `json:"accommodation,omitempty"`
	Transportation *TransportationPlan   `json:"transportation,omitempty"`
	Itinerary      []DayPlan             `json:"itinerary,omitempty"`
	Budget         *BudgetReport         `json:"budget,omitempty"`
	Summary        string                `json:"summary,omitempty"`
	Alerts         []string              `json:"alerts,omitempty"`
}

func (p Plan) clone() Plan {
	out := p
	out.Flights = append([]FlightOption(nil), p.Flights...)
	out.Accommodation = append([]AccommodationOption(nil), p.Accommodation...)
	out.Alerts = append([]string(nil), p.Alerts...)
	if p.Transportation != nil {
		t := *p.Transportation
		t.Options = append([]TransportOption(nil), p.Transportation.Options...)
		out.Transportation = &t
	}
	out.Itinerary = make([]DayPlan, len(p.Itinerary))
	for i, d := range p.Itinerary {
		d.Activities = append([]Activity(nil), d.Activities...)
		out.Itinerary[i] = d
	}
	if p.Budget != nil {
		b := *p.Budget
		b.Breakdown = make(map[string]float64, len(p.Budget.Breakdown))
		for k, v := range p.Budget.Breakdown {
			b.Breakdown[k] = v
		}
		out.Budget = &b
	}
	return out
}

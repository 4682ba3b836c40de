package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/arjun/wayfarer/internal/state"
)

// BudgetManager totals the plan's costs against the traveler's budget. The
// arithmetic is done here, deterministically; the model only contributes an
// advisory note and its absence never fails the capability.
type BudgetManager struct {
	Agent
}

func NewBudgetManager(base Agent) *BudgetManager {
	return &BudgetManager{Agent: base}
}

func (a *BudgetManager) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	budget, _ := params["budget"].(float64)
	currency, _ := params["currency"].(string)
	if currency == "" {
		currency = "USD"
	}

	breakdown := make(map[string]float64)
	travelers := snapshot.Query.Travelers
	if travelers <= 0 {
		travelers = 1
	}

	if f := cheapestFlight(snapshot.Plan.Flights); f != nil {
		breakdown["flights"] = f.Price * float64(travelers)
	}
	if l := cheapestLodging(snapshot.Plan.Accommodation); l != nil {
		nights := tripDays(snapshot.Query.DepartDate, snapshot.Query.ReturnDate) - 1
		if nights < 1 {
			nights = 2
		}
		breakdown["accommodation"] = l.PricePerNight * float64(nights)
	}
	if t := snapshot.Plan.Transportation; t != nil {
		var local float64
		for _, o := range t.Options {
			local += o.EstimatedCost
		}
		if local > 0 {
			breakdown["transportation"] = local
		}
	}
	var activities float64
	for _, day := range snapshot.Plan.Itinerary {
		for _, act := range day.Activities {
			activities += act.Cost * float64(travelers)
		}
	}
	if activities > 0 {
		breakdown["activities"] = activities
	}

	var total float64
	for _, v := range breakdown {
		total += v
	}

	report := state.BudgetReport{
		Total:     total,
		Currency:  currency,
		Breakdown: breakdown,
		Remaining: budget - total,
	}
	report.Notes = a.advisory(ctx, report, budget)
	return report, nil
}

func (a *BudgetManager) advisory(ctx context.Context, report state.BudgetReport, budget float64) string {
	if a.llm == nil {
		return ""
	}
	noteCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	prompt := fmt.Sprintf("Trip cost %.2f %s against a budget of %.2f %s (remaining %.2f). Breakdown: %v.",
		report.Total, report.Currency, budget, report.Currency, report.Remaining, report.Breakdown)
	note, err := a.generate(noteCtx, prompt)
	if err != nil {
		log.Printf("Warning: budget advisory unavailable: %v", err)
		return ""
	}
	return note
}

func cheapestFlight(options []state.FlightOption) *state.FlightOption {
	var best *state.FlightOption
	for i := range options {
		if best == nil || options[i].Price < best.Price {
			best = &options[i]
		}
	}
	return best
}

func cheapestLodging(options []state.AccommodationOption) *state.AccommodationOption {
	var best *state.AccommodationOption
	for i := range options {
		if best == nil || options[i].PricePerNight < best.PricePerNight {
			best = &options[i]
		}
	}
	return best
}

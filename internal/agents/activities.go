package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arjun/wayfarer/internal/state"
)

// ActivityPlanner builds a day-by-day itinerary for the trip.
type ActivityPlanner struct {
	Agent
}

func NewActivityPlanner(base Agent) *ActivityPlanner {
	return &ActivityPlanner{Agent: base}
}

func (a *ActivityPlanner) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	destination, _ := params["destination"].(string)
	if destination == "" {
		return nil, fmt.Errorf("no destination to plan activities for")
	}
	departDate, _ := params["depart_date"].(string)
	returnDate, _ := params["return_date"].(string)
	days := tripDays(departDate, returnDate)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Build a %d-day itinerary for %q.", days, destination)
	if interests, ok := params["interests"].([]string); ok && len(interests) > 0 {
		fmt.Fprintf(&prompt, " Interests: %s.", strings.Join(interests, ", "))
	}
	if pace, _ := params["pace"].(string); pace != "" {
		fmt.Fprintf(&prompt, " Pace: %s.", pace)
	}
	if len(snapshot.Preferences.DietaryNeeds) > 0 {
		fmt.Fprintf(&prompt, " Dietary needs: %s.", strings.Join(snapshot.Preferences.DietaryNeeds, ", "))
	}

	var itinerary []state.DayPlan
	if err := a.generateJSON(ctx, prompt.String(), &itinerary); err != nil {
		return nil, fmt.Errorf("activity planning failed: %v", err)
	}
	if len(itinerary) == 0 {
		return nil, fmt.Errorf("activity planning returned an empty itinerary")
	}
	return itinerary, nil
}

// tripDays derives the itinerary length from the travel dates, defaulting
// to a three-day trip when they are missing or unparseable.
func tripDays(depart, ret string) int {
	const layout = "2006-01-02"
	from, err1 := time.Parse(layout, depart)
	to, err2 := time.Parse(layout, ret)
	if err1 != nil || err2 != nil {
		return 3
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		return 3
	}
	if days > 14 {
		return 14
	}
	return days
}

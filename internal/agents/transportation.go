package agents

import (
	"context"
	"fmt"

	"github.com/arjun/wayfarer/internal/state"
)

// TransportationPlanner plans how to get around at the destination.
type TransportationPlanner struct {
	Agent
}

func NewTransportationPlanner(base Agent) *TransportationPlanner {
	return &TransportationPlanner{Agent: base}
}

func (a *TransportationPlanner) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	destination, _ := params["destination"].(string)
	if destination == "" {
		return nil, fmt.Errorf("no destination to plan transportation for")
	}

	prompt := fmt.Sprintf("Plan local transportation for a trip to %q.", destination)
	if pace := snapshot.Preferences.Pace; pace != "" {
		prompt += fmt.Sprintf(" The traveler prefers a %s pace.", pace)
	}

	var plan state.TransportationPlan
	if err := a.generateJSON(ctx, prompt, &plan); err != nil {
		return nil, fmt.Errorf("transportation planning failed: %v", err)
	}
	if plan.Summary == "" && len(plan.Options) == 0 {
		return nil, fmt.Errorf("transportation planning returned an empty plan")
	}
	return plan, nil
}

package workflow

import (
	"fmt"

	"github.com/arjun/wayfarer/internal/state"
)

// Merger deterministically folds a batch of task outcomes into the plan
// aggregate. Outcomes are applied in canonical kind order, never in
// completion order: a success overwrites its plan field wholesale, a
// failure records an alert and leaves the field at its last known value.
type Merger struct {
	// Next is the stage the workflow advances to after folding. The
	// advance is unconditional; the plan proceeds with partial data and
	// alerts rather than aborting.
	Next state.Stage

	// MinSuccesses escalates the batch to a stage-level failure when
	// fewer tasks succeed. Zero means one.
	MinSuccesses int
}

// Combine folds outcomes into a copy of s and advances the stage.
func (m Merger) Combine(s state.PlanningState, outcomes map[TaskKind]TaskOutcome) state.PlanningState {
	out := s.Clone()

	successes := 0
	for _, kind := range KindOrder {
		o, ok := outcomes[kind]
		if !ok {
			continue
		}
		if !o.Succeeded() {
			out.AddAlert(fmt.Sprintf("%s: %s", kind, o.Err))
			continue
		}
		if err := applyPayload(&out.Plan, kind, o.Payload); err != nil {
			out.AddAlert(fmt.Sprintf("%s: %v", kind, err))
			continue
		}
		out.AddTaskResult(string(kind), o.Payload)
		successes++
	}

	out.UpdateStage(m.Next)

	min := m.MinSuccesses
	if min <= 0 {
		min = 1
	}
	if successes < min {
		out.SetFailure(m.Next, fmt.Sprintf("%d of %d tasks succeeded, need %d", successes, len(outcomes), min), false)
	}
	return out
}

// applyPayload writes one successful outcome into its plan field. Each kind
// has exactly one canonical payload schema; anything else is rejected so a
// capability cannot smuggle a malformed result past the merge.
func applyPayload(p *state.Plan, kind TaskKind, payload any) error {
	switch kind {
	case KindFlights:
		v, ok := payload.([]state.FlightOption)
		if !ok {
			return payloadError(payload)
		}
		p.Flights = v
	case KindAccommodation:
		v, ok := payload.([]state.AccommodationOption)
		if !ok {
			return payloadError(payload)
		}
		p.Accommodation = v
	case KindTransportation:
		v, ok := payload.(state.TransportationPlan)
		if !ok {
			return payloadError(payload)
		}
		p.Transportation = &v
	case KindActivities:
		v, ok := payload.([]state.DayPlan)
		if !ok {
			return payloadError(payload)
		}
		p.Itinerary = v
	case KindBudget:
		v, ok := payload.(state.BudgetReport)
		if !ok {
			return payloadError(payload)
		}
		p.Budget = &v
	default:
		return fmt.Errorf("unknown task kind %q", kind)
	}
	return nil
}

func payloadError(payload any) error {
	return fmt.Errorf("unexpected payload type %T", payload)
}

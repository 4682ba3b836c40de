package workflow

import (
	"reflect"
	"testing"

	"github.com/arjun/wayfarer/internal/state"
)

func TestMergerPartialFailure(t *testing.T) {
	s := state.New("test")
	s.Query.Destination = "Lisbon"
	s.UpdateStage(state.StageQueryAnalyzed)

	outcomes := map[TaskKind]TaskOutcome{
		KindFlights:        {Kind: KindFlights, Payload: []state.FlightOption{{Airline: "TAP", Price: 120}}},
		KindAccommodation:  {Kind: KindAccommodation, Err: "rate-limited"},
		KindTransportation: {Kind: KindTransportation, Payload: state.TransportationPlan{Summary: "metro"}},
	}

	out := Merger{Next: state.StageParallelSearchCompleted}.Combine(s, outcomes)

	if out.CurrentStage != state.StageParallelSearchCompleted {
		t.Errorf("stage = %q, want advance despite the failed task", out.CurrentStage)
	}
	if out.Failure != nil {
		t.Errorf("failure = %+v, want none with two successes", out.Failure)
	}
	if len(out.Plan.Flights) != 1 || out.Plan.Flights[0].Airline != "TAP" {
		t.Errorf("flights = %+v", out.Plan.Flights)
	}
	if out.Plan.Accommodation != nil {
		t.Errorf("accommodation = %+v, want untouched", out.Plan.Accommodation)
	}
	if out.Plan.Transportation == nil || out.Plan.Transportation.Summary != "metro" {
		t.Errorf("transportation = %+v", out.Plan.Transportation)
	}
	if want := []string{"accommodation: rate-limited"}; !reflect.DeepEqual(out.Plan.Alerts, want) {
		t.Errorf("alerts = %v, want %v", out.Plan.Alerts, want)
	}
	// The caller's state stays untouched.
	if s.CurrentStage != state.StageQueryAnalyzed || len(s.Plan.Flights) != 0 {
		t.Error("Combine mutated its input state")
	}
}

func TestMergerDeterministicOrder(t *testing.T) {
	s := state.New("test")
	outcomes := map[TaskKind]TaskOutcome{
		KindBudget:         {Kind: KindBudget, Err: "provider down"},
		KindActivities:     {Kind: KindActivities, Err: "provider down"},
		KindFlights:        {Kind: KindFlights, Err: "provider down"},
		KindAccommodation:  {Kind: KindAccommodation, Payload: []state.AccommodationOption{{Name: "Casa"}}},
		KindTransportation: {Kind: KindTransportation, Err: "provider down"},
	}

	m := Merger{Next: state.StageParallelSearchCompleted}
	first := m.Combine(s, outcomes)
	// Alerts must come out in canonical kind order regardless of map
	// iteration, so repeated merges agree.
	want := []string{
		"flights: provider down",
		"transportation: provider down",
		"activities: provider down",
		"budget: provider down",
	}
	if !reflect.DeepEqual(first.Plan.Alerts, want) {
		t.Fatalf("alerts = %v, want %v", first.Plan.Alerts, want)
	}
	for i := 0; i < 10; i++ {
		again := m.Combine(s, outcomes)
		if !reflect.DeepEqual(again.Plan.Alerts, first.Plan.Alerts) {
			t.Fatalf("merge order varied across runs: %v vs %v", again.Plan.Alerts, first.Plan.Alerts)
		}
	}
}

func TestMergerZeroSuccessEscalates(t *testing.T) {
	s := state.New("test")
	outcomes := map[TaskKind]TaskOutcome{
		KindFlights:       {Kind: KindFlights, Err: "timeout"},
		KindAccommodation: {Kind: KindAccommodation, Err: "timeout"},
	}

	out := Merger{Next: state.StageParallelSearchCompleted}.Combine(s, outcomes)
	if out.CurrentStage != state.StageParallelSearchCompleted {
		t.Errorf("stage = %q, the advance is unconditional", out.CurrentStage)
	}
	if out.Failure == nil {
		t.Fatal("expected a stage-level failure with zero successes")
	}
	if out.Failure.Stage != state.StageParallelSearchCompleted {
		t.Errorf("failure stage = %q", out.Failure.Stage)
	}
	if out.Failure.Invalid {
		t.Error("batch failure must stay recoverable")
	}
}

func TestMergerMinSuccesses(t *testing.T) {
	s := state.New("test")
	outcomes := map[TaskKind]TaskOutcome{
		KindFlights:       {Kind: KindFlights, Payload: []state.FlightOption{}},
		KindAccommodation: {Kind: KindAccommodation, Err: "timeout"},
	}

	out := Merger{Next: state.StageParallelSearchCompleted, MinSuccesses: 2}.Combine(s, outcomes)
	if out.Failure == nil {
		t.Error("expected escalation below the success threshold")
	}

	out = Merger{Next: state.StageParallelSearchCompleted, MinSuccesses: 1}.Combine(s, outcomes)
	if out.Failure != nil {
		t.Errorf("failure = %+v, want none at the threshold", out.Failure)
	}
}

func TestMergerRejectsMismatchedPayload(t *testing.T) {
	s := state.New("test")
	outcomes := map[TaskKind]TaskOutcome{
		KindFlights: {Kind: KindFlights, Payload: "not a flight list"},
		KindBudget:  {Kind: KindBudget, Payload: state.BudgetReport{Total: 900, Currency: "EUR"}},
	}

	out := Merger{Next: state.StageBudgetManaged}.Combine(s, outcomes)
	if len(out.Plan.Flights) != 0 {
		t.Errorf("flights = %+v, mismatched payload applied", out.Plan.Flights)
	}
	if len(out.Plan.Alerts) != 1 {
		t.Fatalf("alerts = %v, want one mismatch alert", out.Plan.Alerts)
	}
	if out.Plan.Budget == nil || out.Plan.Budget.Total != 900 {
		t.Errorf("budget = %+v", out.Plan.Budget)
	}
	if _, ok := out.TaskResults[string(KindFlights)]; ok {
		t.Error("mismatched payload recorded as a task result")
	}
}

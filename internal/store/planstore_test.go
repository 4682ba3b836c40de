package store

import (
	"path/filepath"
	"testing"

	"github.com/arjun/wayfarer/internal/state"
)

func testStore(t *testing.T) *PlanStore {
	t.Helper()
	s, err := NewPlanStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewPlanStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPlanCRUD(t *testing.T) {
	s := testStore(t)

	plan := state.Plan{
		Flights: []state.FlightOption{{Airline: "TAP", Price: 320, Currency: "EUR"}},
		Budget:  &state.BudgetReport{Total: 820, Currency: "EUR"},
		Summary: "Trip to Lisbon",
		Alerts:  []string{"accommodation: rate-limited"},
	}
	id, err := s.SavePlan("Lisbon", "complete", plan)
	if err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}

	rec, err := s.GetPlan(id)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if rec.Destination != "Lisbon" || rec.Status != "complete" {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Plan.Flights) != 1 || rec.Plan.Flights[0].Airline != "TAP" {
		t.Errorf("plan payload = %+v", rec.Plan)
	}
	if rec.Plan.Budget == nil || rec.Plan.Budget.Total != 820 {
		t.Errorf("budget payload = %+v", rec.Plan.Budget)
	}

	plan.Summary = "Trip to Lisbon, revised"
	if err := s.UpdatePlan(id, "failed", plan); err != nil {
		t.Fatalf("UpdatePlan failed: %v", err)
	}
	rec, err = s.GetPlan(id)
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if rec.Status != "failed" || rec.Plan.Summary != "Trip to Lisbon, revised" {
		t.Errorf("updated record = %+v", rec)
	}

	if err := s.DeletePlan(id); err != nil {
		t.Fatalf("DeletePlan failed: %v", err)
	}
	if _, err := s.GetPlan(id); err == nil {
		t.Error("expected error for deleted plan")
	}
	if err := s.DeletePlan(id); err == nil {
		t.Error("expected error deleting a missing plan")
	}
	if err := s.UpdatePlan("missing", "x", plan); err == nil {
		t.Error("expected error updating a missing plan")
	}
}

func TestListPlansFiltered(t *testing.T) {
	s := testStore(t)

	if _, err := s.SavePlan("Lisbon", "complete", state.Plan{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePlan("Lisbon", "failed", state.Plan{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePlan("Kyoto", "complete", state.Plan{}); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListPlans(PlanFilter{})
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d plans, want 3", len(all))
	}

	lisbon, err := s.ListPlans(PlanFilter{Destination: "Lisbon"})
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(lisbon) != 2 {
		t.Errorf("got %d Lisbon plans, want 2", len(lisbon))
	}

	done, err := s.ListPlans(PlanFilter{Destination: "Lisbon", Status: "complete"})
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(done) != 1 {
		t.Errorf("got %d complete Lisbon plans, want 1", len(done))
	}

	limited, err := s.ListPlans(PlanFilter{Limit: 2})
	if err != nil {
		t.Fatalf("ListPlans failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d plans with limit 2", len(limited))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)

	st := state.New("somewhere warm")
	st.Query.Destination = "Lisbon"
	st.ResumeStage = state.StageQueryAnalyzed
	st.UpdateStage(state.StageInterrupted)
	st.HumanRequest = &state.HumanRequest{Prompt: "which dates?", Field: "dates"}
	st.RecordMessage("system", "awaiting external input")

	id, err := s.SaveSnapshot(st)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, err := s.GetSnapshot(id)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if got.CurrentStage != state.StageInterrupted || got.ResumeStage != state.StageQueryAnalyzed {
		t.Errorf("snapshot stages = %q/%q", got.CurrentStage, got.ResumeStage)
	}
	if got.HumanRequest == nil || got.HumanRequest.Field != "dates" {
		t.Errorf("snapshot request = %+v", got.HumanRequest)
	}
	if len(got.History) != 1 {
		t.Errorf("snapshot history = %+v", got.History)
	}

	if err := s.DeleteSnapshot(id); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if _, err := s.GetSnapshot(id); err == nil {
		t.Error("expected error for deleted snapshot")
	}
}

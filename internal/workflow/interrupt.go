package workflow

import (
	"context"
	"log"

	"github.com/arjun/wayfarer/internal/observability"
	"github.com/arjun/wayfarer/internal/state"
)

// SnapshotStore persists the state of a suspended run so it can be resumed
// later, possibly from another process.
type SnapshotStore interface {
	SaveSnapshot(s state.PlanningState) (string, error)
}

// Interruptions detects the need for external human input and suspends the
// workflow without blocking a worker: the run returns to the caller in the
// Interrupted stage carrying the question and a recorded resume target.
type Interruptions struct {
	// ConfidenceThreshold suspends the run when the analyzer's query
	// confidence falls below it. Zero disables the confidence check.
	ConfidenceThreshold float64

	// Snapshots, when set, receives a copy of the suspended state.
	Snapshots SnapshotStore

	// Log, when set, receives an interruption event per suspension.
	Log *observability.Logger
}

// Needed is the predicate the graph evaluates after every node.
func (i Interruptions) Needed(s state.PlanningState) bool {
	if s.CurrentStage.Terminal() || s.CurrentStage == state.StageInterrupted {
		return false
	}
	if s.HumanRequest != nil {
		return true
	}
	return i.ConfidenceThreshold > 0 && s.Confidence < i.ConfidenceThreshold
}

// Suspend is the interruption node's handler. It records the current stage
// as the resume target, parks the workflow in the Interrupted stage, and
// snapshots the state for external persistence.
func (i Interruptions) Suspend(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	out := s
	if out.HumanRequest == nil {
		out.HumanRequest = &state.HumanRequest{
			Prompt: "I could not confidently determine the destination. Where would you like to travel?",
			Field:  "destination",
		}
	}
	out.ResumeStage = out.CurrentStage
	out.RecordMessage("system", "awaiting external input: "+out.HumanRequest.Prompt)
	out.UpdateStage(state.StageInterrupted)
	if i.Log != nil {
		i.Log.LogInterrupt(string(out.ResumeStage), out.HumanRequest.Prompt)
	}

	if i.Snapshots != nil {
		id, err := i.Snapshots.SaveSnapshot(out.Clone())
		if err != nil {
			log.Printf("failed to persist interruption snapshot: %v", err)
		} else {
			out.AddTaskResult("interruption_snapshot", id)
		}
	}
	return out, nil
}

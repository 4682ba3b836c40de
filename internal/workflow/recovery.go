package workflow

import (
	"github.com/arjun/wayfarer/internal/state"
)

// Decision is the outcome of classifying a stage-level failure.
type Decision struct {
	Recoverable bool
	Resume      state.Stage
}

// Recovery classifies stage failures into bounded retry or terminal error.
// Capability-origin failures are recoverable, resuming at the stage that
// produced them, until the per-stage attempt counter reaches MaxAttempts.
// Structural state failures are always unrecoverable.
type Recovery struct {
	// MaxAttempts is the per-stage retry bound. Zero means three.
	MaxAttempts int
}

// Classify decides whether the recorded failure warrants a replay. The
// attempt counter in s is expected to already include the failure being
// classified.
func (r Recovery) Classify(s state.PlanningState, f state.Failure) Decision {
	if f.Invalid || !f.Stage.Valid() {
		return Decision{}
	}
	max := r.MaxAttempts
	if max <= 0 {
		max = 3
	}
	if s.Attempts[f.Stage] >= max {
		return Decision{}
	}
	return Decision{Recoverable: true, Resume: f.Stage}
}

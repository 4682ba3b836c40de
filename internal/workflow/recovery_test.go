package workflow

import (
	"testing"

	"github.com/arjun/wayfarer/internal/state"
)

func TestRecoveryBoundedRetries(t *testing.T) {
	r := Recovery{MaxAttempts: 3}
	s := state.New("test")
	f := state.Failure{Stage: state.StageParallelSearchCompleted, Reason: "timeout"}

	// The counter includes the failure being classified: attempts 1 and 2
	// replay, the third attempt is final.
	for attempt := 1; attempt <= 3; attempt++ {
		s.Attempts[f.Stage] = attempt
		d := r.Classify(s, f)
		wantRecoverable := attempt < 3
		if d.Recoverable != wantRecoverable {
			t.Errorf("attempt %d: recoverable = %v, want %v", attempt, d.Recoverable, wantRecoverable)
		}
		if wantRecoverable && d.Resume != f.Stage {
			t.Errorf("attempt %d: resume = %q, want %q", attempt, d.Resume, f.Stage)
		}
	}
}

func TestRecoveryDefaultsToThreeAttempts(t *testing.T) {
	r := Recovery{}
	s := state.New("test")
	f := state.Failure{Stage: state.StageQueryAnalyzed, Reason: "timeout"}

	s.Attempts[f.Stage] = 2
	if d := r.Classify(s, f); !d.Recoverable {
		t.Error("second attempt should replay under the default bound")
	}
	s.Attempts[f.Stage] = 3
	if d := r.Classify(s, f); d.Recoverable {
		t.Error("third attempt should be final under the default bound")
	}
}

func TestRecoveryInvalidStateUnrecoverable(t *testing.T) {
	r := Recovery{MaxAttempts: 3}
	s := state.New("test")

	// Structural failures never replay even on the first attempt.
	f := state.Failure{Stage: state.StageQueryAnalyzed, Reason: "empty query", Invalid: true}
	s.Attempts[f.Stage] = 1
	if d := r.Classify(s, f); d.Recoverable {
		t.Error("invalid-state failure classified as recoverable")
	}

	// A failure attributed to an undefined stage has no replay target.
	bogus := state.Failure{Stage: "bogus", Reason: "lost"}
	if d := r.Classify(s, bogus); d.Recoverable {
		t.Error("undefined-stage failure classified as recoverable")
	}
}

func TestRecoveryAttemptsArePerStage(t *testing.T) {
	r := Recovery{MaxAttempts: 3}
	s := state.New("test")
	s.Attempts[state.StageParallelSearchCompleted] = 3

	f := state.Failure{Stage: state.StageActivitiesPlanned, Reason: "timeout"}
	s.Attempts[f.Stage] = 1
	if d := r.Classify(s, f); !d.Recoverable {
		t.Error("exhausted counter on another stage blocked this stage's retry")
	}
}

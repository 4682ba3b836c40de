package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arjun/wayfarer/internal/state"
)

// TaskKind categorizes one unit of concurrent planning work.
type TaskKind string

const (
	KindFlights        TaskKind = "flights"
	KindAccommodation  TaskKind = "accommodation"
	KindTransportation TaskKind = "transportation"
	KindActivities     TaskKind = "activities"
	KindBudget         TaskKind = "budget"
)

// KindOrder is the canonical total order over task kinds. The merger folds
// outcomes in this order so results are identical regardless of which task
// finished first.
var KindOrder = []TaskKind{KindFlights, KindAccommodation, KindTransportation, KindActivities, KindBudget}

// Capability is an external provider that computes one task's answer.
// Implementations honor ctx deadlines and return their domain payload, or
// an error describing the failure.
type Capability interface {
	Name() string
	Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error)
}

// TaskSpec is one concurrent branch member: a capability, its parameters,
// and an optional per-task deadline.
type TaskSpec struct {
	Kind       TaskKind
	Capability Capability
	Params     map[string]any
	Timeout    time.Duration
}

// TaskOutcome is the success-or-failure result of one task.
type TaskOutcome struct {
	Kind    TaskKind
	Payload any
	Err     string
}

// Succeeded reports whether the task produced a payload.
func (o TaskOutcome) Succeeded() bool {
	return o.Err == ""
}

// Coordinator fans independent tasks out over goroutines and joins them at
// a barrier, returning exactly one outcome per submitted kind. A failing or
// panicking task never cancels its siblings; an expired deadline concludes
// the task as Failure("timeout") without blocking the barrier on the hung
// capability.
type Coordinator struct {
	// MaxParallel bounds concurrently running tasks. Zero or negative
	// means no bound beyond the task count.
	MaxParallel int
}

// Execute runs all tasks concurrently against their own immutable snapshot
// of the planning state. It fails only on a structurally invalid task set;
// individual capability faults are converted into failed outcomes.
func (c *Coordinator) Execute(ctx context.Context, tasks []TaskSpec, snapshot state.PlanningState) (map[TaskKind]TaskOutcome, error) {
	if len(tasks) == 0 {
		return nil, errors.New("no tasks submitted")
	}
	seen := make(map[TaskKind]bool, len(tasks))
	for _, t := range tasks {
		if t.Kind == "" {
			return nil, errors.New("task with empty kind")
		}
		if t.Capability == nil {
			return nil, fmt.Errorf("task %s has no capability", t.Kind)
		}
		if seen[t.Kind] {
			return nil, fmt.Errorf("duplicate task kind %s", t.Kind)
		}
		seen[t.Kind] = true
	}

	limit := c.MaxParallel
	if limit <= 0 {
		limit = len(tasks)
	}
	sem := make(chan struct{}, limit)
	outcomes := make([]TaskOutcome, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t TaskSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = runTask(ctx, t, snapshot.Clone())
		}(i, t)
	}
	wg.Wait()

	out := make(map[TaskKind]TaskOutcome, len(tasks))
	for _, o := range outcomes {
		out[o.Kind] = o
	}
	return out, nil
}

// runTask invokes one capability with panic isolation and the task's
// deadline. The capability runs in its own goroutine so a deadline expiry
// returns immediately even if the capability never does.
func runTask(ctx context.Context, t TaskSpec, snapshot state.PlanningState) TaskOutcome {
	taskCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	done := make(chan TaskOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- TaskOutcome{Kind: t.Kind, Err: fmt.Sprintf("panic: %v", r)}
			}
		}()
		payload, err := t.Capability.Execute(taskCtx, t.Params, snapshot)
		if err != nil {
			done <- TaskOutcome{Kind: t.Kind, Err: err.Error()}
			return
		}
		done <- TaskOutcome{Kind: t.Kind, Payload: payload}
	}()

	select {
	case o := <-done:
		return o
	case <-taskCtx.Done():
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return TaskOutcome{Kind: t.Kind, Err: "timeout"}
		}
		return TaskOutcome{Kind: t.Kind, Err: taskCtx.Err().Error()}
	}
}

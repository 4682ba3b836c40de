package workflow

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arjun/wayfarer/internal/state"
)

var errRateLimited = errors.New("rate-limited")

// fakeCapability is the stand-in provider used across the workflow tests.
type fakeCapability struct {
	name string
	fn   func(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error)
}

func (f *fakeCapability) Name() string {
	return f.name
}

func (f *fakeCapability) Execute(ctx context.Context, params map[string]any, snapshot state.PlanningState) (any, error) {
	return f.fn(ctx, params, snapshot)
}

func succeedWith(payload any) *fakeCapability {
	return &fakeCapability{name: "ok", fn: func(context.Context, map[string]any, state.PlanningState) (any, error) {
		return payload, nil
	}}
}

func failWith(err error) *fakeCapability {
	return &fakeCapability{name: "fail", fn: func(context.Context, map[string]any, state.PlanningState) (any, error) {
		return nil, err
	}}
}

func TestCoordinatorOneOutcomePerTask(t *testing.T) {
	c := &Coordinator{}
	tasks := []TaskSpec{
		{Kind: KindFlights, Capability: succeedWith([]state.FlightOption{{Airline: "TAP"}})},
		{Kind: KindAccommodation, Capability: failWith(errRateLimited)},
		{Kind: KindTransportation, Capability: &fakeCapability{name: "boom", fn: func(context.Context, map[string]any, state.PlanningState) (any, error) {
			panic("transport provider exploded")
		}}},
	}

	outcomes, err := c.Execute(context.Background(), tasks, state.New("test"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if o := outcomes[KindFlights]; !o.Succeeded() {
		t.Errorf("flights outcome failed: %s", o.Err)
	}
	if o := outcomes[KindAccommodation]; o.Succeeded() || o.Err != "rate-limited" {
		t.Errorf("accommodation outcome = %+v, want rate-limited failure", o)
	}
	// A panicking task becomes a failed outcome without taking down
	// its siblings.
	if o := outcomes[KindTransportation]; o.Succeeded() || !strings.Contains(o.Err, "panic: transport provider exploded") {
		t.Errorf("transportation outcome = %+v, want panic failure", o)
	}
}

func TestCoordinatorTimeout(t *testing.T) {
	hung := &fakeCapability{name: "hung", fn: func(ctx context.Context, _ map[string]any, _ state.PlanningState) (any, error) {
		<-ctx.Done()
		time.Sleep(5 * time.Second)
		return nil, ctx.Err()
	}}
	c := &Coordinator{}
	tasks := []TaskSpec{
		{Kind: KindFlights, Capability: succeedWith([]state.FlightOption{})},
		{Kind: KindAccommodation, Capability: hung, Timeout: 20 * time.Millisecond},
	}

	start := time.Now()
	outcomes, err := c.Execute(context.Background(), tasks, state.New("test"))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	// The barrier must not wait for the hung capability to return.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Execute blocked %v on a hung task", elapsed)
	}
	if o := outcomes[KindAccommodation]; o.Err != "timeout" {
		t.Errorf("hung task outcome = %+v, want timeout failure", o)
	}
	if o := outcomes[KindFlights]; !o.Succeeded() {
		t.Errorf("sibling outcome failed: %s", o.Err)
	}
}

func TestCoordinatorValidation(t *testing.T) {
	c := &Coordinator{}
	snapshot := state.New("test")

	if _, err := c.Execute(context.Background(), nil, snapshot); err == nil {
		t.Error("expected error for empty task set")
	}
	if _, err := c.Execute(context.Background(), []TaskSpec{{Capability: succeedWith(nil)}}, snapshot); err == nil {
		t.Error("expected error for empty task kind")
	}
	if _, err := c.Execute(context.Background(), []TaskSpec{{Kind: KindFlights}}, snapshot); err == nil {
		t.Error("expected error for nil capability")
	}
	dup := []TaskSpec{
		{Kind: KindFlights, Capability: succeedWith(nil)},
		{Kind: KindFlights, Capability: succeedWith(nil)},
	}
	if _, err := c.Execute(context.Background(), dup, snapshot); err == nil {
		t.Error("expected error for duplicate task kind")
	}
}

func TestCoordinatorBoundsParallelism(t *testing.T) {
	var running, peak int32
	counting := &fakeCapability{name: "counting", fn: func(context.Context, map[string]any, state.PlanningState) (any, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil, nil
	}}

	c := &Coordinator{MaxParallel: 2}
	tasks := make([]TaskSpec, 0, len(KindOrder))
	for _, kind := range KindOrder {
		tasks = append(tasks, TaskSpec{Kind: kind, Capability: counting})
	}
	if _, err := c.Execute(context.Background(), tasks, state.New("test")); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak parallelism = %d, want <= 2", p)
	}
}

func TestCoordinatorSnapshotIsolation(t *testing.T) {
	mutator := &fakeCapability{name: "mutator", fn: func(_ context.Context, _ map[string]any, snapshot state.PlanningState) (any, error) {
		snapshot.TaskResults["stolen"] = true
		snapshot.Plan.Alerts = append(snapshot.Plan.Alerts, "side effect")
		return nil, nil
	}}

	s := state.New("test")
	s.Plan.Alerts = []string{"pre-existing"}
	c := &Coordinator{}
	if _, err := c.Execute(context.Background(), []TaskSpec{{Kind: KindFlights, Capability: mutator}}, s); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if _, ok := s.TaskResults["stolen"]; ok {
		t.Error("task mutated the caller's task results")
	}
	if len(s.Plan.Alerts) != 1 {
		t.Errorf("alerts = %v, task mutated the caller's plan", s.Plan.Alerts)
	}
}

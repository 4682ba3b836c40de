package workflow

import (
	"context"
	"fmt"

	"github.com/arjun/wayfarer/internal/state"
)

func (p *Planner) analyzeQuery(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	if err := s.ValidateFor(state.StageQueryAnalyzed); err != nil {
		return s, err
	}
	payload, err := p.invoke(ctx, p.caps.QueryAnalysis, map[string]any{"query": s.Query.Raw}, s)
	if err != nil {
		return s, err
	}
	qa, ok := payload.(state.QueryAnalysis)
	if !ok {
		return s, fmt.Errorf("query analysis: unexpected payload type %T", payload)
	}

	out := s
	raw := out.Query.Raw
	out.Query = qa.Query
	out.Query.Raw = raw
	out.Preferences = qa.Preferences
	out.Confidence = qa.Confidence
	if out.Query.Budget == 0 {
		out.Query.Budget = p.opts.DefaultBudget
	}
	if out.Query.Currency == "" {
		out.Query.Currency = p.opts.DefaultCurrency
	}
	out.AddTaskResult("query_analysis", qa)
	if out.Query.Destination != "" {
		out.RecordMessage("system", "Query analyzed: "+out.Query.Destination)
	} else {
		out.RecordMessage("system", "Query analyzed: destination research needed")
	}
	out.UpdateStage(state.StageQueryAnalyzed)
	return out, nil
}

// researchNeeded decides whether the analyzed query still needs a
// destination before searches can run.
func (p *Planner) researchNeeded(s state.PlanningState) string {
	if s.Query.Destination == "" {
		return "research"
	}
	return "search"
}

func (p *Planner) researchDestination(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	if err := s.ValidateFor(state.StageDestinationResearched); err != nil {
		return s, err
	}
	params := map[string]any{
		"destination": s.Query.Destination,
		"interests":   s.Preferences.Interests,
	}
	payload, err := p.invoke(ctx, p.caps.DestinationResearch, params, s)
	if err != nil {
		return s, err
	}
	profile, ok := payload.(state.DestinationProfile)
	if !ok {
		return s, fmt.Errorf("destination research: unexpected payload type %T", payload)
	}

	out := s
	if out.Query.Destination == "" {
		out.Query.Destination = profile.Destination
	}
	out.AddTaskResult("destination_research", profile)
	out.RecordMessage("system", "Destination researched: "+profile.Destination)
	out.UpdateStage(state.StageDestinationResearched)
	return out, nil
}

func (p *Planner) parallelSearch(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	if err := s.ValidateFor(state.StageParallelSearchCompleted); err != nil {
		return s, err
	}
	query := map[string]any{
		"origin":      s.Query.Origin,
		"destination": s.Query.Destination,
		"depart_date": s.Query.DepartDate,
		"return_date": s.Query.ReturnDate,
		"travelers":   s.Query.Travelers,
	}
	tasks := []TaskSpec{
		{Kind: KindFlights, Capability: p.caps.Flights, Params: query, Timeout: p.opts.TaskTimeout},
		{Kind: KindAccommodation, Capability: p.caps.Accommodation, Params: query, Timeout: p.opts.TaskTimeout},
		{Kind: KindTransportation, Capability: p.caps.Transportation, Params: query, Timeout: p.opts.TaskTimeout},
	}

	outcomes, err := p.coordinator.Execute(ctx, tasks, s)
	if err != nil {
		return s, err
	}
	p.logBatch(state.StageParallelSearchCompleted, outcomes)
	out := Merger{Next: state.StageParallelSearchCompleted, MinSuccesses: p.opts.MinSuccesses}.Combine(s, outcomes)
	out.RecordMessage("system", fmt.Sprintf(
		"Completed parallel search: %d flights, %d accommodations, %d transportation options",
		len(out.Plan.Flights), len(out.Plan.Accommodation), transportCount(out.Plan)))
	return out, nil
}

func transportCount(p state.Plan) int {
	if p.Transportation == nil {
		return 0
	}
	return len(p.Transportation.Options)
}

// planActivities and manageBudget run their single capability through the
// same coordinator and merger as the search batch, so deadline conversion,
// panic isolation, and zero-success escalation behave identically.
func (p *Planner) planActivities(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	if err := s.ValidateFor(state.StageActivitiesPlanned); err != nil {
		return s, err
	}
	params := map[string]any{
		"destination": s.Query.Destination,
		"interests":   s.Preferences.Interests,
		"pace":        s.Preferences.Pace,
		"depart_date": s.Query.DepartDate,
		"return_date": s.Query.ReturnDate,
	}
	tasks := []TaskSpec{{Kind: KindActivities, Capability: p.caps.Activities, Params: params, Timeout: p.opts.TaskTimeout}}
	outcomes, err := p.coordinator.Execute(ctx, tasks, s)
	if err != nil {
		return s, err
	}
	p.logBatch(state.StageActivitiesPlanned, outcomes)
	out := Merger{Next: state.StageActivitiesPlanned}.Combine(s, outcomes)
	if out.Failure == nil {
		out.RecordMessage("system", fmt.Sprintf("Planned %d itinerary days", len(out.Plan.Itinerary)))
	}
	return out, nil
}

func (p *Planner) manageBudget(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	if err := s.ValidateFor(state.StageBudgetManaged); err != nil {
		return s, err
	}
	params := map[string]any{
		"budget":   s.Query.Budget,
		"currency": s.Query.Currency,
	}
	tasks := []TaskSpec{{Kind: KindBudget, Capability: p.caps.Budget, Params: params, Timeout: p.opts.TaskTimeout}}
	outcomes, err := p.coordinator.Execute(ctx, tasks, s)
	if err != nil {
		return s, err
	}
	p.logBatch(state.StageBudgetManaged, outcomes)
	out := Merger{Next: state.StageBudgetManaged}.Combine(s, outcomes)
	if out.Plan.Budget != nil {
		out.RecordMessage("system", fmt.Sprintf("Budget managed: %.2f %s total", out.Plan.Budget.Total, out.Plan.Budget.Currency))
	}
	return out, nil
}

func (p *Planner) generateFinalPlan(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	out := s
	out.Plan.Summary = summarize(out)
	out.RecordMessage("system", "Final plan generated")
	out.UpdateStage(state.StageComplete)
	return out, nil
}

func summarize(s state.PlanningState) string {
	summary := fmt.Sprintf("Trip to %s: %d flight options, %d accommodation options, %d itinerary days.",
		s.Query.Destination, len(s.Plan.Flights), len(s.Plan.Accommodation), len(s.Plan.Itinerary))
	if s.Plan.Budget != nil {
		summary += fmt.Sprintf(" Estimated cost %.2f %s (%.2f remaining).",
			s.Plan.Budget.Total, s.Plan.Budget.Currency, s.Plan.Budget.Remaining)
	}
	if n := len(s.Plan.Alerts); n > 0 {
		summary += fmt.Sprintf(" %d alert(s) recorded.", n)
	}
	return summary
}

// handleError increments the failing stage's attempt counter, classifies
// the failure, and either clears it for a bounded replay (re-validating the
// state first) or parks the workflow in the terminal Error stage.
func (p *Planner) handleError(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	out := s
	if out.Failure == nil {
		out.UpdateStage(state.StageError)
		return out, nil
	}
	f := *out.Failure
	if out.Attempts == nil {
		out.Attempts = make(map[state.Stage]int)
	}
	out.Attempts[f.Stage]++

	d := p.recovery.Classify(out, f)
	if p.opts.Log != nil {
		p.opts.Log.LogRecovery(string(f.Stage), out.Attempts[f.Stage], d.Recoverable)
	}
	if !d.Recoverable {
		out.AddAlert(fmt.Sprintf("unrecoverable failure at %s: %s", f.Stage, f.Reason))
		out.RecordMessage("system", fmt.Sprintf("Workflow failed at %s: %s", f.Stage, f.Reason))
		out.UpdateStage(state.StageError)
		return out, nil
	}
	if err := out.ValidateFor(d.Resume); err != nil {
		out.AddAlert(fmt.Sprintf("cannot resume %s: %v", d.Resume, err))
		out.RecordMessage("system", fmt.Sprintf("Workflow failed at %s: %s", f.Stage, f.Reason))
		out.UpdateStage(state.StageError)
		return out, nil
	}
	out.ClearFailure()
	out.ResumeStage = d.Resume
	out.RecordMessage("system", fmt.Sprintf("Retrying %s after failure (attempt %d): %s", d.Resume, out.Attempts[f.Stage], f.Reason))
	return out, nil
}

// recoveryRoute maps a recovery decision to the node to replay, or ends the
// run when handleError parked the workflow in the Error stage.
func (p *Planner) recoveryRoute(s state.PlanningState) string {
	if s.CurrentStage == state.StageError {
		return End
	}
	if node, ok := resumeNodes[s.ResumeStage]; ok {
		return node
	}
	return End
}

// logBatch emits one task event per outcome and a merge summary.
func (p *Planner) logBatch(next state.Stage, outcomes map[TaskKind]TaskOutcome) {
	if p.opts.Log == nil {
		return
	}
	successes := 0
	for _, kind := range KindOrder {
		o, ok := outcomes[kind]
		if !ok {
			continue
		}
		p.opts.Log.LogTask(string(kind), o.Succeeded(), o.Err)
		if o.Succeeded() {
			successes++
		}
	}
	p.opts.Log.LogMerge(string(next), successes, len(outcomes)-successes)
}

// invoke runs a single capability call with the configured deadline and the
// same fault conversion the coordinator applies at task boundaries.
func (p *Planner) invoke(ctx context.Context, c Capability, params map[string]any, s state.PlanningState) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("capability not configured")
	}
	o := runTask(ctx, TaskSpec{Kind: TaskKind(c.Name()), Capability: c, Params: params, Timeout: p.opts.TaskTimeout}, s.Clone())
	if !o.Succeeded() {
		return nil, fmt.Errorf("%s: %s", c.Name(), o.Err)
	}
	return o.Payload, nil
}

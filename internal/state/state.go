package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidState marks a structural problem with the planning state itself,
// as opposed to a capability failing. Failures wrapping it are never retried.
var ErrInvalidState = errors.New("invalid planning state")

// TravelQuery is the parsed form of the traveler's request.
type TravelQuery struct {
	Raw         string  `json:"raw"`
	Origin      string  `json:"origin,omitempty"`
	Destination string  `json:"destination,omitempty"`
	DepartDate  string  `json:"depart_date,omitempty"`
	ReturnDate  string  `json:"return_date,omitempty"`
	Travelers   int     `json:"travelers,omitempty"`
	Budget      float64 `json:"budget,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// Preferences are derived from the query during analysis.
type Preferences struct {
	TravelStyle       string   `json:"travel_style,omitempty"`
	AccommodationType string   `json:"accommodation_type,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	Pace              string   `json:"pace,omitempty"`
	DietaryNeeds      []string `json:"dietary_needs,omitempty"`
}

// Message is one conversation/event record. The history is append-only.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Failure is a stage-level failure recorded on the state for the graph's
// error routing. Invalid marks a structural state problem, which error
// recovery always classifies as unrecoverable.
type Failure struct {
	Stage   Stage  `json:"stage"`
	Reason  string `json:"reason"`
	Invalid bool   `json:"invalid,omitempty"`
}

// HumanRequest asks the caller for external input before planning continues.
type HumanRequest struct {
	Prompt string `json:"prompt"`
	Field  string `json:"field,omitempty"`
}

// HumanInput is the externally supplied answer applied on resume.
type HumanInput struct {
	Field string `json:"field,omitempty"`
	Value string `json:"value"`
}

// PlanningState is the shared aggregate threaded through every workflow
// stage. Handlers receive it by value and return an updated value; it is
// never shared mutably across concurrent tasks.
type PlanningState struct {
	Query        TravelQuery    `json:"query"`
	Preferences  Preferences    `json:"preferences"`
	Plan         Plan           `json:"plan"`
	History      []Message      `json:"history,omitempty"`
	CurrentStage Stage          `json:"current_stage"`
	ResumeStage  Stage          `json:"resume_stage,omitempty"`
	TaskResults  map[string]any `json:"task_results,omitempty"`
	Attempts     map[Stage]int  `json:"attempts,omitempty"`
	Failure      *Failure       `json:"failure,omitempty"`
	HumanRequest *HumanRequest  `json:"human_request,omitempty"`

	// Confidence is the analyzer's confidence in the parsed query,
	// in [0,1]. Values below the configured threshold trigger the
	// interruption controller.
	Confidence float64 `json:"confidence,omitempty"`
}

// New creates the initial state for one workflow run.
func New(rawQuery string) PlanningState {
	return PlanningState{
		Query:        TravelQuery{Raw: rawQuery},
		CurrentStage: StageStart,
		TaskResults:  make(map[string]any),
		Attempts:     make(map[Stage]int),
		Confidence:   1,
	}
}

// UpdateStage sets the current stage. Callers record any history they need
// before advancing; no other component mutates CurrentStage directly.
func (s *PlanningState) UpdateStage(next Stage) {
	s.CurrentStage = next
}

// AddTaskResult inserts or overwrites the last task result for key.
// Stored results are treated as immutable after insertion.
func (s *PlanningState) AddTaskResult(key string, result any) {
	if s.TaskResults == nil {
		s.TaskResults = make(map[string]any)
	}
	s.TaskResults[key] = result
}

// RecordMessage appends one record to the conversation history.
func (s *PlanningState) RecordMessage(role, content string) {
	s.History = append(s.History, Message{Role: role, Content: content})
}

// AddAlert appends a user-visible alert to the plan.
func (s *PlanningState) AddAlert(msg string) {
	s.Plan.Alerts = append(s.Plan.Alerts, msg)
}

// SetFailure records a stage-level failure for the graph's error routing.
func (s *PlanningState) SetFailure(stage Stage, reason string, invalid bool) {
	s.Failure = &Failure{Stage: stage, Reason: reason, Invalid: invalid}
}

// ClearFailure removes the recorded failure after recovery handled it.
func (s *PlanningState) ClearFailure() {
	s.Failure = nil
}

// Clone returns a deep copy safe to hand to a concurrent task or persist as
// a snapshot. TaskResults values are shared: they are immutable by contract.
func (s PlanningState) Clone() PlanningState {
	out := s
	out.Plan = s.Plan.clone()
	out.History = append([]Message(nil), s.History...)
	out.Preferences.Interests = append([]string(nil), s.Preferences.Interests...)
	out.Preferences.DietaryNeeds = append([]string(nil), s.Preferences.DietaryNeeds...)
	out.TaskResults = make(map[string]any, len(s.TaskResults))
	for k, v := range s.TaskResults {
		out.TaskResults[k] = v
	}
	out.Attempts = make(map[Stage]int, len(s.Attempts))
	for k, v := range s.Attempts {
		out.Attempts[k] = v
	}
	if s.Failure != nil {
		f := *s.Failure
		out.Failure = &f
	}
	if s.HumanRequest != nil {
		r := *s.HumanRequest
		out.HumanRequest = &r
	}
	return out
}

// ApplyInput folds an externally supplied answer into the state before the
// workflow resumes. Unknown fields are kept as conversation context only.
func (s *PlanningState) ApplyInput(in HumanInput) {
	value := strings.TrimSpace(in.Value)
	switch in.Field {
	case "destination":
		s.Query.Destination = value
		s.Confidence = 1
	case "origin":
		s.Query.Origin = value
	case "budget":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			s.Query.Budget = v
		}
	case "dates":
		if from, to, ok := strings.Cut(value, ".."); ok {
			s.Query.DepartDate = strings.TrimSpace(from)
			s.Query.ReturnDate = strings.TrimSpace(to)
		} else {
			s.Query.DepartDate = value
		}
	case "interests":
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				s.Preferences.Interests = append(s.Preferences.Interests, part)
			}
		}
	}
	s.RecordMessage("user", value)
	s.HumanRequest = nil
	s.Confidence = 1
}

// ValidateFor checks the structural invariants a node needs before it runs
// for (or re-runs toward) the target stage. Violations wrap ErrInvalidState.
func (s PlanningState) ValidateFor(target Stage) error {
	if !s.CurrentStage.Valid() {
		return fmt.Errorf("%w: undefined stage %q", ErrInvalidState, s.CurrentStage)
	}
	switch target {
	case StageQueryAnalyzed:
		if strings.TrimSpace(s.Query.Raw) == "" {
			return fmt.Errorf("%w: empty query", ErrInvalidState)
		}
	case StageDestinationResearched, StageParallelSearchCompleted, StageActivitiesPlanned:
		if strings.TrimSpace(s.Query.Raw) == "" {
			return fmt.Errorf("%w: empty query", ErrInvalidState)
		}
		if target != StageDestinationResearched && strings.TrimSpace(s.Query.Destination) == "" {
			return fmt.Errorf("%w: no destination for %s", ErrInvalidState, target)
		}
	case StageBudgetManaged:
		if s.Query.Budget < 0 {
			return fmt.Errorf("%w: negative budget", ErrInvalidState)
		}
	}
	return nil
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjun/wayfarer/internal/observability"
	"github.com/arjun/wayfarer/internal/state"
)

// Node names in the planning graph.
const (
	nodeAnalyzeQuery        = "analyze_query"
	nodeResearchDestination = "research_destination"
	nodeParallelSearch      = "parallel_search"
	nodePlanActivities      = "plan_activities"
	nodeManageBudget        = "manage_budget"
	nodeFinalPlan           = "generate_final_plan"
	nodeHandleError         = "handle_error"
	nodeHandleInterruption  = "handle_interruption"
)

// resumeNodes maps a stage to the node that produces it, for recovery
// replays and interruption resumes.
var resumeNodes = map[state.Stage]string{
	state.StageQueryAnalyzed:           nodeAnalyzeQuery,
	state.StageDestinationResearched:   nodeResearchDestination,
	state.StageParallelSearchCompleted: nodeParallelSearch,
	state.StageActivitiesPlanned:       nodePlanActivities,
	state.StageBudgetManaged:           nodeManageBudget,
	state.StageComplete:                nodeFinalPlan,
}

// Capabilities are the external providers the workflow delegates domain
// answers to. Each is invoked only through the coordinator's task boundary.
type Capabilities struct {
	QueryAnalysis       Capability
	DestinationResearch Capability
	Flights             Capability
	Accommodation       Capability
	Transportation      Capability
	Activities          Capability
	Budget              Capability
}

// Options tune one planner instance.
type Options struct {
	MaxConcurrency      int
	MaxAttempts         int
	MinSuccesses        int
	TaskTimeout         time.Duration
	ConfidenceThreshold float64
	DefaultBudget       float64
	DefaultCurrency     string

	// Snapshots persists suspended runs. Optional.
	Snapshots SnapshotStore

	// Log receives structured task, merge, recovery, and interruption
	// events. Optional.
	Log *observability.Logger
}

// Planner owns one wired planning graph and its collaborators.
type Planner struct {
	opts        Options
	caps        Capabilities
	coordinator *Coordinator
	recovery    Recovery
	interrupts  Interruptions
	graph       *Graph
}

// NewPlanner wires the travel planning graph: query analysis, conditional
// destination research, the parallel search batch, activity planning,
// budget management, and the final plan, with error recovery and
// human-in-the-loop interruption pre-empting normal routing everywhere.
func NewPlanner(opts Options, caps Capabilities) *Planner {
	p := &Planner{
		opts:        opts,
		caps:        caps,
		coordinator: &Coordinator{MaxParallel: opts.MaxConcurrency},
		recovery:    Recovery{MaxAttempts: opts.MaxAttempts},
		interrupts: Interruptions{
			ConfidenceThreshold: opts.ConfidenceThreshold,
			Snapshots:           opts.Snapshots,
			Log:                 opts.Log,
		},
	}

	g := NewGraph(nodeAnalyzeQuery)
	g.AddNode(nodeAnalyzeQuery, state.StageQueryAnalyzed, p.analyzeQuery)
	g.AddNode(nodeResearchDestination, state.StageDestinationResearched, p.researchDestination)
	g.AddNode(nodeParallelSearch, state.StageParallelSearchCompleted, p.parallelSearch)
	g.AddNode(nodePlanActivities, state.StageActivitiesPlanned, p.planActivities)
	g.AddNode(nodeManageBudget, state.StageBudgetManaged, p.manageBudget)
	g.AddNode(nodeFinalPlan, state.StageComplete, p.generateFinalPlan)
	g.AddNode(nodeHandleError, "", p.handleError)
	g.AddNode(nodeHandleInterruption, "", p.interrupts.Suspend)

	g.AddConditionalEdges(nodeAnalyzeQuery, p.researchNeeded, map[string]string{
		"research": nodeResearchDestination,
		"search":   nodeParallelSearch,
	})
	g.AddEdge(nodeResearchDestination, nodeParallelSearch)
	g.AddEdge(nodeParallelSearch, nodePlanActivities)
	g.AddEdge(nodePlanActivities, nodeManageBudget)
	g.AddEdge(nodeManageBudget, nodeFinalPlan)
	g.AddEdge(nodeFinalPlan, End)

	g.AddConditionalEdges(nodeHandleError, p.recoveryRoute, recoveryDestinations())
	g.SetErrorNode(nodeHandleError)
	g.SetInterruptNode(nodeHandleInterruption, p.interrupts.Needed)

	p.graph = g
	return p
}

func recoveryDestinations() map[string]string {
	dests := map[string]string{End: End}
	for _, node := range resumeNodes {
		dests[node] = node
	}
	return dests
}

// Graph exposes the wired graph, mainly for inspection in tests.
func (p *Planner) Graph() *Graph {
	return p.graph
}

// Run drives one planning workflow from the initial state to a terminal
// stage, or to Interrupted when external input is required.
func (p *Planner) Run(ctx context.Context, s state.PlanningState) (state.PlanningState, error) {
	return p.graph.Run(ctx, s)
}

// Resume applies externally supplied input to a suspended snapshot and
// re-enters the graph at the recorded resume stage, never at the start.
func (p *Planner) Resume(ctx context.Context, snapshot state.PlanningState, in state.HumanInput) (state.PlanningState, error) {
	if snapshot.CurrentStage != state.StageInterrupted {
		return snapshot, errors.New("resume requires a suspended run")
	}
	node, ok := resumeNodes[snapshot.ResumeStage]
	if !ok {
		return snapshot, fmt.Errorf("no resume point recorded for stage %q", snapshot.ResumeStage)
	}
	s := snapshot.Clone()
	s.ApplyInput(in)
	s.UpdateStage(s.ResumeStage)
	s.ResumeStage = ""
	return p.graph.ResumeFrom(ctx, node, s)
}

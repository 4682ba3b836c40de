package state

// Stage identifies a step in the travel planning workflow.
type Stage string

const (
	StageStart                   Stage = "start"
	StageQueryAnalyzed           Stage = "query_analyzed"
	StageDestinationResearched   Stage = "destination_researched"
	StageParallelSearchCompleted Stage = "parallel_search_completed"
	StageActivitiesPlanned       Stage = "activities_planned"
	StageBudgetManaged           Stage = "budget_managed"
	StageComplete                Stage = "complete"
	StageError                   Stage = "error"
	StageInterrupted             Stage = "interrupted"
)

var allStages = map[Stage]bool{
	StageStart:                   true,
	StageQueryAnalyzed:           true,
	StageDestinationResearched:   true,
	StageParallelSearchCompleted: true,
	StageActivitiesPlanned:       true,
	StageBudgetManaged:           true,
	StageComplete:                true,
	StageError:                   true,
	StageInterrupted:             true,
}

// Valid reports whether s is a defined workflow stage.
func (s Stage) Valid() bool {
	return allStages[s]
}

// Terminal reports whether the workflow halts permanently at s.
// Interrupted is suspended, not terminal: a resume re-enters the graph.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

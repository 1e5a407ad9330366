package models

// InsightReport is the console summary of one render pass.
type InsightReport struct {
	Records         int
	Projects        int
	TotalRequired   float64
	TotalExecuted   float64
	ExecutionRate   NullFloat
	TotalArea       float64
	TotalAvoidedCO2 float64
	MeanProgress    NullFloat
	Phases          []PhaseCount
	TopProgress     []ProjectProgress
	NextMilestone   *Milestone
	EmptyWidgets    []string
}

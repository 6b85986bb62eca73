package evalplan

// EvaluationType selects the judge's scoring mode.
type EvaluationType string

const (
	EngagementVsClinician EvaluationType = "engagement_vs_clinician"
	SmartGoalsRubric      EvaluationType = "smart_goals_rubric"
	None                  EvaluationType = "none"
)

// Agreement compares two independently produced categorizations of a case.
type Agreement string

const (
	AgreementMatch    Agreement = "match"
	AgreementPartial  Agreement = "partial"
	AgreementMismatch Agreement = "mismatch"
	AgreementNA       Agreement = "n/a"
)

// Plan is the bundle of metrics, rubric and cases handed to the judge.
// Cases hold raw run records in passthrough mode and GoalCase values in
// flatten mode.
type Plan struct {
	EvaluationType EvaluationType    `json:"evaluation_type"`
	Metrics        []string          `json:"metrics"`
	Rubric         map[string]string `json:"rubric"`
	Cases          []any             `json:"cases"`
}

// GoalCase is one goal scored under the SMART rubric.
type GoalCase struct {
	CaseID     string `json:"case_id"`
	Timestamp  string `json:"timestamp"`
	GoalNumber any    `json:"goal_number"`
	GoalText   string `json:"goal_text"`
}

// Categorization is one side of an engagement comparison.
type Categorization struct {
	CategoryRecommended string `json:"category_recommended" mapstructure:"category_recommended"`
	Rationale           string `json:"rationale" mapstructure:"rationale"`
}

// EngagementCase compares analyzer and clinician recommendations for a device.
type EngagementCase struct {
	CaseID    string         `json:"case_id" mapstructure:"case_id"`
	Timestamp string         `json:"timestamp" mapstructure:"timestamp"`
	DeviceID  string         `json:"device_id" mapstructure:"device_id"`
	Analyzer  Categorization `json:"analyzer" mapstructure:"analyzer"`
	Clinician Categorization `json:"clinician" mapstructure:"clinician"`
}

// ScoreRecord is produced by the judge for a single case. Metric scores are
// expected in [0, 1].
type ScoreRecord struct {
	CaseID       string             `json:"case_id" mapstructure:"case_id"`
	MetricScores map[string]float64 `json:"metric_scores" mapstructure:"metric_scores"`
	Agreement    Agreement          `json:"agreement" mapstructure:"agreement"`
	Notes        string             `json:"notes" mapstructure:"notes"`
}

// EvaluatorOutput is the judge's full answer for one plan.
type EvaluatorOutput struct {
	EvaluationType EvaluationType `json:"evaluation_type" mapstructure:"evaluation_type"`
	CasesScored    int            `json:"cases_scored" mapstructure:"cases_scored"`
	Scores         []ScoreRecord  `json:"scores" mapstructure:"scores"`
}

// SmartGoalMetrics lists the rubric metrics in scoring order.
var SmartGoalMetrics = []string{"specific", "measurable", "achievable", "relevant", "time_bound", "clarity"}

// EngagementMetrics lists the metrics used for engagement_vs_clinician.
var EngagementMetrics = []string{"correctness", "completeness", "helpfulness", "coherence", "relevance"}

// SmartGoalRubric returns a fresh copy of the guidance text per metric.
func SmartGoalRubric() map[string]string {
	return map[string]string{
		"specific":   "Clearly states the behavior/target (who/what/when/where).",
		"measurable": "Includes a quantifiable criterion (count, frequency, value).",
		"achievable": "Feasible for the patient (resources/constraints).",
		"relevant":   "Aligned to diabetes/health needs in the notes.",
		"time_bound": "Contains a concrete timeframe or deadline.",
		"clarity":    "Readable, unambiguous, free of contradictions.",
	}
}

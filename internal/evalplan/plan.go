// Package evalplan turns prior analyzer runs into a judge-ready evaluation plan.
package evalplan

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLimit is the number of most recent runs kept when none is given.
const DefaultLimit = 50

// Mode selects how runs become cases.
type Mode string

const (
	// ModePassthrough always claims smart_goals_rubric and hands the sorted
	// runs to the judge as cases without flattening.
	ModePassthrough Mode = "passthrough"
	// ModeFlatten classifies runs by the presence of smart goals and emits one
	// case per goal.
	ModeFlatten Mode = "flatten"
)

// ParseMode maps a configuration string to a Mode. Empty means passthrough.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePassthrough:
		return ModePassthrough, nil
	case ModeFlatten:
		return ModeFlatten, nil
	default:
		return "", fmt.Errorf("unknown evaluation plan mode %q", s)
	}
}

// PlanBuildError reports a run that cannot be ordered.
type PlanBuildError struct {
	Index  int
	Reason string
}

func (e *PlanBuildError) Error() string {
	return fmt.Sprintf("build eval plan: run %d: %s", e.Index, e.Reason)
}

// Builder builds plans in a fixed mode.
type Builder struct {
	Mode Mode
}

// Build loads runs and assembles the plan.
func (b Builder) Build(runs []any, limit int) (Plan, error) {
	loaded, err := LoadRuns(runs, limit)
	if err != nil {
		return Plan{}, err
	}
	if b.Mode == ModeFlatten {
		return flattenPlan(loaded), nil
	}
	return passthroughPlan(loaded), nil
}

// LoadRuns sorts runs ascending by their timestamp string and keeps the
// last limit entries when limit > 0. A missing timestamp sorts as "".
func LoadRuns(runs []any, limit int) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(runs))
	keys := make([]string, 0, len(runs))
	for i, r := range runs {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, &PlanBuildError{Index: i, Reason: fmt.Sprintf("run is %T, not an object", r)}
		}
		ts := ""
		if v, present := m["timestamp"]; present && v != nil {
			s, ok := v.(string)
			if !ok {
				return nil, &PlanBuildError{Index: i, Reason: fmt.Sprintf("timestamp is %T, not a string", v)}
			}
			ts = s
		}
		out = append(out, m)
		keys = append(keys, ts)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] < keys[idx[b]] })
	sorted := make([]map[string]any, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}
	return sorted, nil
}

// SourceRuns interprets an evaluator payload as a run collection: an array is
// used as-is, an object with a "runs" array yields that array, and any other
// object is a single run.
func SourceRuns(payload any) []any {
	switch x := payload.(type) {
	case nil:
		return nil
	case []any:
		return x
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out
	case map[string]any:
		if runs, ok := x["runs"].([]any); ok {
			return runs
		}
		return []any{x}
	default:
		return []any{x}
	}
}

func passthroughPlan(runs []map[string]any) Plan {
	cases := make([]any, len(runs))
	for i, r := range runs {
		cases[i] = r
	}
	return Plan{
		EvaluationType: SmartGoalsRubric,
		Metrics:        append([]string(nil), SmartGoalMetrics...),
		Rubric:         SmartGoalRubric(),
		Cases:          cases,
	}
}

func flattenPlan(runs []map[string]any) Plan {
	var cases []any
	for _, r := range runs {
		ts, _ := r["timestamp"].(string)
		for i, g := range runGoals(r) {
			cases = append(cases, goalCase(ts, i, g))
		}
	}
	if len(cases) == 0 {
		return Plan{
			EvaluationType: None,
			Metrics:        []string{},
			Rubric:         map[string]string{},
			Cases:          []any{},
		}
	}
	return Plan{
		EvaluationType: SmartGoalsRubric,
		Metrics:        append([]string(nil), SmartGoalMetrics...),
		Rubric:         SmartGoalRubric(),
		Cases:          cases,
	}
}

// runGoals reads goals from analyzer_output.smart_goals, falling back to a
// top-level smart_goals as written by the analyzer run log.
func runGoals(r map[string]any) []any {
	if ao, ok := r["analyzer_output"].(map[string]any); ok {
		if goals, ok := ao["smart_goals"].([]any); ok && len(goals) > 0 {
			return goals
		}
	}
	if goals, ok := r["smart_goals"].([]any); ok {
		return goals
	}
	return nil
}

func goalCase(ts string, pos int, g any) GoalCase {
	var num any = pos + 1
	text := ""
	switch x := g.(type) {
	case map[string]any:
		if n, ok := x["goal_number"]; ok && n != nil {
			num = n
		}
		text, _ = x["description"].(string)
	case string:
		text = x
	}
	return GoalCase{
		CaseID:     fmt.Sprintf("%s::goal_%v", ts, num),
		Timestamp:  ts,
		GoalNumber: num,
		GoalText:   text,
	}
}

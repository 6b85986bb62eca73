package goal

import (
	"fmt"
	"strings"

	"smartgoal/internal/util/jsonutil"
)

// TimestampLayout is the lexically sortable layout used for run timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Goal is one normalized SMART goal. GoalNumber is dense and 1-based within a run.
type Goal struct {
	GoalNumber  int    `json:"goal_number"`
	Description string `json:"description"`
}

// AnalyzerRun is the record produced by a single analyzer invocation.
type AnalyzerRun struct {
	ModelID    string `json:"model_id"`
	DataSource string `json:"data_source"`
	Timestamp  string `json:"timestamp"`
	SmartGoals []Goal `json:"smart_goals"`
}

// Normalize reshapes heterogeneous goal entries into Goals. Numbers present in
// the input are ignored; output is renumbered from 1.
func Normalize(goalsRaw []any) []Goal {
	out := make([]Goal, 0, len(goalsRaw))
	for i, g := range goalsRaw {
		out = append(out, Goal{
			GoalNumber:  i + 1,
			Description: strings.TrimSpace(describe(g)),
		})
	}
	return out
}

// ExtractGoals pulls the goal list out of coerced model output. smart_goals
// wins over goals when it is present and non-empty.
func ExtractGoals(parsed map[string]any) []any {
	for _, key := range []string{"smart_goals", "goals"} {
		v, ok := parsed[key]
		if !ok || v == nil {
			continue
		}
		switch x := v.(type) {
		case []any:
			if len(x) == 0 {
				continue
			}
			return x
		case string:
			if x == "" {
				continue
			}
			return []any{x}
		default:
			return []any{x}
		}
	}
	return nil
}

func describe(g any) string {
	switch x := g.(type) {
	case string:
		return x
	case map[string]any:
		if d, ok := x["description"].(string); ok {
			return d
		}
		if d, ok := x["goal"].(string); ok {
			return d
		}
		b, err := jsonutil.MarshalNoEscape(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

package evalplan

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(ts string, goals ...string) map[string]any {
	gs := make([]any, 0, len(goals))
	for i, g := range goals {
		gs = append(gs, map[string]any{"goal_number": float64(i + 1), "description": g})
	}
	return map[string]any{
		"model_id":    "m",
		"data_source": "s3://bucket/note.docx",
		"timestamp":   ts,
		"smart_goals": gs,
	}
}

func TestLoadRuns_LimitKeepsLatest(t *testing.T) {
	runs := []any{
		map[string]any{"timestamp": "2024-01-02 09:00:00"},
		map[string]any{"timestamp": "2024-01-01 09:00:00"},
	}
	got, err := LoadRuns(runs, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-02 09:00:00", got[0]["timestamp"])
}

func TestLoadRuns_StableAndMissingTimestampFirst(t *testing.T) {
	runs := []any{
		map[string]any{"timestamp": "2024-01-01 00:00:00", "id": "a"},
		map[string]any{"id": "no-ts"},
		map[string]any{"timestamp": "2024-01-01 00:00:00", "id": "b"},
	}
	got, err := LoadRuns(runs, 0)
	require.NoError(t, err)
	ids := []any{got[0]["id"], got[1]["id"], got[2]["id"]}
	assert.Equal(t, []any{"no-ts", "a", "b"}, ids)
}

func TestLoadRuns_Malformed(t *testing.T) {
	_, err := LoadRuns([]any{map[string]any{"timestamp": float64(3)}}, 0)
	var pbe *PlanBuildError
	require.True(t, errors.As(err, &pbe))
	assert.Equal(t, 0, pbe.Index)

	_, err = LoadRuns([]any{map[string]any{}, "not a run"}, 0)
	require.True(t, errors.As(err, &pbe))
	assert.Equal(t, 1, pbe.Index)
}

func TestBuild_PassthroughKeepsRunsAsCases(t *testing.T) {
	runs := []any{run("2024-01-02 00:00:00", "Walk"), run("2024-01-01 00:00:00")}
	plan, err := Builder{Mode: ModePassthrough}.Build(runs, DefaultLimit)
	require.NoError(t, err)

	assert.Equal(t, SmartGoalsRubric, plan.EvaluationType)
	assert.Equal(t, SmartGoalMetrics, plan.Metrics)
	assert.Len(t, plan.Rubric, 6)
	require.Len(t, plan.Cases, 2)
	assert.Equal(t, "2024-01-01 00:00:00", plan.Cases[0].(map[string]any)["timestamp"])
}

func TestBuild_PassthroughEmptyStillClaimsRubric(t *testing.T) {
	plan, err := Builder{}.Build(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, SmartGoalsRubric, plan.EvaluationType)
	assert.Empty(t, plan.Cases)
}

func TestBuild_FlattenOneCasePerGoal(t *testing.T) {
	nested := map[string]any{
		"timestamp": "2024-01-03 00:00:00",
		"analyzer_output": map[string]any{
			"smart_goals": []any{map[string]any{"goal_number": float64(1), "description": "Log meals"}},
		},
	}
	runs := []any{run("2024-01-01 00:00:00", "Walk", "Sleep"), nested}
	plan, err := Builder{Mode: ModeFlatten}.Build(runs, 0)
	require.NoError(t, err)

	assert.Equal(t, SmartGoalsRubric, plan.EvaluationType)
	require.Len(t, plan.Cases, 3)
	assert.Equal(t, GoalCase{
		CaseID:     "2024-01-01 00:00:00::goal_1",
		Timestamp:  "2024-01-01 00:00:00",
		GoalNumber: float64(1),
		GoalText:   "Walk",
	}, plan.Cases[0])
	assert.Equal(t, "2024-01-01 00:00:00::goal_2", plan.Cases[1].(GoalCase).CaseID)
	assert.Equal(t, "Log meals", plan.Cases[2].(GoalCase).GoalText)
}

func TestBuild_FlattenWithoutGoalsIsNone(t *testing.T) {
	plan, err := Builder{Mode: ModeFlatten}.Build([]any{run("2024-01-01 00:00:00")}, 0)
	require.NoError(t, err)
	assert.Equal(t, None, plan.EvaluationType)
	assert.Empty(t, plan.Metrics)
	assert.Empty(t, plan.Rubric)
	assert.Empty(t, plan.Cases)

	b, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, `{"evaluation_type":"none","metrics":[],"rubric":{},"cases":[]}`, string(b))
}

func TestSourceRuns(t *testing.T) {
	single := map[string]any{"timestamp": "t"}
	assert.Equal(t, []any{single}, SourceRuns(single))
	assert.Equal(t, []any{single}, SourceRuns(map[string]any{"runs": []any{single}}))
	assert.Equal(t, []any{single, single}, SourceRuns([]any{single, single}))
	assert.Nil(t, SourceRuns(nil))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModePassthrough, m)

	m, err = ParseMode(" Flatten ")
	require.NoError(t, err)
	assert.Equal(t, ModeFlatten, m)

	_, err = ParseMode("bogus")
	assert.Error(t, err)
}

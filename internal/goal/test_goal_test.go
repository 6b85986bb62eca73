package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgoal/internal/util/jsonutil"
)

func TestNormalize_RenumbersFromOne(t *testing.T) {
	in := []any{
		map[string]any{"goal_number": float64(5), "description": "  Walk 30 min/day "},
		map[string]any{"goal_number": float64(2), "description": "Check glucose twice daily"},
		map[string]any{"goal_number": float64(9), "goal": "Sleep 8h"},
	}
	got := Normalize(in)
	require.Len(t, got, 3)
	for i, g := range got {
		assert.Equal(t, i+1, g.GoalNumber)
	}
	assert.Equal(t, "Walk 30 min/day", got[0].Description)
	assert.Equal(t, "Sleep 8h", got[2].Description)
}

func TestNormalize_EmptyDescriptionKept(t *testing.T) {
	got := Normalize([]any{
		map[string]any{"description": ""},
		"  ",
		"Drink water",
	})
	assert.Equal(t, []Goal{
		{GoalNumber: 1, Description: ""},
		{GoalNumber: 2, Description: ""},
		{GoalNumber: 3, Description: "Drink water"},
	}, got)
}

func TestNormalize_FallsBackToStringifiedObject(t *testing.T) {
	got := Normalize([]any{map[string]any{"domain": "diet"}, float64(42)})
	require.Len(t, got, 2)
	assert.Equal(t, `{"domain":"diet"}`, got[0].Description)
	assert.Equal(t, "42", got[1].Description)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}

func TestScenario_CommentaryAroundObject(t *testing.T) {
	parsed, err := jsonutil.Coerce(`Here is the result: {"smart_goals": [{"goal_number": 5, "description": "Walk 30 min/day"}]} Thanks!`)
	require.NoError(t, err)

	got := Normalize(ExtractGoals(parsed))
	assert.Equal(t, []Goal{{GoalNumber: 1, Description: "Walk 30 min/day"}}, got)
}

func TestScenario_GoalsKeyWithTrailingComma(t *testing.T) {
	parsed, err := jsonutil.Coerce(`{"goals": ["Drink water", {"goal": "Sleep 8h"}],}`)
	require.NoError(t, err)

	got := Normalize(ExtractGoals(parsed))
	assert.Equal(t, []Goal{
		{GoalNumber: 1, Description: "Drink water"},
		{GoalNumber: 2, Description: "Sleep 8h"},
	}, got)
}

func TestExtractGoals(t *testing.T) {
	cases := []struct {
		name   string
		parsed map[string]any
		want   []any
	}{
		{name: "absent", parsed: map[string]any{}, want: nil},
		{name: "smart_goals preferred", parsed: map[string]any{"smart_goals": []any{"a"}, "goals": []any{"b"}}, want: []any{"a"}},
		{name: "empty smart_goals falls back", parsed: map[string]any{"smart_goals": []any{}, "goals": []any{"b"}}, want: []any{"b"}},
		{name: "scalar wrapped", parsed: map[string]any{"goals": "only one"}, want: []any{"only one"}},
		{name: "object wrapped", parsed: map[string]any{"smart_goals": map[string]any{"goal": "x"}}, want: []any{map[string]any{"goal": "x"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractGoals(tc.parsed))
		})
	}
}

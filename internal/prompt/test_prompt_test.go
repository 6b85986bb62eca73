package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgoal/internal/evalplan"
)

func TestAnalyzer_EmbedsDataSource(t *testing.T) {
	p := Analyzer("s3://bucket/patient1.docx")

	assert.True(t, strings.HasPrefix(p, "You are an Analyzer Agent."))
	assert.Contains(t, p, `Call fetch_data EXACTLY ONCE with the data_source: "s3://bucket/patient1.docx"`)
	assert.Contains(t, p, "Instruction 1:\nDevelop behavioral intervention actionable goals")
	assert.Contains(t, p, "Instruction 2:\nDerive SMART goals")
	assert.Contains(t, p, "Instruction 3:\nGenerate multiple SMART goals across domains")
	assert.Contains(t, p, "OUTPUT CONTRACT:\n{\n  \"smart_goals\": [")
	assert.True(t, strings.HasSuffix(p, "Data source to analyze: s3://bucket/patient1.docx"))
	assert.Equal(t, 4, strings.Count(p, "s3://bucket/patient1.docx")-1)
}

func TestAnalyzer_Deterministic(t *testing.T) {
	assert.Equal(t, Analyzer("x"), Analyzer("x"))
	assert.NotEqual(t, Analyzer("x"), Analyzer("y"))
	assert.Contains(t, Analyzer(""), `data_source: ""`)
}

func TestEvaluator_DescribesBothModes(t *testing.T) {
	p := Evaluator()
	assert.Contains(t, p, `"engagement_vs_clinician"`)
	assert.Contains(t, p, "specific, measurable, achievable, relevant, time_bound, clarity")
	assert.Contains(t, p, "correctness, completeness, helpfulness, coherence, relevance")
	assert.Contains(t, p, `"cases_scored": 0`)
	assert.NotContains(t, p, "build_eval_plan")
}

func TestEvaluatorRequest(t *testing.T) {
	plan, err := evalplan.Builder{}.Build([]any{map[string]any{"timestamp": "t", "note": "<b>"}}, 0)
	require.NoError(t, err)

	msg, err := EvaluatorRequest(plan, map[string]any{"note": "<b>"})
	require.NoError(t, err)
	assert.Contains(t, msg, "EVALUATION PLAN:\n{")
	assert.Contains(t, msg, `"evaluation_type": "smart_goals_rubric"`)
	assert.Contains(t, msg, "ANALYZER OUTPUT:\n{\"note\":\"<b>\"}")
}

func TestFileContext(t *testing.T) {
	assert.Equal(t, "\n\nFile content:\nabc...", FileContext("abc"))

	long := strings.Repeat("é", FileContextLimit+10)
	got := FileContext(long)
	assert.Equal(t, FileContextLimit, strings.Count(got, "é"))
}

func TestDataSourceMessage(t *testing.T) {
	assert.Equal(t, "DATA_SOURCE: notes.txt", DataSourceMessage("notes.txt"))
}

package prompt

import (
	"bytes"
	"fmt"

	"smartgoal/internal/util/jsonutil"
)

// Evaluator returns the fixed judge instructions. The plan is supplied in the
// user message built by EvaluatorRequest.
func Evaluator() string {
	var buf bytes.Buffer
	buf.WriteString("You are an Evaluator (LLM-as-Judge) that supports multiple evaluation modes via a plan.\n\n")
	buf.WriteString("CRITICAL: You MUST evaluate ALL cases provided in the plan. Do not stop early or skip any cases.\n\n")
	writeSection(&buf, "PLAN", formatList([]string{
		`evaluation_type: "engagement_vs_clinician" or "smart_goals_rubric" (or "none" when there is nothing to score)`,
		"metrics: list of metric names to score in [0.0, 1.0]",
		"rubric: guidance for scoring",
		"cases: a list of cases to evaluate",
	}))
	writeSection(&buf, "SCORING", scoring)
	writeSection(&buf, "OUTPUT", "STRICT JSON ONLY:\n"+evaluatorContract)
	writeSection(&buf, "PROCESS", formatList([]string{
		"Produce one score object per case with values in [0.0, 1.0].",
		`Use "agreement":"n/a" for smart_goals_rubric (no clinician).`,
		"Keep notes concise and specific.",
		`If evaluation_type is "none", return cases_scored 0 and an empty scores list.`,
	}))
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// EvaluatorRequest renders the user message carrying the plan and the
// analyzer payload it was built from.
func EvaluatorRequest(plan, analyzerPayload any) (string, error) {
	planJSON, err := jsonutil.MarshalNoEscapeIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode plan: %w", err)
	}
	payloadJSON, err := jsonutil.MarshalNoEscape(analyzerPayload)
	if err != nil {
		return "", fmt.Errorf("encode analyzer payload: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("Please analyze this analyzer output and provide evaluation metrics.\n\n")
	writeSection(&buf, "EVALUATION PLAN", string(planJSON))
	writeSection(&buf, "ANALYZER OUTPUT", string(payloadJSON))
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

const scoring = `- For "engagement_vs_clinician":
  Each case has:
    { case_id, timestamp, device_id, analyzer{category_recommended, rationale}, clinician{category_recommended, rationale} }
  Score metrics: correctness, completeness, helpfulness, coherence, relevance.
  Also produce:
    agreement = "match" | "partial" | "mismatch"
  Rules:
    - match if categories are the same (case-insensitive).
    - partial if different but analyzer rationale substantially overlaps clinician intent.
    - mismatch otherwise.

- For "smart_goals_rubric":
  Each case has:
    { case_id, timestamp, goal_number, goal_text }
  or is a whole analyzer run whose smart_goals each need a score object
  (use "<timestamp>::goal_<goal_number>" as case_id).
  Score metrics: specific, measurable, achievable, relevant, time_bound, clarity.
  Focus only on the goal_text vs rubric. If unsafe, note it briefly.`

const evaluatorContract = `{
  "evaluation_type": "string",
  "cases_scored": 0,
  "scores": [
    {
      "case_id": "string",
      "metric_scores": { "<metric>": 0.0 },
      "agreement": "match|partial|mismatch|n/a",
      "notes": "short justification (<=40 words)"
    }
  ]
}`

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgoal/internal/fetch"
	"smartgoal/internal/goal"
	"smartgoal/internal/llm"
	"smartgoal/internal/prompt"
	"smartgoal/internal/runtime"
	"smartgoal/internal/util/jsonutil"
)

const (
	mistral = "mistral.mistral-7b-instruct-v0:2"
	llama   = "meta.llama3-70b-instruct-v1:0"
	claude  = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
)

const goalsOutput = "Sure! {\"smart_goals\": [{\"goal_number\": 5, \"description\": \" Walk 30 minutes daily \"}, \"Check glucose every morning\",],}"

type memRunLog struct {
	mu   sync.Mutex
	runs []goal.AnalyzerRun
	err  error
}

func (m *memRunLog) Append(_ context.Context, run goal.AnalyzerRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

type memMirror struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memMirror) Put(_ context.Context, prefix, name string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[prefix+"/"+name] = append([]byte(nil), content...)
	return nil
}

type stubEvaluator struct {
	out map[string]any
	err error
	got []goal.AnalyzerRun
}

func (e *stubEvaluator) Evaluate(_ context.Context, run goal.AnalyzerRun) (map[string]any, error) {
	e.got = append(e.got, run)
	return e.out, e.err
}

func newService(t *testing.T, client llm.Client) (*Service, *memRunLog, *memMirror) {
	t.Helper()
	f, err := fetch.New(fetch.Options{LogPath: filepath.Join(t.TempDir(), "fetch.log")})
	require.NoError(t, err)
	runs := &memRunLog{}
	store := &memMirror{files: map[string][]byte{}}
	return &Service{
		LLM:          client,
		Caps:         llm.NewCapabilityTable(llm.DefaultProfiles()),
		Fetcher:      f,
		Runs:         runs,
		Artifacts:    store,
		DefaultModel: mistral,
		OutputDir:    t.TempDir(),
		Now:          func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.Local) },
	}, runs, store
}

func writeUpload(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "patient1.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestAnalyze_EmptyPrompt(t *testing.T) {
	svc, _, _ := newService(t, llm.NewFakeClient(""))
	_, err := svc.Analyze(context.Background(), Request{Prompt: "   "})

	var se *runtime.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Code)
	assert.Equal(t, "No prompt provided.", se.Msg)
}

func TestInvoke_RejectsNonStringPrompt(t *testing.T) {
	svc, _, _ := newService(t, llm.NewFakeClient(""))
	_, err := svc.Invoke(context.Background(), map[string]any{"prompt": 42})

	var se *runtime.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 400, se.Code)
}

func TestAnalyze_ToolCapableModel(t *testing.T) {
	upload := writeUpload(t, "Walk daily@Check glucose")
	fake := llm.NewFakeClient("", llm.FakeStep{
		Output:   goalsOutput,
		ToolName: fetch.ToolName,
		ToolArgs: map[string]any{"data_source": upload},
	})
	svc, runs, store := newService(t, fake)

	res, err := svc.Analyze(context.Background(), Request{Prompt: upload, ModelID: claude})
	require.NoError(t, err)

	call, ok := fake.LastCall()
	require.True(t, ok)
	assert.Equal(t, prompt.Analyzer(""), call.System)
	assert.Equal(t, "DATA_SOURCE: "+upload, call.Prompt)
	assert.Equal(t, []string{fetch.ToolName}, call.ToolNames())
	assert.Equal(t, DefaultParams, call.Params)

	results := fake.ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "Walk daily\nCheck glucose", results[0]["formatted_text"])

	run := res.ModelOutput
	assert.Equal(t, claude, run.ModelID)
	assert.Equal(t, upload, run.DataSource)
	assert.Equal(t, "2025-09-01 10:00:00", run.Timestamp)
	assert.Equal(t, []goal.Goal{
		{GoalNumber: 1, Description: "Walk 30 minutes daily"},
		{GoalNumber: 2, Description: "Check glucose every morning"},
	}, run.SmartGoals)
	assert.Nil(t, res.EvaluatorResult)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, run, runs.runs[0])

	name := "patient1_us_anthropic_claude-3-7-sonnet-20250219-v1_0_output.json"
	raw, err := os.ReadFile(filepath.Join(svc.OutputDir, name))
	require.NoError(t, err)
	var onDisk goal.AnalyzerRun
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, run, onDisk)
	assert.Contains(t, string(raw), "\n  \"model_id\"")

	assert.Equal(t, raw, store.files[ArtifactPrefix+"/"+name])
}

func TestAnalyze_UploadWithoutToolsOrSystemPrompt(t *testing.T) {
	upload := writeUpload(t, "  Walk daily @ Check glucose @ ")
	fake := llm.NewFakeClient(goalsOutput)
	svc, _, _ := newService(t, fake)

	res, err := svc.Analyze(context.Background(), Request{Prompt: "[UPLOADED_FILE: " + upload + "] please analyze"})
	require.NoError(t, err)

	call, _ := fake.LastCall()
	assert.Equal(t, mistral, call.Model)
	assert.Empty(t, call.System)
	assert.Empty(t, call.Tools)
	assert.Equal(t,
		prompt.Analyzer(upload)+"\n\nUser request: please analyze\n\nFile content: \n\nFile content:\nWalk daily\nCheck glucose...",
		call.Prompt)

	assert.Equal(t, upload, res.ModelOutput.DataSource)
	assert.NoFileExists(t, upload)
	assert.FileExists(t, filepath.Join(svc.OutputDir, "patient1_mistral_mistral-7b-instruct-v0_2_output.json"))
}

func TestAnalyze_UploadPrefetchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.pdf")
	fake := llm.NewFakeClient(goalsOutput)
	svc, _, _ := newService(t, fake)

	_, err := svc.Analyze(context.Background(), Request{Prompt: "[UPLOADED_FILE:" + missing + "] go", ModelID: llama})
	require.NoError(t, err)

	call, _ := fake.LastCall()
	assert.Equal(t, prompt.Analyzer(missing), call.System)
	assert.Empty(t, call.Tools)
	assert.Equal(t, "go\n\nError reading file "+missing+": Unsupported data_source: "+missing, call.Prompt)
}

func TestAnalyze_UploadWithToolsOnlyMarker(t *testing.T) {
	upload := writeUpload(t, "text")
	fake := llm.NewFakeClient(goalsOutput)
	svc, _, _ := newService(t, fake)

	_, err := svc.Analyze(context.Background(), Request{Prompt: "[UPLOADED_FILE: " + upload + "]", ModelID: claude})
	require.NoError(t, err)

	call, _ := fake.LastCall()
	assert.Equal(t, prompt.Analyzer(upload), call.System)
	assert.Equal(t, "DATA_SOURCE: "+upload, call.Prompt)
}

func TestInvocation_StrategyTable(t *testing.T) {
	svc, _, _ := newService(t, llm.NewFakeClient(""))
	svc.Caps.Set("tools-only", llm.Capability{Tools: true})
	svc.Caps.Set("mapped", llm.Capability{SystemPrompt: true, Tools: true, ProviderModel: "gemini-2.5-pro"})
	ctx := context.Background()

	inv := svc.invocation(ctx, "tools-only", "s3://b/k.txt", "")
	assert.Empty(t, inv.System)
	assert.Equal(t, prompt.Analyzer("")+"\n\nDATA_SOURCE: s3://b/k.txt", inv.Prompt)
	assert.Len(t, inv.Tools, 1)

	inv = svc.invocation(ctx, "tools-only", "", "/tmp/up.docx")
	assert.Equal(t, prompt.Analyzer("/tmp/up.docx"), inv.Prompt)

	inv = svc.invocation(ctx, llama, "s3://b/k.txt", "")
	assert.Equal(t, prompt.Analyzer(""), inv.System)
	assert.Equal(t, "DATA_SOURCE: s3://b/k.txt", inv.Prompt)
	assert.Empty(t, inv.Tools)

	inv = svc.invocation(ctx, mistral, "s3://b/k.txt", "")
	assert.Empty(t, inv.System)
	assert.Equal(t, prompt.Analyzer("")+"\n\nDATA_SOURCE: s3://b/k.txt", inv.Prompt)

	inv = svc.invocation(ctx, "mapped", "x", "")
	assert.Equal(t, "gemini-2.5-pro", inv.Model)
}

func TestAnalyze_EvaluatorChaining(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, _, _ := newService(t, llm.NewFakeClient(goalsOutput))
		ev := &stubEvaluator{out: map[string]any{"evaluation_type": "smart_goals_rubric", "cases_scored": 1}}
		svc.Evaluator = ev

		res, err := svc.Analyze(context.Background(), Request{Prompt: "notes.txt"})
		require.NoError(t, err)
		assert.Equal(t, "smart_goals_rubric", res.EvaluatorResult["evaluation_type"])
		require.Len(t, ev.got, 1)
		assert.Equal(t, res.ModelOutput, ev.got[0])
	})

	t.Run("failure is embedded", func(t *testing.T) {
		svc, _, _ := newService(t, llm.NewFakeClient(goalsOutput))
		svc.Evaluator = &stubEvaluator{err: errors.New("evaluator unreachable")}

		res, err := svc.Analyze(context.Background(), Request{Prompt: "notes.txt"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"error": "evaluator unreachable"}, res.EvaluatorResult)
	})
}

func TestAnalyze_Failures(t *testing.T) {
	t.Run("no json removes upload", func(t *testing.T) {
		upload := writeUpload(t, "x")
		svc, runs, _ := newService(t, llm.NewFakeClient("I could not find any goals."))

		_, err := svc.Analyze(context.Background(), Request{Prompt: "[UPLOADED_FILE: " + upload + "]"})
		assert.ErrorIs(t, err, jsonutil.ErrNoJSONObject)
		assert.NoFileExists(t, upload)
		assert.Empty(t, runs.runs)
	})

	t.Run("model error", func(t *testing.T) {
		svc, _, _ := newService(t, llm.NewFakeClient("", llm.FakeStep{Err: errors.New("throttled")}))
		_, err := svc.Analyze(context.Background(), Request{Prompt: "notes.txt"})
		assert.ErrorContains(t, err, "throttled")
	})

	t.Run("run log error", func(t *testing.T) {
		svc, runs, _ := newService(t, llm.NewFakeClient(goalsOutput))
		runs.err = errors.New("disk full")
		_, err := svc.Analyze(context.Background(), Request{Prompt: "notes.txt"})
		assert.ErrorContains(t, err, "append run log: disk full")
	})
}

func TestResult_JSON(t *testing.T) {
	b, err := jsonutil.MarshalNoEscape(Result{ModelOutput: goal.AnalyzerRun{SmartGoals: []goal.Goal{}}})
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(b), "evaluator_result"))
	assert.Contains(t, string(b), `"smart_goals":[]`)
}

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"s3://bucket/path/patient1_summary.docx": "patient1_summary",
		"S3://bucket/patient2.pdf":               "patient2",
		"patient2.pdf":                           "patient2",
		"https://host/dir/file.txt?x=y":          "file",
		"/tmp/archive.tar.gz":                    "archive.tar",
		".env":                                   ".env",
		"https://host/dir/":                      "unknown_source",
		"s3://bucketonly":                        "bucketonly",
		"":                                       "unknown_source",
	}
	for in, want := range cases {
		assert.Equal(t, want, baseName(in), in)
	}
	assert.Len(t, []rune(baseName(strings.Repeat("a", 300))), maxBaseRunes)
}

func TestSafeFragment(t *testing.T) {
	assert.Equal(t, "mistral_mistral-7b-instruct-v0_2", safeFragment(mistral))
	assert.Equal(t, "a_b_c_d", safeFragment("a/b c.d"))
}

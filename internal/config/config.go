// Package config loads runtime settings from the environment (with optional
// .env) and model capability profiles from a YAML or JSON file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAnalyzerModelID  = "mistral.mistral-7b-instruct-v0:2"
	DefaultEvaluatorModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
)

type Config struct {
	Port string
	Env  string

	LLM LLMConfig

	AnalyzerModelID  string
	EvaluatorModelID string
	ModelProfiles    string

	EvaluatorURL     string
	EvaluatorTimeout time.Duration

	OutputDir  string
	RunLogFile string
	RunLogDSN  string
	PlanMode   string
	EvalLimit  int

	Fetch    FetchConfig
	S3       S3Config
	Artifact ArtifactConfig
}

type LLMConfig struct {
	Provider    string
	APIKey      string
	GeminiModel string
	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string
	MaxAttempts int
	RPS         float64
	Burst       int
}

type FetchConfig struct {
	HTTPTimeout time.Duration
	LogFile     string
	CacheSize   int
}

// S3Config is the connection used to read s3:// data sources.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// ArtifactConfig enables mirroring of per-run files when Bucket is set.
type ArtifactConfig struct {
	Enabled bool
	Bucket  string
}

// Load reads .env when present and then the process environment. defaultPort
// is used when PORT is unset.
func Load(defaultPort string) (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	outputDir := firstNonEmpty(strings.TrimSpace(os.Getenv("OUTPUT_DIR")), "./outputs")
	bucket := strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET"))

	cfg := &Config{
		Port: normalizePort(firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort)),
		Env:  env,
		LLM: LLMConfig{
			Provider:    strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "gemini")),
			APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiModel: strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
			GroqAPIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
			GroqModel:   strings.TrimSpace(os.Getenv("GROQ_MODEL")),
			GroqBaseURL: strings.TrimSpace(os.Getenv("GROQ_BASE_URL")),
			MaxAttempts: intEnv("LLM_MAX_ATTEMPTS", 3),
			RPS:         floatEnv("LLM_RPS", 0),
			Burst:       intEnv("LLM_BURST", 1),
		},
		AnalyzerModelID:  firstNonEmpty(strings.TrimSpace(os.Getenv("ANALYZER_MODEL_ID")), DefaultAnalyzerModelID),
		EvaluatorModelID: firstNonEmpty(strings.TrimSpace(os.Getenv("EVALUATOR_MODEL_ID")), DefaultEvaluatorModelID),
		ModelProfiles:    strings.TrimSpace(os.Getenv("MODEL_PROFILES_FILE")),
		EvaluatorURL:     strings.TrimSpace(os.Getenv("EVALUATOR_URL")),
		EvaluatorTimeout: durationEnv("EVALUATOR_TIMEOUT", 5*time.Minute),
		OutputDir:        outputDir,
		RunLogFile:       firstNonEmpty(strings.TrimSpace(os.Getenv("RUN_LOG_FILE")), outputDir+"/results.jsonl"),
		RunLogDSN:        strings.TrimSpace(os.Getenv("RUN_LOG_PG_DSN")),
		PlanMode:         strings.TrimSpace(os.Getenv("EVAL_PLAN_MODE")),
		EvalLimit:        intEnv("EVAL_LIMIT", 50),
		Fetch: FetchConfig{
			HTTPTimeout: durationEnv("FETCH_HTTP_TIMEOUT", 60*time.Second),
			LogFile:     firstNonEmpty(os.Getenv("FETCH_LOG_FILE"), "/tmp/fetch_data_log.txt"),
			CacheSize:   intEnv("FETCH_CACHE_SIZE", 64),
		},
		S3: S3Config{
			Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("S3_REGION")), strings.TrimSpace(os.Getenv("AWS_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))),
			UseSSL:    boolEnv("S3_USE_SSL", !strings.EqualFold(env, "local")),
		},
		Artifact: ArtifactConfig{
			Enabled: bucket != "",
			Bucket:  bucket,
		},
	}
	return cfg, nil
}

func normalizePort(p string) string {
	if p == "" || strings.HasPrefix(p, ":") {
		return p
	}
	return ":" + p
}

func intEnv(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func floatEnv(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func boolEnv(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// durationEnv accepts Go durations ("90s") or a bare number of seconds.
func durationEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

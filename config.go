package mealplanner

import (
	"strings"
	"time"
)

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=us.anthropic.claude-3-7-sonnet-20250219-v1:0"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.4"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

// Gap filler backends selectable through GAP_FILLER.
const (
	GapFillerNone    = "none"
	GapFillerMock    = "mock"
	GapFillerBedrock = "bedrock"
	GapFillerOllama  = "ollama"
)

type PlannerConfig struct {
	CandidatesPath      string        `env:"CANDIDATES_PATH,default=artifacts/candidates.json"`
	HealthSummaryPath   string        `env:"HEALTH_SUMMARY_PATH"`
	GapFiller           string        `env:"GAP_FILLER,default=none"`
	GapFillTimeout      time.Duration `env:"GAP_FILL_TIMEOUT,default=20s"`
	GapFillPerNeed      int           `env:"GAP_FILL_PER_NEED,default=2"`
	CriticalNeeds       string        `env:"CRITICAL_NEEDS"`
	MediaCoverageTarget float64       `env:"MEDIA_COVERAGE_TARGET,default=0.75"`
	BaseOllamaEndpoint  string        `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	OllamaModel         string        `env:"OLLAMA_MODEL,default=llama3.2"`
	Seed                int64         `env:"PLAN_SEED"`
	UserID              string        `env:"USER_ID,default=local"`
	Debug               bool          `env:"PLANNER_DEBUG,default=false"`
}

// CriticalNeedsOverride splits CRITICAL_NEEDS on commas. It returns nil when
// the variable is unset so callers fall back to the profile's own list.
func (c PlannerConfig) CriticalNeedsOverride() []string {
	var out []string
	for _, n := range strings.Split(c.CriticalNeeds, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

type S3Config struct {
	Bucket        string `env:"ARTIFACTS_S3_BUCKET,required"`
	CandidatesKey string `env:"ARTIFACTS_CANDIDATES_S3_KEY,required"`
	SummaryKey    string `env:"ARTIFACTS_SUMMARY_S3_KEY"`
}

type SlackConfig struct {
	WebhookURL string `env:"SLACK_WEBHOOK_URL"`
	Channel    string `env:"SLACK_CHANNEL,default=#meal-plans"`
}

// Enabled reports whether a webhook is configured.
func (c SlackConfig) Enabled() bool {
	return c.WebhookURL != ""
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mealplanner"
	"mealplanner/gapfill"
	"mealplanner/pool"
	"mealplanner/scheduler"
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// Filler synthesizes meals with a local Ollama model, constraining the reply
// to the response schema through the chat API's format field.
type Filler struct {
	endpoint   string
	model      string
	httpClient mealplanner.HTTPClient
	options    options
}

var _ mealplanner.GapFiller = (*Filler)(nil)

type FillerOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   mealplanner.HTTPClient
}

func NewFiller(opts FillerOpts) (*Filler, error) {
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, fmt.Errorf("ollama model id is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Filler{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options: options{
			Temperature:   0.4,
			TopP:          0.9,
			RepeatPenalty: 1.05,
			NumCtx:        8192,
		},
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string         `json:"model"`
	Messages []wireMessage  `json:"messages"`
	Format   map[string]any `json:"format"`
	Stream   bool           `json:"stream"`
	Options  options        `json:"options,omitempty"`
}

type wireResponse struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
	// other metadata omitted but available
}

func (f *Filler) FillGaps(ctx context.Context, req mealplanner.GapFillRequest) ([]scheduler.MealCandidate, error) {
	slog.Info("GAP_FILLER: Ollama invoked", "model", f.model, "needs", req.Needs)

	schema, err := gapfill.SchemaMap(gapfill.ResponseSchema())
	if err != nil {
		return nil, err
	}

	reqBytes, err := json.Marshal(wireRequest{
		Model: f.model,
		Messages: []wireMessage{
			{Role: "system", Content: gapfill.SystemPrompt},
			{Role: "user", Content: gapfill.UserPrompt(req)},
		},
		Format:  schema,
		Stream:  false,
		Options: f.options,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama chat: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("GAP_FILLER: Ollama decode failed", "error", err, "body", string(body))
		return nil, fmt.Errorf("ollama chat: decode response: %w", err)
	}

	meals, err := pool.DecodeGenerated([]byte(stripFences(wr.Message.Content)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated meals: %w", err)
	}
	slog.Info("GAP_FILLER: Ollama meals decoded", "meals_count", len(meals))
	return meals, nil
}

// stripFences removes a markdown code fence some models wrap JSON in even
// when a format is set.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

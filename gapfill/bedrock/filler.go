package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mealplanner"
	"mealplanner/gapfill"
	"mealplanner/pool"
	"mealplanner/scheduler"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// A handful of full recipes with ingredients and steps needs more room
	// than a single tool call.
	defaultMaxTokens = 2048

	// Some variety between regenerations, still low enough for valid JSON.
	defaultTemperature = 0.4

	defaultTopP = 0.9
)

var (
	// ErrMaxTokens means the model ran out of tokens before finishing the tool call.
	ErrMaxTokens = errors.New("model hit MaxTokens limit")

	// ErrBlocked means Bedrock filtered the response.
	ErrBlocked = errors.New("model response blocked by Bedrock safety filters")
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Filler synthesizes meals through the Bedrock Converse API, forcing the
// model to answer with a submit_meals tool call.
type Filler struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

var _ mealplanner.GapFiller = (*Filler)(nil)

func NewFiller(brc bedrockRuntimeClient, opts LLMOptions) *Filler {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Filler{
		brc:  brc,
		opts: opts,
	}
}

func (f *Filler) FillGaps(ctx context.Context, req mealplanner.GapFillRequest) ([]scheduler.MealCandidate, error) {
	slog.Info("GAP_FILLER: Bedrock invoked", "needs", req.Needs, "per_need", req.PerNeed)

	in, err := f.converseInput(req)
	if err != nil {
		return nil, err
	}

	out, err := f.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("GAP_FILLER: Bedrock converse failed", "error", err, "model_id", f.opts.ModelID)
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}

	attrs := []any{"stop_reason", out.StopReason}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	if out.Usage != nil {
		attrs = append(attrs,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens))
	}
	slog.Info("GAP_FILLER: Bedrock converse succeeded", attrs...)

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		slog.Warn("GAP_FILLER: Model hit MaxTokens limit; consider increasing MAX_TOKENS or lowering GAP_FILL_PER_NEED")
		return nil, ErrMaxTokens

	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		slog.Warn("GAP_FILLER: Model response blocked", "stop_reason", out.StopReason)
		return nil, ErrBlocked
	}

	payload, err := toolPayload(out)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		// Some models answer in text despite the forced tool choice.
		text := textFromOutput(out)
		if text == "" {
			return nil, fmt.Errorf("bedrock response has neither a %s call nor text", gapfill.ToolName)
		}
		payload = []byte(text)
	}

	meals, err := pool.DecodeGenerated(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generated meals: %w", err)
	}
	slog.Info("GAP_FILLER: Bedrock meals decoded", "meals_count", len(meals))
	return meals, nil
}

func (f *Filler) converseInput(req mealplanner.GapFillRequest) (*bedrockruntime.ConverseInput, error) {
	schema, err := gapfill.SchemaMap(gapfill.ResponseSchema())
	if err != nil {
		return nil, err
	}

	return &bedrockruntime.ConverseInput{
		ModelId: aws.String(f.opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: gapfill.SystemPrompt},
		},
		Messages: []types.Message{{
			Role: types.ConversationRoleUser,
			Content: []types.ContentBlock{
				&types.ContentBlockMemberText{Value: gapfill.UserPrompt(req)},
			},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(f.opts.MaxTokens),
			Temperature: aws.Float32(f.opts.Temperature),
			TopP:        aws.Float32(f.opts.TopP),
		},
		ToolConfig: &types.ToolConfiguration{
			Tools: []types.Tool{
				&types.ToolMemberToolSpec{Value: types.ToolSpecification{
					Name:        aws.String(gapfill.ToolName),
					Description: aws.String(gapfill.ToolDescription),
					InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
				}},
			},
			ToolChoice: &types.ToolChoiceMemberTool{Value: types.SpecificToolChoice{Name: aws.String(gapfill.ToolName)}},
		},
	}, nil
}

// toolPayload returns the JSON input of the submit_meals call, or nil when
// the model made no such call.
func toolPayload(out *bedrockruntime.ConverseOutput) ([]byte, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return nil, nil
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil || aws.ToString(tu.Value.Name) != gapfill.ToolName || tu.Value.Input == nil {
			continue
		}

		var input map[string]any
		if err := tu.Value.Input.UnmarshalSmithyDocument(&input); err != nil {
			return nil, fmt.Errorf("failed to read %s input: %w", gapfill.ToolName, err)
		}
		data, err := json.Marshal(unwrapStringified(input))
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode %s input: %w", gapfill.ToolName, err)
		}
		return data, nil
	}
	return nil, nil
}

// unwrapStringified decodes strings holding a JSON array or object, which
// models sometimes emit for nested tool arguments such as "meals".
func unwrapStringified(val any) any {
	switch v := val.(type) {
	case string:
		s := strings.TrimSpace(v)
		if len(s) > 1 && (s[0] == '[' || s[0] == '{') {
			var decoded any
			if json.Unmarshal([]byte(s), &decoded) == nil {
				return unwrapStringified(decoded)
			}
		}
		return v

	case []any:
		for i := range v {
			v[i] = unwrapStringified(v[i])
		}
		return v

	case map[string]any:
		for key, val := range v {
			v[key] = unwrapStringified(val)
		}
		return v

	default:
		return v
	}
}

// textFromOutput returns the last text block that looks like a JSON object,
// else all text blocks joined by newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}

	var texts []string
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}
	return strings.Join(texts, "\n")
}

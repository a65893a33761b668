package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"mealplanner"
	"mealplanner/gapfill/bedrock"
	"mealplanner/planner"
	"mealplanner/pool"
	"mealplanner/pool/storage"
	"mealplanner/scheduler"
)

type Params struct {
	UserID        string   `json:"user_id"`
	Seed          *int64   `json:"seed,omitempty"`
	CriticalNeeds []string `json:"critical_needs,omitempty"`
	// PreviousSeed set asks for a regenerated plan with a different seed.
	PreviousSeed *int64 `json:"previous_seed,omitempty"`
}

type Results struct {
	Plan      scheduler.WeeklyPlan       `json:"plan"`
	Report    scheduler.ValidationReport `json:"report"`
	Gaps      []string                   `json:"gaps,omitempty"`
	Generated int                        `json:"generated"`
	Summary   string                     `json:"summary"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig mealplanner.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode model config: %w", err)
		}

		var plannerConfig mealplanner.PlannerConfig
		if err := envdecode.Decode(&plannerConfig); err != nil {
			return Results{}, fmt.Errorf("failed to decode planner config: %w", err)
		}

		var s3Config mealplanner.S3Config
		if err := envdecode.Decode(&s3Config); err != nil {
			return Results{}, fmt.Errorf("missing S3 config: %w", err)
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		candidates, err := pool.Load(ctx, storage.NewS3State(s3Client, s3Config.Bucket, s3Config.CandidatesKey))
		if err != nil {
			slog.Error("SETUP: Failed to load candidate pool from S3", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Candidate pool loaded from S3", "candidates_count", len(candidates))

		summary := scheduler.DefaultHealthSummary()
		if s3Config.SummaryKey != "" {
			summary, err = pool.LoadSummary(ctx, storage.NewS3State(s3Client, s3Config.Bucket, s3Config.SummaryKey))
			if err != nil {
				slog.Error("SETUP: Failed to load health summary from S3", "error", err)
				return Results{}, err
			}
		}

		tracerProvider, meterProvider, otelShutdown, err := mealplanner.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		p := planner.New(planner.Options{
			GapFiller: bedrock.NewFiller(bedrockruntime.NewFromConfig(awsCfg), bedrock.LLMOptions{
				ModelID:     modelConfig.ModelID,
				MaxTokens:   modelConfig.MaxTokens,
				Temperature: modelConfig.Temperature,
				TopP:        modelConfig.TopP,
			}),
			GapFillTimeout:      plannerConfig.GapFillTimeout,
			GapFillPerNeed:      plannerConfig.GapFillPerNeed,
			MediaCoverageTarget: plannerConfig.MediaCoverageTarget,
			Logger:              mealplanner.NewStdoutPlanLogger(),
			Tracer:              tracerProvider.Tracer(mealplanner.TracerNameLambda),
			Meter:               meterProvider.Meter(mealplanner.TracerNameLambda),
		})

		req := planner.Request{
			UserID:        params.UserID,
			Pool:          candidates,
			Summary:       &summary,
			CriticalNeeds: params.CriticalNeeds,
			Seed:          params.Seed,
		}
		if req.CriticalNeeds == nil {
			req.CriticalNeeds = plannerConfig.CriticalNeedsOverride()
		}

		var res planner.Result
		if params.PreviousSeed != nil {
			res, err = p.Regenerate(ctx, req, scheduler.WeeklyPlan{Seed: *params.PreviousSeed})
		} else {
			res, err = p.Plan(ctx, req)
		}
		if err != nil {
			slog.Error("RESULT: Planning failed", "error", err)
			return Results{}, err
		}

		return Results{
			Plan:      res.Plan,
			Report:    res.Report,
			Gaps:      res.Gaps,
			Generated: len(res.Generated),
			Summary:   planner.Summarize(res),
		}, nil
	}

	lambda.Start(fn)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mealplanner"
	"mealplanner/gapfill/bedrock"
	"mealplanner/gapfill/mock"
	"mealplanner/gapfill/ollama"
	"mealplanner/planner"
	"mealplanner/pool"
	"mealplanner/pool/storage"
	"mealplanner/scheduler"
	"mealplanner/slack"
)

// Usage: planner [seed]
//
// Without a seed argument PLAN_SEED is used, and without that the clock.
func main() {
	ctx := context.Background()

	var modelConfig mealplanner.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var plannerConfig mealplanner.PlannerConfig
	if err := envdecode.Decode(&plannerConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var slackConfig mealplanner.SlackConfig
	if err := envdecode.Decode(&slackConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var otelConfig mealplanner.OtelConfig
	if err := envdecode.Decode(&otelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	candidates, err := pool.Load(ctx, storage.NewFileState(plannerConfig.CandidatesPath))
	if err != nil {
		slog.Error("SETUP: Failed to load candidate pool", "error", err)
		os.Exit(1)
	}
	slog.Info("SETUP: Candidate pool loaded", "path", plannerConfig.CandidatesPath, "candidates_count", len(candidates))

	summary := scheduler.DefaultHealthSummary()
	if plannerConfig.HealthSummaryPath != "" {
		summary, err = pool.LoadSummary(ctx, storage.NewFileState(plannerConfig.HealthSummaryPath))
		if err != nil {
			slog.Error("SETUP: Failed to load health summary", "error", err)
			os.Exit(1)
		}
	}

	filler, err := newGapFiller(ctx, plannerConfig, modelConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create gap filler", "gap_filler", plannerConfig.GapFiller, "error", err)
		os.Exit(1)
	}

	logger, cleanup, err := newPlanLogger(plannerConfig.UserID)
	if err != nil {
		slog.Error("SETUP: Failed to create plan logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush plan log", "error", err)
		}
	}()

	opts := planner.Options{
		GapFiller:           filler,
		GapFillTimeout:      plannerConfig.GapFillTimeout,
		GapFillPerNeed:      plannerConfig.GapFillPerNeed,
		MediaCoverageTarget: plannerConfig.MediaCoverageTarget,
		Logger:              logger,
	}

	if otelConfig.Enabled {
		tracerProvider, meterProvider, otelShutdown, err := mealplanner.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		opts.Tracer = tracerProvider.Tracer(mealplanner.TracerNameCLI)
		opts.Meter = meterProvider.Meter(mealplanner.TracerNameCLI)

		var span trace.Span
		ctx, span = opts.Tracer.Start(ctx, mealplanner.TracerNameCLI, trace.WithAttributes(
			attribute.String("planner.gap_filler", plannerConfig.GapFiller),
			attribute.String("planner.user_id", plannerConfig.UserID),
			attribute.Int("planner.pool_size", len(candidates)),
		))
		defer span.End()
	}

	req := planner.Request{
		UserID:        plannerConfig.UserID,
		Pool:          candidates,
		Summary:       &summary,
		CriticalNeeds: plannerConfig.CriticalNeedsOverride(),
	}
	seed, ok, err := seedArg(plannerConfig.Seed)
	if err != nil {
		log.Fatalf("Invalid seed: %s", err)
	}
	if ok {
		req.Seed = &seed
	}

	res, err := planner.New(opts).Plan(ctx, req)
	if err != nil {
		var emptyErr *scheduler.EmptyPoolError
		if errors.As(err, &emptyErr) {
			slog.Error("RESULT: Candidate pool cannot cover every slot", "positions", emptyErr.Positions)
		} else {
			slog.Error("RESULT: Planning failed", "error", err)
		}
		return
	}

	if plannerConfig.Debug {
		mealplanner.Dump(os.Stderr, res.Profile, res.Report)
	}

	output := planner.Summarize(res)
	fmt.Println(output)

	if slackConfig.Enabled() {
		slackClient := slack.NewClient(slackConfig.WebhookURL, http.DefaultClient)
		if err := slackClient.PostMessage(ctx, slackConfig.Channel, output); err != nil {
			slog.Error("Failed to post plan to Slack", "error", err)
		}
	}
}

func newGapFiller(ctx context.Context, cfg mealplanner.PlannerConfig, modelConfig mealplanner.ModelConfig) (mealplanner.GapFiller, error) {
	switch cfg.GapFiller {
	case mealplanner.GapFillerNone, "":
		return nil, nil
	case mealplanner.GapFillerMock:
		return mock.NewFiller(), nil
	case mealplanner.GapFillerOllama:
		return ollama.NewFiller(ollama.FillerOpts{
			BaseEndpoint: cfg.BaseOllamaEndpoint,
			ModelID:      cfg.OllamaModel,
			HTTPClient:   http.DefaultClient,
		})
	case mealplanner.GapFillerBedrock:
		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			return nil, err
		}
		return bedrock.NewFiller(brc, bedrock.LLMOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		}), nil
	default:
		return nil, fmt.Errorf("unknown gap filler %q", cfg.GapFiller)
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// seedArg returns the seed from the first argument, else from PLAN_SEED. A
// zero PLAN_SEED means unset.
func seedArg(envSeed int64) (int64, bool, error) {
	if len(os.Args) > 1 {
		seed, err := strconv.ParseInt(os.Args[1], 10, 64)
		return seed, err == nil, err
	}
	return envSeed, envSeed != 0, nil
}

func newPlanLogger(userID string) (mealplanner.PlanLogger, func() error, error) {
	logFilePath := mealplanner.NewPlanLogFilePath(userID)
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := mealplanner.NewFilePlanLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

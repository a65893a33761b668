package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"mealplanner"
	"mealplanner/scheduler"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultGapFillTimeout = 20 * time.Second
	defaultPerNeed        = 2
)

// Options configures a Planner. Zero values select no gap filler, the
// default timeout and no-op telemetry.
type Options struct {
	GapFiller           mealplanner.GapFiller
	GapFillTimeout      time.Duration
	GapFillPerNeed      int
	MediaCoverageTarget float64
	Logger              mealplanner.PlanLogger
	Tracer              trace.Tracer
	Meter               metric.Meter
	Now                 func() time.Time
}

// Request is one planning request. Pool is treated as an immutable snapshot.
type Request struct {
	UserID string
	Pool   []scheduler.MealCandidate
	// Summary nil means no health data; the default summary is used.
	Summary *scheduler.HealthSummary
	// CriticalNeeds overrides the needs derived from the profile.
	CriticalNeeds []string
	// Seed nil derives one from the clock. The seed used is returned in the
	// plan either way.
	Seed *int64
}

// Result is a plan plus everything that went into it.
type Result struct {
	Plan      scheduler.WeeklyPlan       `json:"plan"`
	Report    scheduler.ValidationReport `json:"report"`
	Profile   scheduler.NeedsProfile     `json:"profile"`
	Gaps      []string                   `json:"gaps,omitempty"`
	Generated []scheduler.MealCandidate  `json:"generated,omitempty"`
}

// Planner runs the planning pipeline: profile, score, gap analysis, bounded
// gap fill, assignment and validation. It holds no per-request state and is
// safe for concurrent use.
type Planner struct {
	opts Options
	m    instruments
}

type instruments struct {
	plans           metric.Int64Counter
	plansFailed     metric.Int64Counter
	planDuration    metric.Float64Histogram
	cellsUnfilled   metric.Int64Counter
	gapFillCalls    metric.Int64Counter
	gapFillFailures metric.Int64Counter
	gapFillDuration metric.Float64Histogram
	generated       metric.Int64Counter
	mediaCoverage   metric.Float64Gauge
}

func New(opts Options) *Planner {
	if opts.GapFillTimeout <= 0 {
		opts.GapFillTimeout = defaultGapFillTimeout
	}
	if opts.GapFillPerNeed <= 0 {
		opts.GapFillPerNeed = defaultPerNeed
	}
	if opts.Logger == nil {
		opts.Logger = mealplanner.NewNoOpPlanLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer("planner")
	}
	if opts.Meter == nil {
		opts.Meter = metricnoop.NewMeterProvider().Meter("planner")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := opts.Meter
	var in instruments
	in.plans, _ = m.Int64Counter("plans_total",
		metric.WithDescription("Total number of planning requests"))
	in.plansFailed, _ = m.Int64Counter("plans_failed_total",
		metric.WithDescription("Total number of planning requests that returned an error"))
	in.planDuration, _ = m.Float64Histogram("plan_duration_seconds",
		metric.WithDescription("End to end planning time"), metric.WithUnit("s"))
	in.cellsUnfilled, _ = m.Int64Counter("cells_unfilled_total",
		metric.WithDescription("Total number of grid cells left empty"))
	in.gapFillCalls, _ = m.Int64Counter("gap_fill_calls_total",
		metric.WithDescription("Total number of gap filler invocations"))
	in.gapFillFailures, _ = m.Int64Counter("gap_fill_failures_total",
		metric.WithDescription("Total number of gap filler invocations that failed or timed out"))
	in.gapFillDuration, _ = m.Float64Histogram("gap_fill_duration_seconds",
		metric.WithDescription("Gap filler response time"), metric.WithUnit("s"))
	in.generated, _ = m.Int64Counter("generated_candidates_total",
		metric.WithDescription("Total number of synthesized candidates merged into pools"))
	in.mediaCoverage, _ = m.Float64Gauge("media_coverage_percent",
		metric.WithDescription("Share of filled cells with a media asset in the latest plan"), metric.WithUnit("%"))

	return &Planner{opts: opts, m: in}
}

// Plan builds a weekly plan for req.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	ctx, span := p.opts.Tracer.Start(ctx, "Planner.Plan")
	defer span.End()

	start := p.opts.Now()
	p.m.plans.Add(ctx, 1)

	seed := scheduler.NewSeed(start)
	if req.Seed != nil {
		seed = *req.Seed
	}
	entry := mealplanner.PlanLog{Timestamp: start, UserID: req.UserID, Seed: seed, PoolSize: len(req.Pool)}

	res, err := p.plan(ctx, req, seed, &entry)
	p.m.planDuration.Record(ctx, p.opts.Now().Sub(start).Seconds())
	if err != nil {
		p.m.plansFailed.Add(ctx, 1)
		span.SetStatus(codes.Error, "planning failed")
		span.RecordError(err)
		entry.Error = err.Error()
		p.logPlan(entry)
		slog.Error("PLANNER: Planning failed", "user_id", req.UserID, "seed", seed, "error", err)
		return Result{}, err
	}

	p.m.cellsUnfilled.Add(ctx, int64(res.Report.UnfilledCells))
	p.m.mediaCoverage.Record(ctx, res.Report.MediaCoveragePercentage)
	span.SetAttributes(
		attribute.Int64("plan.seed", seed),
		attribute.Int("plan.filled_cells", res.Report.FilledCells),
		attribute.Int("plan.warnings", len(res.Plan.Warnings)),
		attribute.Float64("plan.media_coverage_percent", res.Report.MediaCoveragePercentage),
		attribute.Bool("plan.passed", res.Report.Passed),
	)

	entry.Cells = mealplanner.CellsFromPlan(res.Plan)
	entry.Warnings = res.Plan.Warnings
	entry.Report = &res.Report
	p.logPlan(entry)

	slog.Info("PLANNER: Plan complete",
		"user_id", req.UserID,
		"seed", seed,
		"filled_cells", res.Report.FilledCells,
		"warnings", len(res.Plan.Warnings),
		"media_coverage_percent", res.Report.MediaCoveragePercentage,
		"passed", res.Report.Passed)
	return res, nil
}

// Regenerate plans again from the same request with a seed guaranteed to
// differ from the previous plan's.
func (p *Planner) Regenerate(ctx context.Context, req Request, prev scheduler.WeeklyPlan) (Result, error) {
	seed := scheduler.RegenerateSeed(prev.Seed, p.opts.Now())
	req.Seed = &seed
	return p.Plan(ctx, req)
}

func (p *Planner) plan(ctx context.Context, req Request, seed int64, entry *mealplanner.PlanLog) (Result, error) {
	summary := scheduler.DefaultHealthSummary()
	if req.Summary != nil {
		summary = *req.Summary
	}

	profile := scheduler.BuildNeedsProfile(summary)
	if p.opts.MediaCoverageTarget > 0 {
		profile.MediaCoverageTarget = p.opts.MediaCoverageTarget
	}
	if err := profile.Validate(); err != nil {
		return Result{}, err
	}
	entry.PreferredTags = profile.PreferredTags
	entry.ExcludeTags = profile.ExcludeTags
	entry.RequiredTags = profile.RequiredTags

	scored := scheduler.ScorePool(req.Pool, profile)

	needs := req.CriticalNeeds
	if needs == nil {
		needs = scheduler.CriticalNeeds(profile)
	}
	gaps := scheduler.FindGaps(scored, needs)
	entry.Gaps = gaps
	slog.Info("PLANNER: Gap analysis complete", "critical_needs", needs, "gaps", gaps)

	var (
		generated []scheduler.MealCandidate
		gapWarn   *scheduler.Warning
	)
	if len(gaps) > 0 && p.opts.GapFiller != nil {
		generated, gapWarn = p.fillGaps(ctx, gaps, profile, req.Pool)
		if len(generated) > 0 {
			merged := make([]scheduler.MealCandidate, 0, len(req.Pool)+len(generated))
			merged = append(merged, req.Pool...)
			merged = append(merged, generated...)
			scored = scheduler.ScorePool(merged, profile)
		}
	}
	entry.GeneratedCandidates = len(generated)

	plan, err := p.assign(ctx, scored, profile, seed)
	if err != nil {
		return Result{}, err
	}
	if gapWarn != nil {
		plan.Warnings = append([]scheduler.Warning{*gapWarn}, plan.Warnings...)
	}

	return Result{
		Plan:      plan,
		Report:    scheduler.Validate(plan, profile),
		Profile:   profile,
		Gaps:      gaps,
		Generated: generated,
	}, nil
}

func (p *Planner) assign(ctx context.Context, scored []scheduler.ScoredCandidate, profile scheduler.NeedsProfile, seed int64) (scheduler.WeeklyPlan, error) {
	_, span := p.opts.Tracer.Start(ctx, "Planner.assign")
	defer span.End()

	span.SetAttributes(attribute.Int("pool.size", len(scored)), attribute.Int64("plan.seed", seed))
	plan, err := scheduler.Assign(scored, profile, seed)
	if err != nil {
		span.SetStatus(codes.Error, "assignment failed")
		span.RecordError(err)
		return plan, fmt.Errorf("assign weekly plan: %w", err)
	}
	return plan, nil
}

type fillResult struct {
	meals []scheduler.MealCandidate
	err   error
}

// fillGaps calls the gap filler under a deadline. It never fails the
// request: any error becomes a GapFillerUnavailable warning.
func (p *Planner) fillGaps(ctx context.Context, gaps []string, profile scheduler.NeedsProfile, pool []scheduler.MealCandidate) ([]scheduler.MealCandidate, *scheduler.Warning) {
	ctx, span := p.opts.Tracer.Start(ctx, "Planner.fillGaps")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.opts.GapFillTimeout)
	defer cancel()

	names := make([]string, 0, len(pool))
	for _, c := range pool {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	req := mealplanner.GapFillRequest{
		Needs:         gaps,
		Profile:       profile,
		PerNeed:       p.opts.GapFillPerNeed,
		ExistingNames: names,
	}

	span.SetAttributes(attribute.StringSlice("gap_fill.needs", gaps))
	p.m.gapFillCalls.Add(ctx, 1)
	start := p.opts.Now()

	// The filler runs on its own goroutine so one that ignores ctx still
	// cannot hold the request past the deadline.
	done := make(chan fillResult, 1)
	go func() {
		meals, err := p.opts.GapFiller.FillGaps(ctx, req)
		done <- fillResult{meals: meals, err: err}
	}()

	var res fillResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = fillResult{err: ctx.Err()}
	}
	p.m.gapFillDuration.Record(ctx, p.opts.Now().Sub(start).Seconds())

	if res.err != nil {
		p.m.gapFillFailures.Add(ctx, 1)
		span.SetStatus(codes.Error, "gap filler unavailable")
		span.RecordError(res.err)

		msg := fmt.Sprintf("gap filler failed: %v", res.err)
		if errors.Is(res.err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("gap filler timed out after %s", p.opts.GapFillTimeout)
		}
		slog.Warn("PLANNER: Gap filler unavailable, continuing with original pool", "gaps", gaps, "error", res.err)
		return nil, &scheduler.Warning{Kind: scheduler.GapFillerUnavailable, Message: msg}
	}

	meals := prepareGenerated(res.meals, gaps, pool)
	p.m.generated.Add(ctx, int64(len(meals)))
	span.AddEvent("Generated candidates merged", trace.WithAttributes(
		attribute.Int("gap_fill.returned", len(res.meals)),
		attribute.Int("gap_fill.accepted", len(meals)),
	))
	slog.Info("PLANNER: Gap filler returned candidates", "returned", len(res.meals), "accepted", len(meals))
	return meals, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if s == "" {
		return "meal"
	}
	return s
}

// prepareGenerated marks synthesized candidates as generated, drops those
// with an unusable slot type and gives each an id unique across the pool,
// gen-<need>-<n> where need is the first gap the candidate covers.
func prepareGenerated(meals []scheduler.MealCandidate, gaps []string, pool []scheduler.MealCandidate) []scheduler.MealCandidate {
	taken := make(map[string]bool, len(pool)+len(meals))
	for _, c := range pool {
		taken[c.ID] = true
	}
	next := make(map[string]int)

	out := make([]scheduler.MealCandidate, 0, len(meals))
	for _, c := range meals {
		if !c.SlotType.Valid() {
			slog.Warn("PLANNER: Dropping generated candidate with invalid slot type", "name", c.Name, "slot_type", c.SlotType)
			continue
		}
		c.Origin = scheduler.OriginGenerated

		if c.ID == "" || taken[c.ID] {
			base := slug(c.Name)
			for _, g := range gaps {
				if c.Matches(g) {
					base = slug(g)
					break
				}
			}
			for {
				next[base]++
				id := fmt.Sprintf("gen-%s-%d", base, next[base])
				if !taken[id] {
					c.ID = id
					break
				}
			}
		}
		taken[c.ID] = true
		out = append(out, c)
	}
	return out
}

func (p *Planner) logPlan(entry mealplanner.PlanLog) {
	if err := p.opts.Logger.LogPlan(entry); err != nil {
		slog.Error("PLANNER: Failed to log plan", "error", err)
	}
}

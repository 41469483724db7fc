package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/planforge/planforge/internal/excel"
	"github.com/planforge/planforge/internal/job"
	"github.com/planforge/planforge/internal/plan"
	"github.com/planforge/planforge/internal/research"
	"github.com/planforge/planforge/internal/strava"
)

// ActivitySource provides the athlete's training history. The Strava client
// is the production implementation.
type ActivitySource interface {
	Athlete(ctx context.Context) (strava.Athlete, error)
	Stats(ctx context.Context, athleteID int64) (strava.Stats, error)
}

// IdeaSource finds workout reference material for the prompt.
type IdeaSource interface {
	SearchWorkouts(ctx context.Context, sportType, goal string) ([]research.Idea, error)
}

// Planner is the production Generator: Strava history → optional web
// research → LLM plan → XLSX artifact.
type Planner struct {
	activities ActivitySource
	ideas      IdeaSource // nil when no research key is configured
	model      TextModel
	outputDir  string
	logger     *slog.Logger
	now        func() time.Time
}

// NewPlanner wires the generation pipeline. ideas may be nil.
func NewPlanner(activities ActivitySource, ideas IdeaSource, model TextModel, outputDir string, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		activities: activities,
		ideas:      ideas,
		model:      model,
		outputDir:  outputDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate produces the plan and its spreadsheet. Any stage failure aborts
// generation; research is the one optional stage and only logs on failure.
func (p *Planner) Generate(ctx context.Context, req Request) (Result, error) {
	athlete, err := p.activities.Athlete(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch athlete profile: %w", err)
	}

	stats, err := p.activities.Stats(ctx, athlete.ID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch athlete stats: %w", err)
	}
	activitySummary := strava.Summarize(athlete, stats)

	var workoutIdeas string
	if p.ideas != nil {
		ideas, err := p.ideas.SearchWorkouts(ctx, dominantSport(stats), req.Goals)
		if err != nil {
			// Research enriches the prompt but is not required for a
			// usable plan.
			p.logger.Warn("workout research failed, planning without it",
				"athlete", req.AthleteName, "error", err)
		} else {
			workoutIdeas = research.FormatIdeas(ideas)
		}
	}

	weekStart := nextMonday(p.now())
	p.logger.Debug("requesting plan from model",
		"athlete", req.AthleteName, "model", p.model.Name(), "week_start", weekStart)

	response, err := p.model.GenerateWithSystem(ctx, systemPrompt,
		userPrompt(req.AthleteName, req.Goals, activitySummary, workoutIdeas, weekStart))
	if err != nil {
		return Result{}, fmt.Errorf("generate plan: %w", err)
	}

	week, err := plan.Parse(response, req.AthleteName, weekStart)
	if err != nil {
		return Result{}, fmt.Errorf("parse plan: %w", err)
	}

	path, err := excel.Write(week, string(job.KeyFor(req.AthleteName)), p.outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("write spreadsheet: %w", err)
	}

	return Result{Summary: week.Summary, ArtifactPath: path}, nil
}

// dominantSport picks the activity type with the most recent sessions, used
// to focus the workout research query.
func dominantSport(stats strava.Stats) string {
	type sport struct {
		name  string
		count int
	}
	sports := []sport{
		{"run", stats.RecentRunTotals.Count},
		{"bike", stats.RecentRideTotals.Count},
		{"swim", stats.RecentSwimTotals.Count},
	}
	best := sports[0]
	for _, s := range sports[1:] {
		if s.count > best.count {
			best = s
		}
	}
	return best.name
}

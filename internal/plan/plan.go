// Package plan defines the weekly training plan produced by the generator.
package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Workout is a single scheduled session in the weekly plan.
type Workout struct {
	Day         string `json:"day"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Duration    string `json:"duration"`
	Intensity   string `json:"intensity"`
	Description string `json:"description"`
}

// Week is a full weekly training program for one athlete.
type Week struct {
	AthleteName string
	WeekStart   time.Time
	Workouts    []Workout `json:"workouts"`
	Notes       string    `json:"notes"`

	// Summary is the planner's human-readable rationale, shown to the
	// client on the status endpoint.
	Summary string `json:"summary"`
}

// Parse decodes a model response into a Week. Models routinely wrap JSON in
// markdown fences or surround it with prose, so the parser extracts the
// outermost JSON object before decoding.
func Parse(response, athleteName string, weekStart time.Time) (Week, error) {
	raw := extractJSON(response)
	if raw == "" {
		return Week{}, fmt.Errorf("no JSON object in model response")
	}

	var week Week
	if err := json.Unmarshal([]byte(raw), &week); err != nil {
		return Week{}, fmt.Errorf("decode plan: %w", err)
	}

	if len(week.Workouts) == 0 {
		return Week{}, fmt.Errorf("plan contains no workouts")
	}
	for i, w := range week.Workouts {
		if strings.TrimSpace(w.Day) == "" {
			return Week{}, fmt.Errorf("workout %d has no day", i)
		}
		if strings.TrimSpace(w.Title) == "" {
			return Week{}, fmt.Errorf("workout %d (%s) has no title", i, w.Day)
		}
	}

	if week.Summary == "" {
		week.Summary = fmt.Sprintf("Weekly training plan for %s with %d sessions.",
			athleteName, len(week.Workouts))
	}

	week.AthleteName = athleteName
	week.WeekStart = weekStart
	return week, nil
}

// extractJSON returns the outermost {...} object in s, tolerating ```json
// fences and leading/trailing prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

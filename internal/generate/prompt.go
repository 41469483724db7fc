package generate

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = `You are a professional training planner assistant that creates personalized weekly workout programs based on an athlete's recent Strava activities.

The weekly plan must:
- Be tailored to the athlete's demonstrated fitness level and activity preferences
- Include variety in workout types and intensities
- Allow adequate recovery between intense sessions
- Include specific workout details (duration, intensity, description)
- Align with any specific goals the athlete mentions

Respond with a single JSON object and nothing else:
{
  "summary": "short explanation of the plan and your reasoning",
  "notes": "general advice for the week",
  "workouts": [
    {"day": "Monday", "title": "...", "type": "Run|Bike|Swim|Strength|Rest", "duration": "60 min", "intensity": "Easy|Moderate|Hard", "description": "..."}
  ]
}
Include an entry for every day of the week, using type "Rest" for rest days.`

// userPrompt assembles the planning request from the gathered material.
func userPrompt(athleteName, goals, activitySummary, workoutIdeas string, weekStart time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Create a personalized weekly training plan for athlete %s for the week starting %s.\n",
		athleteName, weekStart.Format("Monday, 2006-01-02"))
	if goals != "" {
		fmt.Fprintf(&b, "The athlete's goals are: %s\n", goals)
	}

	b.WriteString("\nRecent Strava activity:\n")
	b.WriteString(activitySummary)

	if workoutIdeas != "" {
		b.WriteString("\n")
		b.WriteString(workoutIdeas)
	}

	return b.String()
}

// nextMonday returns the first Monday strictly after t, the start of the week
// being planned.
func nextMonday(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}

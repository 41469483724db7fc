package strava

import (
	"fmt"
	"strings"
)

// Summarize renders the athlete's profile and totals as plain text for the
// planning prompt. Distances come back from Strava in meters and moving time
// in seconds; the summary uses km and hours.
func Summarize(athlete Athlete, stats Stats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Athlete: %s %s", athlete.FirstName, athlete.LastName)
	if loc := location(athlete); loc != "" {
		fmt.Fprintf(&b, " (%s)", loc)
	}
	b.WriteString("\n")
	if athlete.Weight > 0 {
		fmt.Fprintf(&b, "Weight: %.1f kg\n", athlete.Weight)
	}
	if athlete.FTP != nil {
		fmt.Fprintf(&b, "FTP: %.0f W\n", *athlete.FTP)
	}

	writeTotals(&b, "Recent rides (last 4 weeks)", stats.RecentRideTotals)
	writeTotals(&b, "Recent runs (last 4 weeks)", stats.RecentRunTotals)
	writeTotals(&b, "Recent swims (last 4 weeks)", stats.RecentSwimTotals)
	writeTotals(&b, "Year-to-date rides", stats.YTDRideTotals)
	writeTotals(&b, "Year-to-date runs", stats.YTDRunTotals)
	writeTotals(&b, "Year-to-date swims", stats.YTDSwimTotals)
	writeTotals(&b, "All-time rides", stats.AllRideTotals)
	writeTotals(&b, "All-time runs", stats.AllRunTotals)
	writeTotals(&b, "All-time swims", stats.AllSwimTotals)

	return b.String()
}

func location(athlete Athlete) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{athlete.City, athlete.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func writeTotals(b *strings.Builder, label string, t Totals) {
	if t.Count == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %d activities, %.2f km, %.2f hours moving", label,
		t.Count, t.Distance/1000, float64(t.MovingTime)/3600)
	if t.ElevationGain > 0 {
		fmt.Fprintf(b, ", %.0f m elevation gain", t.ElevationGain)
	}
	b.WriteString("\n")
}

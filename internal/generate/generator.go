// Package generate produces training plans: it gathers the athlete's Strava
// history, asks an LLM for a weekly program, and writes the spreadsheet
// artifact.
package generate

import "context"

// Request is one plan generation order.
type Request struct {
	AthleteName string
	Goals       string
}

// Result is the outcome of a successful generation.
type Result struct {
	// Summary is the planner's explanation of the plan, surfaced on the
	// status endpoint.
	Summary string

	// ArtifactPath is the generated spreadsheet on disk.
	ArtifactPath string
}

// Generator produces a plan for an athlete. Implementations may take seconds
// to minutes and must honor ctx cancellation on their external calls.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

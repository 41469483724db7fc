package job

import "strings"

// Key identifies a training-plan job in the store.
type Key string

// KeyFor derives the lookup key for an athlete's display name.
//
// Normalization rule: trim surrounding whitespace, lowercase, and collapse
// every run of internal whitespace to a single underscore. "Jane Doe",
// " jane  doe " and "JANE DOE" all map to "jane_doe", so differently-cased
// submissions for the same athlete share one job.
func KeyFor(athleteName string) Key {
	fields := strings.Fields(strings.ToLower(athleteName))
	return Key(strings.Join(fields, "_"))
}

package pipeline

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
)

var (
	// ErrNoCompetitions is returned when a phase runs without any configured
	// competition.
	ErrNoCompetitions = errors.New("no competitions configured")
	// ErrFetchFailed marks a sync run in which at least one day could not be
	// fetched.
	ErrFetchFailed = errors.New("fetch failed")
)

// ResolveRange merges the spans of comps and caps the result at today.
func ResolveRange(comps []match.Competition, now time.Time) (dates.Range, error) {
	rng, ok := ConfiguredRange(comps)
	if !ok {
		return dates.Range{}, ErrNoCompetitions
	}
	return rng.Clamp(now), nil
}

// ConfiguredRange merges the spans of comps as configured, without capping
// the end at today.
func ConfiguredRange(comps []match.Competition) (dates.Range, bool) {
	spans := make([]dates.Range, 0, len(comps))
	for _, c := range comps {
		spans = append(spans, c.Span())
	}
	return dates.Resolve(spans...)
}

package cli

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/pipeline"
)

func (a *app) newStatsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stats [competition]",
		Short: "Report what is retrieved, parsed and archived",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := OutputFormat(strings.ToLower(format))
			if f != FormatText && f != FormatJSON {
				return errors.Newf("invalid format: %s (must be 'text' or 'json')", format)
			}

			comps, ok, err := a.competitions(cmd)
			if err != nil || !ok {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			result, err := collectStats(comps, a.stores(), name)
			if err != nil {
				return err
			}
			return WriteOutput(cmd.OutOrStdout(), result, f)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(FormatText), "Output format: text or json")
	return cmd
}

// collectStats reports on the configured range as written in the
// competitions file, future days included. With a name, the archive of that
// competition is described too.
func collectStats(comps []match.Competition, s stores, name string) (*StatsResult, error) {
	rng, ok := pipeline.ConfiguredRange(comps)
	if !ok {
		return nil, pipeline.ErrNoCompetitions
	}

	result := &StatsResult{
		Competitions: make([]CompetitionInfo, 0, len(comps)),
		Start:        rng.Start.Format(dates.ConfigLayout),
		End:          rng.End.Format(dates.ConfigLayout),
		TotalDays:    rng.Len(),
	}
	for _, c := range comps {
		result.Competitions = append(result.Competitions, CompetitionInfo{
			Name:  c.Name,
			Year:  c.Year,
			Start: c.Start.Format(dates.ConfigLayout),
			End:   c.End.Format(dates.ConfigLayout),
		})
	}

	for _, year := range rng.Years() {
		retrieved, err := s.snapshots.Retrieved(year)
		if err != nil {
			return nil, err
		}
		result.RetrievedDays += countIn(rng, retrieved)

		parsed, err := s.cache.Parsed(year)
		if err != nil {
			return nil, err
		}
		result.ParsedDays += countIn(rng, parsed)
	}
	result.MissingDays = result.TotalDays - result.RetrievedDays

	if name == "" {
		return result, nil
	}
	if !s.archives.Exists(name) {
		return nil, errors.Newf("no archive for %q, run build first", name)
	}
	archive, err := s.archives.Load(name)
	if err != nil {
		return nil, err
	}
	stats := &ArchiveStats{Name: name, Matches: archive.Matches(), Levels: make([]LevelStats, 0, len(archive))}
	for _, bucket := range archive {
		if len(bucket) == 0 {
			continue
		}
		stats.Levels = append(stats.Levels, LevelStats{Level: bucket[0].Competition.Level, Matches: len(bucket)})
	}
	result.Archive = stats
	return result, nil
}

func countIn(rng dates.Range, days []dates.Key) int {
	n := 0
	for _, d := range days {
		if rng.Contains(d) {
			n++
		}
	}
	return n
}

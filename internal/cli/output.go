package cli

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// CompetitionInfo is one configured competition as listed by stats.
type CompetitionInfo struct {
	Name  string `json:"name"`
	Year  string `json:"year"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// LevelStats counts the matches of one archive level.
type LevelStats struct {
	Level   string `json:"level"`
	Matches int    `json:"matches"`
}

// ArchiveStats describes the archive of one competition.
type ArchiveStats struct {
	Name    string       `json:"name"`
	Matches int          `json:"matches"`
	Levels  []LevelStats `json:"levels"`
}

// StatsResult contains data to be output
type StatsResult struct {
	Competitions  []CompetitionInfo `json:"competitions"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	TotalDays     int               `json:"total_days"`
	RetrievedDays int               `json:"retrieved_days"`
	MissingDays   int               `json:"missing_days"`
	ParsedDays    int               `json:"parsed_days"`
	Archive       *ArchiveStats     `json:"archive,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *StatsResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return errors.Newf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *StatsResult) error {
	encoder := sonic.ConfigStd.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *StatsResult) error {
	fmt.Fprintln(w, "Competitions:")
	for _, c := range result.Competitions {
		fmt.Fprintf(w, "  %s - %s\n", c.Name, c.Year)
	}

	fmt.Fprintf(w, "\nRange: %s - %s\n", result.Start, result.End)
	fmt.Fprintf(w, "Days: %d total, %d retrieved, %d missing, %d parsed\n",
		result.TotalDays, result.RetrievedDays, result.MissingDays, result.ParsedDays)

	if a := result.Archive; a != nil {
		fmt.Fprintf(w, "\n%s: %d levels, %d matches\n", a.Name, len(a.Levels), a.Matches)
		for _, l := range a.Levels {
			fmt.Fprintf(w, "  %s: %d\n", l.Level, l.Matches)
		}
	}
	return nil
}

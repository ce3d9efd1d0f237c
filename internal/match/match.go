package match

import (
	"time"

	"github.com/guedou/ippon/internal/dates"
)

// Competition is one configured competition. Identity is Name.
type Competition struct {
	Name  string
	Year  string
	Start time.Time
	End   time.Time
}

// Span returns the configured day range of the competition.
func (c Competition) Span() dates.Range {
	return dates.NewRange(c.Start, c.End)
}

// Goal is one goal as listed under a team. Scorer is always set on extracted
// goals; Time and Type are nil when the page did not show them.
type Goal struct {
	Scorer *string `json:"scorer"`
	Time   *string `json:"time"`
	Type   *string `json:"type"`
}

// TeamSide is one of the two teams of a match.
type TeamSide struct {
	Name  string `json:"name"`
	Logo  string `json:"logo"`
	Score *int   `json:"score"`
	Rank  *int   `json:"rank"`
	Goals []Goal `json:"goals"`
}

// CompetitionRef names the competition and level a match was played in.
type CompetitionRef struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// Record is one finished match found on a day's page.
type Record struct {
	Sport       string         `json:"sport"`
	Date        dates.Key      `json:"date"`
	Competition CompetitionRef `json:"competition"`
	Teams       [2]TeamSide    `json:"teams"`
}

// Home returns the first listed side.
func (r Record) Home() TeamSide { return r.Teams[0] }

// Away returns the second listed side.
func (r Record) Away() TeamSide { return r.Teams[1] }

// Archive is the build output for one competition: level buckets ordered by
// the earliest day present in each bucket.
type Archive [][]Record

// Matches counts the records across all levels.
func (a Archive) Matches() int {
	n := 0
	for _, level := range a {
		n += len(level)
	}
	return n
}

// Levels lists the level label of every bucket, in archive order.
func (a Archive) Levels() []string {
	levels := make([]string, 0, len(a))
	for _, bucket := range a {
		if len(bucket) == 0 {
			continue
		}
		levels = append(levels, bucket[0].Competition.Level)
	}
	return levels
}

// LogoURLs returns the distinct team logo URLs of the archive in first-seen order.
func (a Archive) LogoURLs() []string {
	seen := make(map[string]bool)
	urls := make([]string, 0)
	for _, bucket := range a {
		for _, rec := range bucket {
			for _, side := range rec.Teams {
				if side.Logo == "" || seen[side.Logo] {
					continue
				}
				seen[side.Logo] = true
				urls = append(urls, side.Logo)
			}
		}
	}
	return urls
}

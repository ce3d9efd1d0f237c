package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/storage"
)

const sport = "Football"

type fakeFetcher struct {
	calls []dates.Key
	fail  map[dates.Key]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, day dates.Key, sport string) ([]byte, error) {
	f.calls = append(f.calls, day)
	if f.fail[day] {
		return nil, errors.Newf("connection reset fetching %s", day)
	}
	return []byte("<html>" + string(day) + "</html>"), nil
}

type fakeExtractor struct {
	byDay map[dates.Key][]match.Record
	calls int
	err   error
}

func (e *fakeExtractor) Extract(day dates.Key, page []byte) ([]match.Record, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.byDay[day], nil
}

func competition(t *testing.T, name, start, end string) match.Competition {
	t.Helper()
	s, err := dates.ParseConfigDate(start)
	require.NoError(t, err)
	e, err := dates.ParseConfigDate(end)
	require.NoError(t, err)
	return match.Competition{Name: name, Year: s.Format("2006"), Start: s, End: e}
}

func rec(name, level, day, home, away string) match.Record {
	one, two := 1, 2
	return match.Record{
		Sport:       sport,
		Date:        dates.Key(day),
		Competition: match.CompetitionRef{Name: name, Level: level},
		Teams: [2]match.TeamSide{
			{Name: home, Logo: "https://medias.lequipe.fr/logo/" + home, Score: &two, Goals: []match.Goal{}},
			{Name: away, Logo: "https://medias.lequipe.fr/logo/" + away, Score: &one, Goals: []match.Goal{}},
		},
	}
}

func fixedNow(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 18, 30, 0, 0, time.UTC) }
}

func newTestSyncer(raw storage.Blobs, fetcher *fakeFetcher, now func() time.Time) *Syncer {
	s := NewSyncer(storage.NewSnapshots(raw, sport), fetcher, logger.Nop())
	s.metrics = logger.NewMetrics()
	s.now = now
	return s
}

type buildFixture struct {
	raw       storage.Blobs
	json      storage.Blobs
	archives  storage.Blobs
	extractor *fakeExtractor
	builder   *Builder
}

func newBuildFixture(raw, json, archives storage.Blobs, byDay map[dates.Key][]match.Record) *buildFixture {
	ex := &fakeExtractor{byDay: byDay}
	b := NewBuilder(
		storage.NewSnapshots(raw, sport),
		storage.NewDailyCache(json, sport),
		storage.NewArchives(archives),
		ex,
		logger.Nop(),
	)
	b.metrics = logger.NewMetrics()
	b.now = fixedNow(2025, time.June, 30)
	return &buildFixture{raw: raw, json: json, archives: archives, extractor: ex, builder: b}
}

func (f *buildFixture) fetched(t *testing.T, days ...dates.Key) {
	t.Helper()
	snaps := storage.NewSnapshots(f.raw, sport)
	for _, d := range days {
		require.NoError(t, snaps.Save(d, []byte("<html></html>")))
	}
}

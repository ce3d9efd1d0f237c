package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/storage"
)

func memoryFixture(byDay map[dates.Key][]match.Record) *buildFixture {
	return newBuildFixture(storage.NewMemory(), storage.NewMemory(), storage.NewMemory(), byDay)
}

func TestEnsure(t *testing.T) {
	day := dates.Key("20240810")

	t.Run("empty extraction is not cached", func(t *testing.T) {
		f := memoryFixture(nil)
		f.fetched(t, day)

		written, err := f.builder.Ensure(day)
		require.NoError(t, err)
		assert.False(t, written)
		assert.False(t, f.builder.cache.Exists(day))
		assert.Equal(t, 1, f.extractor.calls)

		// A later call parses the page again and caches what it finds
		f.extractor.byDay = map[dates.Key][]match.Record{
			day: {rec("Ligue 1", "1re journée", "20240810", "Lens", "Brest")},
		}
		written, err = f.builder.Ensure(day)
		require.NoError(t, err)
		assert.True(t, written)
		assert.Equal(t, 2, f.extractor.calls)

		got, err := f.builder.cache.Load(day)
		require.NoError(t, err)
		assert.Equal(t, f.extractor.byDay[day], got)

		// Cached days are not parsed again
		written, err = f.builder.Ensure(day)
		require.NoError(t, err)
		assert.False(t, written)
		assert.Equal(t, 2, f.extractor.calls)
	})

	t.Run("no page", func(t *testing.T) {
		f := memoryFixture(map[dates.Key][]match.Record{
			day: {rec("Ligue 1", "1re journée", "20240810", "Lens", "Brest")},
		})

		written, err := f.builder.Ensure(day)
		require.NoError(t, err)
		assert.False(t, written)
		assert.Zero(t, f.extractor.calls)
		assert.False(t, f.builder.cache.Exists(day))
	})

	t.Run("extraction error", func(t *testing.T) {
		f := memoryFixture(nil)
		f.fetched(t, day)
		f.extractor.err = errors.New("broken page")

		_, err := f.builder.Ensure(day)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "20240810")
		assert.False(t, f.builder.cache.Exists(day))
	})

	t.Run("corrupt page", func(t *testing.T) {
		dir := t.TempDir()
		raw := storage.NewFS(filepath.Join(dir, "raw"), storage.RawExt)
		f := newBuildFixture(raw, storage.NewMemory(), storage.NewMemory(), nil)

		require.NoError(t, os.MkdirAll(filepath.Dir(raw.Path("2024/20240810."+sport)), 0o755))
		require.NoError(t, os.WriteFile(raw.Path("2024/20240810."+sport), []byte("\x1f\x8b truncated"), 0o644))

		_, err := f.builder.Ensure(day)
		require.Error(t, err)
		assert.Zero(t, f.extractor.calls)
	})
}

func TestAggregate_OrdersLevelsByEarliestDay(t *testing.T) {
	f := memoryFixture(nil)
	cache := f.builder.cache

	require.NoError(t, cache.Save("20240803", []match.Record{
		rec("Ligue 1", "B", "20240803", "Lens", "Brest"),
		rec("Coupe de France", "B", "20240803", "Rodez", "Nancy"),
	}))
	require.NoError(t, cache.Save("20240810", []match.Record{
		rec("Ligue 1", "A", "20240810", "Nice", "Lille"),
		rec("Ligue 1", "A", "20240810", "Nantes", "Auxerre"),
	}))
	require.NoError(t, cache.Save("20240817", []match.Record{
		rec("Ligue 1", "A", "20240817", "Lyon", "Metz"),
		rec("Ligue 1", "B", "20240817", "Reims", "Angers"),
	}))

	rng := dates.NewRange(dates.Key("20240801").Time(), dates.Key("20240831").Time())
	archive, err := f.builder.Aggregate("Ligue 1", rng)
	require.NoError(t, err)

	require.Len(t, archive, 2)
	assert.Equal(t, []string{"B", "A"}, archive.Levels())
	assert.Equal(t, 5, archive.Matches())

	var homes []string
	for _, r := range archive[0] {
		homes = append(homes, r.Home().Name)
	}
	assert.Equal(t, []string{"Lens", "Reims"}, homes)

	homes = nil
	for _, r := range archive[1] {
		homes = append(homes, r.Home().Name)
	}
	assert.Equal(t, []string{"Nice", "Nantes", "Lyon"}, homes, "records keep day then page order")
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	f := memoryFixture(nil)
	require.NoError(t, f.builder.cache.Save("20240901", []match.Record{
		rec("Ligue des champions", "Groupe C", "20240901", "Brest", "Sturm"),
		rec("Ligue des champions", "Groupe A", "20240901", "Monaco", "Barcelone"),
		rec("Ligue des champions", "Groupe B", "20240901", "Lille", "Sporting"),
	}))

	rng := dates.NewRange(dates.Key("20240901").Time(), dates.Key("20240901").Time())
	archive, err := f.builder.Aggregate("Ligue des champions", rng)
	require.NoError(t, err)
	assert.Equal(t, []string{"Groupe C", "Groupe A", "Groupe B"}, archive.Levels())
}

func TestAggregate_OnlyRangeDays(t *testing.T) {
	f := memoryFixture(nil)
	require.NoError(t, f.builder.cache.Save("20240731", []match.Record{rec("Ligue 1", "A", "20240731", "Lens", "Brest")}))
	require.NoError(t, f.builder.cache.Save("20240801", []match.Record{rec("Ligue 1", "A", "20240801", "Nice", "Lille")}))

	rng := dates.NewRange(dates.Key("20240801").Time(), dates.Key("20240805").Time())
	archive, err := f.builder.Aggregate("Ligue 1", rng)
	require.NoError(t, err)
	require.Len(t, archive, 1)
	require.Len(t, archive[0], 1)
	assert.Equal(t, "Nice", archive[0][0].Home().Name)

	archive, err = f.builder.Aggregate("Serie A", rng)
	require.NoError(t, err)
	assert.NotNil(t, archive)
	assert.Empty(t, archive)
}

func TestAggregate_CorruptCache(t *testing.T) {
	f := memoryFixture(nil)
	require.NoError(t, f.json.Save("2024/20240810."+sport, []byte(`[{"sport":`)))

	rng := dates.NewRange(dates.Key("20240801").Time(), dates.Key("20240831").Time())
	_, err := f.builder.Aggregate("Ligue 1", rng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20240810")
}

func TestBuild(t *testing.T) {
	byDay := map[dates.Key][]match.Record{
		"20240803": {rec("Ligue 1", "B", "20240803", "Lens", "Brest")},
		"20240810": {
			rec("Ligue 1", "A", "20240810", "Nice", "Lille"),
			rec("Coupe de France", "32es de finale", "20240810", "Rodez", "Nancy"),
		},
	}
	f := memoryFixture(byDay)
	f.fetched(t, "20240803", "20240805", "20240810")

	comps := []match.Competition{
		competition(t, "Ligue 1", "01/08/2024", "31/05/2025"),
		competition(t, "Coupe de France", "01/08/2024", "31/05/2025"),
		competition(t, "Ligue 1", "01/08/2024", "31/05/2025"),
	}

	report, err := f.builder.Build(context.Background(), comps)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Parsed, "the empty day is not cached")
	assert.Equal(t, 304, report.Days)
	assert.Equal(t, []ArchiveSummary{
		{Name: "Ligue 1", Levels: 2, Matches: 2},
		{Name: "Coupe de France", Levels: 1, Matches: 1},
	}, report.Archives)

	archives := storage.NewArchives(f.archives)
	l1, err := archives.Load("Ligue 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, l1.Levels())
	assert.Equal(t, 1, f.archives.(*storage.Memory).Saves("Ligue 1"), "a name listed twice is built once")

	// A second build parses only the day that found nothing
	calls := f.extractor.calls
	report, err = f.builder.Build(context.Background(), comps)
	require.NoError(t, err)
	assert.Zero(t, report.Parsed)
	assert.Equal(t, calls+1, f.extractor.calls)
}

func TestBuild_Idempotent(t *testing.T) {
	dir := t.TempDir()
	raw := storage.NewFS(filepath.Join(dir, "data", "raw"), storage.RawExt)
	json := storage.NewFS(filepath.Join(dir, "data", "json"), storage.JSONExt)
	out := storage.NewFS(filepath.Join(dir, "competitions"), storage.JSONExt)

	byDay := map[dates.Key][]match.Record{
		"20240803": {rec("Ligue 1", "B", "20240803", "Lens", "Brest")},
		"20240810": {rec("Ligue 1", "A", "20240810", "Nice", "Lille")},
	}
	f := newBuildFixture(raw, json, out, byDay)
	f.fetched(t, "20240803", "20240810")
	comps := []match.Competition{competition(t, "Ligue 1", "01/08/2024", "31/08/2024")}

	_, err := f.builder.Build(context.Background(), comps)
	require.NoError(t, err)
	first, err := os.ReadFile(out.Path("Ligue 1"))
	require.NoError(t, err)

	// Rebuild from the caches alone
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "competitions")))
	_, err = f.builder.Build(context.Background(), comps)
	require.NoError(t, err)
	second, err := os.ReadFile(out.Path("Ligue 1"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_NoCompetitions(t *testing.T) {
	f := memoryFixture(nil)
	_, err := f.builder.Build(context.Background(), []match.Competition{})
	assert.True(t, errors.Is(err, ErrNoCompetitions))
}

func TestBuild_Canceled(t *testing.T) {
	f := memoryFixture(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.builder.Build(ctx, []match.Competition{competition(t, "Ligue 1", "01/08/2024", "05/08/2024")})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, f.archives.(*storage.Memory).Len())
}

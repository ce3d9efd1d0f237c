package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guedou/ippon/internal/config"
	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/storage"
)

const testConfig = `
[competition.ligue1]
name = Ligue 1
year = 2024
start = 18/08/2024
end = 19/08/2024

[competition.cdf]
name = Coupe de France
start = 18/08/2024
end = 19/08/2024
`

func run(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	prev := logger.Default()
	t.Cleanup(func() { logger.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--home", home, "--log-format", "json"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resultsServer serves the fixture page for 20240818 and an empty page for
// any other day.
func resultsServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	page, err := os.ReadFile("../scraper/testdata/lives_20240818.html")
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/Football/Directs/20240818" {
			w.Write(page)
			return
		}
		w.Write([]byte("<html><body></body></html>"))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("IPPON_BASE_URL", srv.URL)
	return srv, &hits
}

func writeConfig(t *testing.T, home, doc string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.ini"), []byte(doc), 0o644))
}

func TestMissingConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "ippon")

	for _, sub := range []string{"sync", "build", "logo", "stats"} {
		t.Run(sub, func(t *testing.T) {
			_, stderr, err := run(t, home, sub)
			require.NoError(t, err)
			assert.Contains(t, stderr, filepath.Join(home, "config.ini")+" not found!")
		})
	}

	p := config.Paths{Home: home}
	for _, dir := range []string{p.RawDir(), p.JSONDir(), p.CompetitionsDir(), p.LogosDir()} {
		assert.DirExists(t, dir)
	}
}

func TestInvalidConfig(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, "[ligue1]\nname = Ligue 1\n")

	_, _, err := run(t, home, "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid section name")
}

func TestSyncBuildStats(t *testing.T) {
	_, hits := resultsServer(t)
	home := t.TempDir()
	writeConfig(t, home, testConfig)

	_, stderr, err := run(t, home, "sync")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Contains(t, stderr, "snapshot retrieved")
	assert.Contains(t, stderr, `"run_id"`)
	assert.FileExists(t, filepath.Join(home, "data", "raw", "2024", "20240818.Football.html.gz"))
	assert.FileExists(t, filepath.Join(home, "data", "raw", "2024", "20240819.Football.html.gz"))

	// Nothing left to fetch
	_, _, err = run(t, home, "sync", "--max", "5")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	_, stderr, err = run(t, home, "build")
	require.NoError(t, err)
	assert.Contains(t, stderr, "archive written")
	assert.FileExists(t, filepath.Join(home, "data", "json", "2024", "20240818.Football.json.gz"))
	assert.NoFileExists(t, filepath.Join(home, "data", "json", "2024", "20240819.Football.json.gz"))

	archives := storage.NewArchives(storage.NewFS(filepath.Join(home, "competitions"), storage.JSONExt))
	l1, err := archives.Load("Ligue 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1re journée"}, l1.Levels())
	assert.Equal(t, 2, l1.Matches())
	cdf, err := archives.Load("Coupe de France")
	require.NoError(t, err)
	assert.Equal(t, 1, cdf.Matches())

	t.Run("stats json", func(t *testing.T) {
		stdout, _, err := run(t, home, "stats", "Ligue 1", "--format", "json")
		require.NoError(t, err)

		var result StatsResult
		require.NoError(t, sonic.Unmarshal([]byte(stdout), &result))
		assert.Equal(t, "18/08/2024", result.Start)
		assert.Equal(t, "19/08/2024", result.End)
		assert.Equal(t, 2, result.TotalDays)
		assert.Equal(t, 2, result.RetrievedDays)
		assert.Zero(t, result.MissingDays)
		assert.Equal(t, 1, result.ParsedDays)
		require.Len(t, result.Competitions, 2)
		assert.Equal(t, CompetitionInfo{Name: "Coupe de France", Year: "2024", Start: "18/08/2024", End: "19/08/2024"}, result.Competitions[1])
		require.NotNil(t, result.Archive)
		assert.Equal(t, []LevelStats{{Level: "1re journée", Matches: 2}}, result.Archive.Levels)
	})

	t.Run("stats text", func(t *testing.T) {
		stdout, _, err := run(t, home, "stats")
		require.NoError(t, err)
		assert.Contains(t, stdout, "  Ligue 1 - 2024\n")
		assert.Contains(t, stdout, "Range: 18/08/2024 - 19/08/2024\n")
		assert.Contains(t, stdout, "Days: 2 total, 2 retrieved, 0 missing, 1 parsed\n")
		assert.False(t, strings.Contains(stdout, "levels"))
	})

	t.Run("stats unknown archive", func(t *testing.T) {
		_, _, err := run(t, home, "stats", "Serie A")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Serie A")
	})

	t.Run("stats bad format", func(t *testing.T) {
		_, _, err := run(t, home, "stats", "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}

func TestWriteOutput_Text(t *testing.T) {
	var buf bytes.Buffer
	result := &StatsResult{
		Competitions:  []CompetitionInfo{{Name: "Ligue 1", Year: "2024"}},
		Start:         "01/08/2024",
		End:           "31/05/2025",
		TotalDays:     304,
		RetrievedDays: 100,
		MissingDays:   204,
		ParsedDays:    40,
		Archive: &ArchiveStats{
			Name:    "Ligue 1",
			Matches: 18,
			Levels:  []LevelStats{{Level: "1re journée", Matches: 9}, {Level: "2e journée", Matches: 9}},
		},
	}
	require.NoError(t, WriteOutput(&buf, result, FormatText))

	want := `Competitions:
  Ligue 1 - 2024

Range: 01/08/2024 - 31/05/2025
Days: 304 total, 100 retrieved, 204 missing, 40 parsed

Ligue 1: 2 levels, 18 matches
  1re journée: 9
  2e journée: 9
`
	assert.Equal(t, want, buf.String())
	assert.Error(t, WriteOutput(&buf, result, OutputFormat("yaml")))
}

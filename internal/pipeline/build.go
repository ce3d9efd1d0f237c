package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/storage"
)

// Extractor turns the raw page of a day into match records.
type Extractor interface {
	Extract(day dates.Key, page []byte) ([]match.Record, error)
}

// ArchiveSummary describes one archive written by Build.
type ArchiveSummary struct {
	Name    string
	Levels  int
	Matches int
}

// BuildReport summarizes one build run.
type BuildReport struct {
	Range    dates.Range
	Days     int
	Parsed   int
	Archives []ArchiveSummary
}

// Builder parses raw pages into per-day caches and aggregates them into
// competition archives.
type Builder struct {
	snapshots *storage.Snapshots
	cache     *storage.DailyCache
	archives  *storage.Archives
	extractor Extractor
	logger    *logger.Logger
	metrics   *logger.Metrics
	now       func() time.Time
}

// NewBuilder creates a builder. A nil log uses the package default logger.
func NewBuilder(snapshots *storage.Snapshots, cache *storage.DailyCache, archives *storage.Archives, extractor Extractor, log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Default()
	}
	return &Builder{
		snapshots: snapshots,
		cache:     cache,
		archives:  archives,
		extractor: extractor,
		logger:    log,
		metrics:   logger.DefaultMetrics(),
		now:       time.Now,
	}
}

// Ensure makes sure day has a match cache when its raw page is present. It
// does nothing when the cache already exists or was never fetched. An
// extraction that finds no match is not cached, so the day is parsed again
// on the next call. The returned flag reports whether a cache was written.
func (b *Builder) Ensure(day dates.Key) (bool, error) {
	if b.cache.Exists(day) || !b.snapshots.Exists(day) {
		return false, nil
	}

	page, err := b.snapshots.Load(day)
	if err != nil {
		return false, errors.Wrapf(err, "loading page of %s", day)
	}

	start := time.Now()
	records, err := b.extractor.Extract(day, page)
	if err != nil {
		return false, errors.Wrapf(err, "extracting matches of %s", day)
	}
	b.metrics.RecordTiming("build.extract", time.Since(start))

	if len(records) == 0 {
		b.logger.Debug("no matches extracted", logger.Fields{"date": string(day)})
		return false, nil
	}
	if err := b.cache.Save(day, records); err != nil {
		return false, errors.Wrapf(err, "saving matches of %s", day)
	}
	b.metrics.IncrCounter("build.parsed")

	b.logger.Info("matches extracted", logger.Fields{
		"date":    string(day),
		"matches": len(records),
	})
	return true, nil
}

type bucket struct {
	first   int
	records []match.Record
}

// Aggregate collects the cached records of competition name over rng and
// groups them by level. Buckets are ordered by the earliest day they contain.
// Within a bucket records keep day order then page order.
func (b *Builder) Aggregate(name string, rng dates.Range) (match.Archive, error) {
	var buckets []*bucket
	byLevel := make(map[string]*bucket)

	for day := range rng.Days() {
		if !b.cache.Exists(day) {
			continue
		}
		records, err := b.cache.Load(day)
		if err != nil {
			return nil, errors.Wrapf(err, "loading matches of %s", day)
		}
		for _, rec := range records {
			if rec.Competition.Name != name {
				continue
			}
			bk, ok := byLevel[rec.Competition.Level]
			if !ok {
				bk = &bucket{first: rec.Date.Int()}
				byLevel[rec.Competition.Level] = bk
				buckets = append(buckets, bk)
			}
			bk.first = min(bk.first, rec.Date.Int())
			bk.records = append(bk.records, rec)
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].first < buckets[j].first
	})

	archive := make(match.Archive, 0, len(buckets))
	for _, bk := range buckets {
		archive = append(archive, bk.records)
	}
	return archive, nil
}

// Build parses every day of the range resolved from comps, then rewrites the
// archive of each competition. A competition name listed twice is built once.
func (b *Builder) Build(ctx context.Context, comps []match.Competition) (BuildReport, error) {
	rng, err := ResolveRange(comps, b.now())
	if err != nil {
		return BuildReport{}, err
	}
	report := BuildReport{Range: rng, Days: rng.Len()}

	b.logger.Info("build starting", logger.Fields{
		"start": string(dates.KeyOf(rng.Start)),
		"end":   string(dates.KeyOf(rng.End)),
		"days":  report.Days,
	})

	for day := range rng.Days() {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "build interrupted")
		}
		written, err := b.Ensure(day)
		if err != nil {
			return report, err
		}
		if written {
			report.Parsed++
		}
	}

	built := make(map[string]bool)
	for _, comp := range comps {
		if built[comp.Name] {
			continue
		}
		built[comp.Name] = true

		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "build interrupted")
		}
		archive, err := b.Aggregate(comp.Name, rng)
		if err != nil {
			return report, errors.Wrapf(err, "aggregating %q", comp.Name)
		}
		if err := b.archives.Save(comp.Name, archive); err != nil {
			return report, errors.Wrapf(err, "saving archive of %q", comp.Name)
		}

		summary := ArchiveSummary{Name: comp.Name, Levels: len(archive), Matches: archive.Matches()}
		report.Archives = append(report.Archives, summary)
		b.metrics.IncrCounter("build.archives")

		b.logger.Info("archive written", logger.Fields{
			"competition": summary.Name,
			"levels":      summary.Levels,
			"matches":     summary.Matches,
		})
	}

	b.logger.Info("build finished", logger.Fields{
		"parsed":   report.Parsed,
		"archives": len(report.Archives),
	})
	return report, nil
}

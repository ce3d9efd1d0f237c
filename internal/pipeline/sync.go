package pipeline

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/scraper"
	"github.com/guedou/ippon/internal/storage"
)

// Unlimited disables the per-run fetch limit of Sync.
const Unlimited = -1

// SyncReport summarizes one sync run.
type SyncReport struct {
	Range     dates.Range
	Needed    int
	Retrieved int
	Missing   int
	Fetched   int
	Skipped   int
	Failed    []dates.Key
}

// Syncer fetches the raw pages of the days that have none yet.
type Syncer struct {
	snapshots *storage.Snapshots
	fetcher   scraper.Fetcher
	logger    *logger.Logger
	metrics   *logger.Metrics
	now       func() time.Time
}

// NewSyncer creates a syncer storing pages in snapshots. A nil log uses the
// package default logger.
func NewSyncer(snapshots *storage.Snapshots, fetcher scraper.Fetcher, log *logger.Logger) *Syncer {
	if log == nil {
		log = logger.Default()
	}
	return &Syncer{
		snapshots: snapshots,
		fetcher:   fetcher,
		logger:    log,
		metrics:   logger.DefaultMetrics(),
		now:       time.Now,
	}
}

// Sync fetches the missing days of the range resolved from comps, oldest
// first, at most limit of them when limit is not negative.
//
// A day that fails to fetch is logged and recorded in the report and the run
// moves on to the next day. The returned error then names every failed day
// and is marked ErrFetchFailed. A storage failure stops the run.
func (s *Syncer) Sync(ctx context.Context, comps []match.Competition, limit int) (SyncReport, error) {
	rng, err := ResolveRange(comps, s.now())
	if err != nil {
		return SyncReport{}, err
	}
	report := SyncReport{Range: rng, Needed: rng.Len()}

	missing, retrieved, err := s.missing(rng)
	if err != nil {
		return report, err
	}
	report.Retrieved = retrieved
	report.Missing = len(missing)

	if limit >= 0 && len(missing) > limit {
		missing = missing[:limit]
	}

	s.logger.Info("sync starting", logger.Fields{
		"sport":     s.snapshots.Sport(),
		"start":     string(dates.KeyOf(rng.Start)),
		"end":       string(dates.KeyOf(rng.End)),
		"needed":    report.Needed,
		"retrieved": report.Retrieved,
		"missing":   report.Missing,
		"to_fetch":  len(missing),
	})

	for _, day := range missing {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "sync interrupted")
		}

		// The page may have been written since the scan
		if s.snapshots.Exists(day) {
			report.Skipped++
			continue
		}

		start := time.Now()
		page, err := s.fetcher.Fetch(ctx, day, s.snapshots.Sport())
		if err != nil {
			if ctx.Err() != nil {
				return report, errors.Wrap(ctx.Err(), "sync interrupted")
			}
			s.logger.Error("fetch failed", logger.Fields{"date": string(day)}, err)
			s.metrics.IncrCounter("sync.failed")
			report.Failed = append(report.Failed, day)
			continue
		}
		if err := s.snapshots.Save(day, page); err != nil {
			return report, errors.Wrapf(err, "saving page of %s", day)
		}
		s.metrics.RecordTiming("sync.fetch", time.Since(start))
		s.metrics.IncrCounter("sync.fetched")
		report.Fetched++

		s.logger.Info("snapshot retrieved", logger.Fields{
			"date":  string(day),
			"bytes": len(page),
		})
	}

	s.logger.Info("sync finished", logger.Fields{
		"fetched": report.Fetched,
		"failed":  len(report.Failed),
	})

	if len(report.Failed) > 0 {
		return report, failedDays(report.Failed)
	}
	return report, nil
}

// missing lists the days of rng without a raw page, in ascending order, and
// how many days of rng already have one.
func (s *Syncer) missing(rng dates.Range) ([]dates.Key, int, error) {
	have := make(map[dates.Key]bool)
	for _, year := range rng.Years() {
		days, err := s.snapshots.Retrieved(year)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "scanning pages of %d", year)
		}
		for _, d := range days {
			have[d] = true
		}
	}

	var missing []dates.Key
	retrieved := 0
	for day := range rng.Days() {
		if have[day] {
			retrieved++
			continue
		}
		missing = append(missing, day)
	}
	slices.Sort(missing)
	return missing, retrieved, nil
}

func failedDays(days []dates.Key) error {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = string(d)
	}
	err := errors.Newf("%d day(s) could not be fetched: %s", len(days), strings.Join(names, ", "))
	return errors.Mark(err, ErrFetchFailed)
}

package storage

import (
	"path"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/dates"
	"github.com/guedou/ippon/internal/match"
)

// dayKey builds the key of a per-day document: <year>/<YYYYMMDD>.<sport>
func dayKey(day dates.Key, sport string) string {
	return path.Join(day.Year(), string(day)+"."+sport)
}

// daysIn lists the days of one year partition holding a document for sport.
// Names that do not follow the <YYYYMMDD>.<sport> convention are ignored.
func daysIn(b Blobs, year int, sport string) ([]dates.Key, error) {
	keys, err := b.List(strconv.Itoa(year))
	if err != nil {
		return nil, err
	}
	suffix := "." + sport
	days := make([]dates.Key, 0, len(keys))
	for _, k := range keys {
		name := path.Base(k)
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		day, err := dates.ParseKey(strings.TrimSuffix(name, suffix))
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	return days, nil
}

// Snapshots is the raw page cache: one document per (day, sport). Pages are
// write-once by contract; callers check Exists before fetching.
type Snapshots struct {
	blobs Blobs
	sport string
}

// NewSnapshots creates the raw page cache of sport on top of b.
func NewSnapshots(b Blobs, sport string) *Snapshots {
	return &Snapshots{blobs: b, sport: sport}
}

// Sport returns the sport tag the cache is keyed on.
func (s *Snapshots) Sport() string { return s.sport }

func (s *Snapshots) Exists(day dates.Key) bool {
	return s.blobs.Exists(dayKey(day, s.sport))
}

// Load returns the raw page of day, marked ErrNotFound when absent.
func (s *Snapshots) Load(day dates.Key) ([]byte, error) {
	return s.blobs.Load(dayKey(day, s.sport))
}

func (s *Snapshots) Save(day dates.Key, page []byte) error {
	return s.blobs.Save(dayKey(day, s.sport), page)
}

// Retrieved lists the days of year that already have a page.
func (s *Snapshots) Retrieved(year int) ([]dates.Key, error) {
	return daysIn(s.blobs, year, s.sport)
}

// DailyCache memoizes the matches extracted from each day's page.
type DailyCache struct {
	blobs Blobs
	sport string
}

// NewDailyCache creates the per-day match cache of sport on top of b.
func NewDailyCache(b Blobs, sport string) *DailyCache {
	return &DailyCache{blobs: b, sport: sport}
}

func (c *DailyCache) Exists(day dates.Key) bool {
	return c.blobs.Exists(dayKey(day, c.sport))
}

// Load decodes the matches cached for day. Undecodable content is an error.
func (c *DailyCache) Load(day dates.Key) ([]match.Record, error) {
	data, err := c.blobs.Load(dayKey(day, c.sport))
	if err != nil {
		return nil, err
	}
	var records []match.Record
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decoding matches of %s", day)
	}
	return records, nil
}

func (c *DailyCache) Save(day dates.Key, records []match.Record) error {
	data, err := sonic.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encoding matches of %s", day)
	}
	return c.blobs.Save(dayKey(day, c.sport), data)
}

// Parsed lists the days of year that already have cached matches.
func (c *DailyCache) Parsed(year int) ([]dates.Key, error) {
	return daysIn(c.blobs, year, c.sport)
}

// Archives stores one build output per competition name.
type Archives struct {
	blobs Blobs
}

// NewArchives creates the competition archive store on top of b.
func NewArchives(b Blobs) *Archives {
	return &Archives{blobs: b}
}

// archiveKey keeps a competition name usable as a single file name
func archiveKey(name string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(name)
}

func (a *Archives) Exists(name string) bool {
	return a.blobs.Exists(archiveKey(name))
}

func (a *Archives) Load(name string) (match.Archive, error) {
	data, err := a.blobs.Load(archiveKey(name))
	if err != nil {
		return nil, err
	}
	var archive match.Archive
	if err := sonic.Unmarshal(data, &archive); err != nil {
		return nil, errors.Wrapf(err, "decoding archive %q", name)
	}
	return archive, nil
}

// Save replaces the archive of name.
func (a *Archives) Save(name string, archive match.Archive) error {
	if archive == nil {
		archive = match.Archive{}
	}
	data, err := sonic.Marshal(archive)
	if err != nil {
		return errors.Wrapf(err, "encoding archive %q", name)
	}
	return a.blobs.Save(archiveKey(name), data)
}

package logo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/storage"
)

// Ext is the file extension of cached logos.
const Ext = ".png"

// Report counts the outcome of one logo sync.
type Report struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader fetches the logos of archived matches into a directory.
type Downloader struct {
	archives *storage.Archives
	dir      string
	client   *http.Client
	logger   *logger.Logger
	metrics  *logger.Metrics
}

// NewDownloader creates a downloader writing into dir. A nil client gets a
// default client with a 30s timeout; a nil log uses the package default.
func NewDownloader(archives *storage.Archives, dir string, client *http.Client, log *logger.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Downloader{
		archives: archives,
		dir:      dir,
		client:   client,
		logger:   log,
		metrics:  logger.DefaultMetrics(),
	}
}

// FileName returns the cache file name of a logo URL.
func FileName(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:]) + Ext
}

// Path returns where the logo of url is cached.
func (d *Downloader) Path(url string) string {
	return filepath.Join(d.dir, FileName(url))
}

// Sync downloads every missing logo of the archived competitions in comps.
// Competitions without an archive are skipped. A failed download is logged
// and counted, and the remaining logos are still fetched.
func (d *Downloader) Sync(ctx context.Context, comps []match.Competition) (Report, error) {
	var report Report
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return report, errors.Wrapf(err, "creating %s", d.dir)
	}

	seen := make(map[string]bool)
	for _, comp := range comps {
		if seen[comp.Name] || !d.archives.Exists(comp.Name) {
			continue
		}
		seen[comp.Name] = true

		archive, err := d.archives.Load(comp.Name)
		if err != nil {
			return report, errors.Wrapf(err, "loading archive of %q", comp.Name)
		}

		for _, url := range archive.LogoURLs() {
			if err := ctx.Err(); err != nil {
				return report, errors.Wrap(err, "logo sync interrupted")
			}

			path := d.Path(url)
			if _, err := os.Stat(path); err == nil {
				report.Skipped++
				continue
			}

			d.logger.Info("downloading logo", logger.Fields{"url": url})
			if err := d.download(ctx, url, path); err != nil {
				d.logger.Error("logo download failed", logger.Fields{"url": url}, err)
				d.metrics.IncrCounter("logo.failed")
				report.Failed++
				continue
			}
			d.metrics.IncrCounter("logo.downloaded")
			report.Downloaded++
		}
	}
	return report, nil
}

func (d *Downloader) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Newf("unexpected status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "reading %s", url)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	return nil
}

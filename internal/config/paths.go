package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	configFileName  = "config.ini"
	dataDirName     = "data"
	rawDirName      = "raw"
	jsonDirName     = "json"
	competitionsDir = "competitions"
	logosDir        = "logos"
)

// Paths locates every file and directory under one ippon home.
//
//	<home>/config.ini
//	<home>/data/raw/<year>/<YYYYMMDD>.<sport>.html.gz
//	<home>/data/json/<year>/<YYYYMMDD>.<sport>.json.gz
//	<home>/competitions/<name>.json.gz
//	<home>/logos/<md5(url)>.png
type Paths struct {
	Home string
}

func (p Paths) ConfigFile() string      { return filepath.Join(p.Home, configFileName) }
func (p Paths) DataDir() string         { return filepath.Join(p.Home, dataDirName) }
func (p Paths) RawDir() string          { return filepath.Join(p.Home, dataDirName, rawDirName) }
func (p Paths) JSONDir() string         { return filepath.Join(p.Home, dataDirName, jsonDirName) }
func (p Paths) CompetitionsDir() string { return filepath.Join(p.Home, competitionsDir) }
func (p Paths) LogosDir() string        { return filepath.Join(p.Home, logosDir) }

// Bootstrap creates the home directory tree when parts of it are missing.
func (p Paths) Bootstrap() error {
	for _, dir := range []string{p.Home, p.DataDir(), p.RawDir(), p.JSONDir(), p.CompetitionsDir(), p.LogosDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	return nil
}

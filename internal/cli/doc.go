// Package cli implements the command-line interface for ippon.
//
// The cli package provides the Cobra-based commands sync, build, logo and
// stats. Settings come from viper (flags, IPPON_* environment variables and
// an optional .env file); every run logs through a zap logger tagged with a
// run id. The commands wire the config, storage, scraper, pipeline and logo
// packages against the home directory layout.
package cli

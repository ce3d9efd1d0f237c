package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guedou/ippon/internal/config"
	"github.com/guedou/ippon/internal/logger"
	"github.com/guedou/ippon/internal/match"
	"github.com/guedou/ippon/internal/scraper"
	"github.com/guedou/ippon/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// app carries what every subcommand needs once settings are resolved.
type app struct {
	v        *viper.Viper
	verbose  bool
	settings config.Settings
	log      *logger.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:   "ippon",
		Short: "Collect football results into per-competition archives",
		Long: `A CLI tool that fetches the daily live-results pages of lequipe.fr,
keeps them in a local cache, and builds one archive of finished matches per
configured competition.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}

	flags := cmd.PersistentFlags()
	flags.String("home", config.DefaultHome, "Directory holding config.ini and the caches")
	flags.String("log-format", config.DefaultLogFormat, "Log format: console or json")
	flags.BoolVar(&a.verbose, "verbose", false, "Enable debug logging")
	_ = a.v.BindPFlag("home", flags.Lookup("home"))
	_ = a.v.BindPFlag("log_format", flags.Lookup("log-format"))

	cmd.AddCommand(
		a.newSyncCmd(),
		a.newBuildCmd(),
		a.newLogoCmd(),
		a.newStatsCmd(),
	)
	return cmd
}

// setup resolves settings, installs the run logger and bootstraps the home
// directory before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(a.v)
	if err != nil {
		return err
	}
	a.settings = settings

	level, err := logger.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	format, err := logger.ParseFormat(settings.LogFormat)
	if err != nil {
		return err
	}

	a.log = logger.New(level, format, cmd.ErrOrStderr()).With(logger.Fields{
		"run_id": uuid.NewString(),
	})
	logger.SetDefault(a.log)
	logger.DefaultMetrics().Reset()

	a.log.Debug("settings loaded", logger.Fields{
		"home":     settings.Home,
		"sport":    settings.Sport,
		"base_url": settings.BaseURL,
		"timeout":  settings.Timeout.String(),
	})
	return settings.Paths().Bootstrap()
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.log == nil {
		return
	}
	a.log.Debug("run metrics", logger.GetMetricsSnapshot().Fields())
	_ = a.log.Sync()
}

// competitions loads the competitions file. ok is false when the file does
// not exist: the message is printed and the command ends successfully.
func (a *app) competitions(cmd *cobra.Command) (comps []match.Competition, ok bool, err error) {
	path := a.settings.Paths().ConfigFile()
	comps, err = config.Load(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s not found!\n", path)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return comps, true, nil
}

// stores opens the three document caches of the home directory.
type stores struct {
	snapshots *storage.Snapshots
	cache     *storage.DailyCache
	archives  *storage.Archives
}

func (a *app) stores() stores {
	p := a.settings.Paths()
	return stores{
		snapshots: storage.NewSnapshots(storage.NewFS(p.RawDir(), storage.RawExt), a.settings.Sport),
		cache:     storage.NewDailyCache(storage.NewFS(p.JSONDir(), storage.JSONExt), a.settings.Sport),
		archives:  storage.NewArchives(storage.NewFS(p.CompetitionsDir(), storage.JSONExt)),
	}
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.settings.Timeout}
}

func (a *app) scraper() *scraper.Client {
	return scraper.New(a.settings.BaseURL, a.httpClient())
}

// Execute runs the CLI. An interrupt cancels the running phase between two
// days.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}

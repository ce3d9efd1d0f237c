package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IPPON_HOME.
const EnvPrefix = "IPPON"

const (
	DefaultHome      = "~/.config/ippon"
	DefaultSport     = "Football"
	DefaultBaseURL   = "https://www.lequipe.fr"
	DefaultTimeout   = 30 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Settings holds the runtime options of one invocation.
type Settings struct {
	Home      string        `mapstructure:"home"`
	Sport     string        `mapstructure:"sport"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
}

// Paths returns the home layout for these settings.
func (s Settings) Paths() Paths {
	return Paths{Home: s.Home}
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("home", DefaultHome)
	v.SetDefault("sport", DefaultSport)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
	return v
}

// LoadSettings loads an optional .env file into the environment, then
// resolves the settings from v. A leading ~/ in home is expanded.
func LoadSettings(v *viper.Viper) (Settings, error) {
	_ = godotenv.Load() // .env is optional

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.Wrap(err, "decoding settings")
	}

	home, err := expandHome(s.Home)
	if err != nil {
		return Settings{}, err
	}
	s.Home = home
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	s.Sport = strings.TrimSpace(s.Sport)

	switch {
	case s.Home == "":
		return Settings{}, errors.New("home directory is empty")
	case s.Sport == "":
		return Settings{}, errors.New("sport is empty")
	case s.BaseURL == "":
		return Settings{}, errors.New("base_url is empty")
	case s.Timeout <= 0:
		s.Timeout = DefaultTimeout
	}
	return s, nil
}

func expandHome(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(dir[1:], "/")), nil
}

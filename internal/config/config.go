package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/mutker/frltoggle/internal/errors"
	"codeberg.org/mutker/frltoggle/internal/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName         = "frltoggle"
	EnvPrefix       = "FRLTOGGLE"
	DefaultLogLevel = "warning"

	configName = "frltoggle"
	configType = "toml"
)

type Config struct {
	LogLevel     string `mapstructure:"log_level"`
	SavedFPSPath string `mapstructure:"saved_fps_path"`
	History      bool   `mapstructure:"history"`
	HistoryDB    string `mapstructure:"history_db"`
}

// Options are the global flags given before the command.
type Options struct {
	ConfigFile string
	LogLevel   string
	Help       bool
}

// ParseFlags parses the global flags and returns the remaining command
// tokens. Parsing stops at the first non-flag token so command arguments
// such as --save-previous are left untouched.
func ParseFlags(args []string) (Options, []string, error) {
	var opts Options

	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.ConfigFile, "config", "", "Path to a TOML configuration file")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warning, error)")
	fs.BoolVarP(&opts.Help, "help", "h", false, "Print usage")

	if err := fs.Parse(args); err != nil {
		return Options{}, nil, errors.New().Wrap(errors.ErrInvalidArgument, err)
	}

	return opts, fs.Args(), nil
}

// Load reads the configuration from the defaults, an optional TOML file,
// FRLTOGGLE_* environment variables and the global flags, in increasing
// order of precedence.
func Load(opts Options, executable string) (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("saved_fps_path", "")
	v.SetDefault("history", false)
	v.SetDefault("history_db", defaultHistoryDB(executable))

	if err := v.BindEnv("config"); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = v.GetString("config")
	}

	if configFile == "" {
		configFile = findConfigFile(executable)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType(configType)
		if err := v.ReadInConfig(); err != nil {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
		logger.Debug().Str("path", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	if opts.LogLevel != "" {
		v.Set("log_level", opts.LogLevel)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.History && c.HistoryDB == "" {
		return errors.New().WithData(errors.ErrInvalidConfig, "history_db must be set when history is enabled")
	}

	return nil
}

// Level returns the configured log level.
func (c *Config) Level() logger.LogLevel {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.WarnLevel
	}

	return level
}

// findConfigFile looks for frltoggle.toml next to the executable, then in
// the user config directory. Viper's own search is not used because it also
// matches an extensionless file, which next to the executable is the binary.
func findConfigFile(executable string) string {
	var candidates []string
	if executable != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(executable), configName+"."+configType))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, AppName, configName+"."+configType))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}

func defaultHistoryDB(executable string) string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName, "history.db")
	}

	return filepath.Join(filepath.Dir(executable), fmt.Sprintf("%s.history.db", AppName))
}

// Package config loads viewer settings from a file, the environment
// and the command line, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/kkyr/fig"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix   = "WAVEVIEW"
	DefaultFile = "waveview.yaml"
)

// DefaultDirs are searched for DefaultFile when no path is given.
var DefaultDirs = []string{".", "~/.config/waveview"}

type Config struct {
	LogLevel    string `fig:"loglevel" default:"info"`
	Color       string `fig:"color" default:"#ffffff"`
	Background  string `fig:"background" default:"#000000"`
	Channel     int    `fig:"channel"`
	MaxInFlight int    `fig:"maxinflight" default:"3"`
	Watch       bool   `fig:"watch"`
	Window      struct {
		Width  int `fig:"width" default:"1280"`
		Height int `fig:"height" default:"480"`
	} `fig:"window"`
	Export struct {
		Path        string `fig:"path"`
		Width       int    `fig:"width" default:"1920"`
		Height      int    `fig:"height" default:"480"`
		Supersample int    `fig:"supersample" default:"1"`
	} `fig:"export"`
}

// Load reads the configuration file at path. With an empty path,
// DefaultFile is looked up in DefaultDirs and a missing file is not an
// error. Environment variables prefixed with EnvPrefix override file
// values.
func Load(path string) (*Config, error) {
	var c Config
	opts := []fig.Option{fig.UseEnv(EnvPrefix)}
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fig.File(filepath.Base(expanded)), fig.Dirs(filepath.Dir(expanded)))
	} else {
		dirs := make([]string, 0, len(DefaultDirs))
		for _, dir := range DefaultDirs {
			if expanded, err := homedir.Expand(dir); err == nil {
				dirs = append(dirs, expanded)
			}
		}
		opts = append(opts, fig.File(DefaultFile), fig.Dirs(dirs...))
	}
	err := fig.Load(&c, opts...)
	if path == "" && errors.Is(err, fig.ErrFileNotFound) {
		c = Config{}
		err = fig.Load(&c, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &c, nil
}

// AddFlags binds command line flags to c, using the current values as
// defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) *Config {
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.Color, "color", c.Color, "Waveform color as #rrggbb or #rrggbbaa")
	fs.StringVar(&c.Background, "background", c.Background, "Background color as #rrggbb or #rrggbbaa")
	fs.IntVar(&c.Channel, "channel", c.Channel, "Audio channel to display")
	fs.IntVar(&c.MaxInFlight, "max-in-flight", c.MaxInFlight, "Maximum number of frames in flight")
	fs.BoolVarP(&c.Watch, "watch", "w", c.Watch, "Reload the file when it changes")
	fs.IntVar(&c.Window.Width, "window.width", c.Window.Width, "Window width")
	fs.IntVar(&c.Window.Height, "window.height", c.Window.Height, "Window height")
	fs.StringVarP(&c.Export.Path, "png", "o", c.Export.Path, "Render to a PNG file instead of opening a window")
	fs.IntVar(&c.Export.Width, "png.width", c.Export.Width, "Exported image width")
	fs.IntVar(&c.Export.Height, "png.height", c.Export.Height, "Exported image height")
	fs.IntVar(&c.Export.Supersample, "png.supersample", c.Export.Supersample, "Render the export this many times larger and scale it down")
	return c
}

func newFlagSet(c *Config, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("waveview", pflag.ContinueOnError)
	fs.StringVarP(configPath, "config", "c", "", "Set custom configuration file path")
	c.AddFlags(fs)
	return fs
}

// Parse loads the configuration named by --config (or the default
// one) and applies the remaining flags on top of it. It returns the
// positional arguments.
func Parse(args []string) (*Config, []string, error) {
	var path string
	first := newFlagSet(&Config{}, &path)
	first.SetOutput(io.Discard)
	firstErr := first.Parse(args)
	if firstErr != nil {
		// parse again below to report the error with real defaults
		path = ""
	}
	c, err := Load(path)
	if err != nil {
		if firstErr != nil {
			return nil, nil, firstErr
		}
		return nil, nil, err
	}
	fs := newFlagSet(c, &path)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return c, fs.Args(), nil
}

func (c *Config) Validate() error {
	if _, err := ResolveLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := ParseColor(c.Color); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if c.Channel < 0 {
		return fmt.Errorf("invalid channel: %d", c.Channel)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("max in flight must be at least 1, got %d", c.MaxInFlight)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Export.Width <= 0 || c.Export.Height <= 0 {
		return fmt.Errorf("invalid export size %dx%d", c.Export.Width, c.Export.Height)
	}
	if c.Export.Supersample < 1 || c.Export.Supersample > 8 {
		return fmt.Errorf("supersample must be between 1 and 8, got %d", c.Export.Supersample)
	}
	return nil
}

// ExpandPath resolves a leading ~ in path.
func ExpandPath(path string) (string, error) {
	return homedir.Expand(path)
}

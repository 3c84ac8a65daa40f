package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/flightplot/internal/figure"
)

const (
	defaultListen          = "127.0.0.1:8089"
	defaultShutdownTimeout = 2 * time.Second
)

// Settings represents the optional YAML settings file
type Settings struct {
	Settings GeneralSettings `yaml:"settings"`
	Display  DisplaySettings `yaml:"display"`
	Archive  ArchiveSettings `yaml:"archive"`
}

// GeneralSettings represents global application settings
type GeneralSettings struct {
	LogLevel string `yaml:"logLevel"`
}

// DisplaySettings represents viewer and renderer settings
type DisplaySettings struct {
	Listen          string   `yaml:"listen"`
	Width           int      `yaml:"width"`
	PanelHeight     int      `yaml:"panelHeight"`
	Theme           string   `yaml:"theme"`
	OpenBrowser     *bool    `yaml:"openBrowser"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// ArchiveSettings represents the log archive
type ArchiveSettings struct {
	Path string `yaml:"path"`
}

// Duration is a time.Duration written as a Go duration string, e.g. "1.5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", value.Line, err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: negative duration %s", value.Line, s)
	}

	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// DefaultSettings returns the settings used when no file is given
func DefaultSettings() Settings {
	open := true
	return Settings{
		Settings: GeneralSettings{LogLevel: slog.LevelInfo.String()},
		Display: DisplaySettings{
			Listen:          defaultListen,
			Theme:           string(figure.DefaultTheme),
			OpenBrowser:     &open,
			ShutdownTimeout: Duration{defaultShutdownTimeout},
		},
	}
}

// LoadSettings reads the settings file on top of the defaults
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings file: %w", err)
	}

	if err = yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings file: %w", err)
	}

	if err = s.validate(); err != nil {
		return s, fmt.Errorf("invalid settings file: %w", err)
	}
	return s, nil
}

func (s Settings) validate() error {
	var err error
	if _, lerr := s.Settings.Level(); lerr != nil {
		err = lerr
	} else if s.Display.Width < 0 {
		err = fmt.Errorf("display width must not be negative: %d", s.Display.Width)
	} else if s.Display.PanelHeight < 0 {
		err = fmt.Errorf("display panel height must not be negative: %d", s.Display.PanelHeight)
	} else if _, ok := figure.ParseTheme(s.Display.Theme); !ok {
		err = fmt.Errorf("unknown theme: %s", s.Display.Theme)
	} else if s.Display.Listen == "" {
		err = errors.New("display listen address must not be empty")
	}
	return err
}

// Level parses the configured log level, an empty level is info.
func (s GeneralSettings) Level() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level: %s", s.LogLevel)
	}
	return level, nil
}

package app

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roman-kulish/flightplot/internal/figure"
	"github.com/roman-kulish/flightplot/internal/selector"
)

// Config is the resolved command line, with the settings file merged in.
type Config struct {
	LogPath      string // Positional log file, binary or CSV
	DBPath       string // Archive to read a stored log from
	LogID        int64  // Stored log id, used with DBPath
	SettingsPath string
	AssumeYes    bool
	Groups       []string // Preset selection, no prompts when set
	ArchivePath  string   // Archive the decoded log here when set
	Listen       string
	OpenBrowser  bool
	Verbose      bool
	LogLevel     slog.Level
	Theme        figure.Theme
	Settings     Settings
}

func NewConfig() *Config {
	s := DefaultSettings()
	return &Config{
		Listen:      s.Display.Listen,
		OpenBrowser: true,
		LogLevel:    slog.LevelInfo,
		Theme:       figure.DefaultTheme,
		Settings:    s,
	}
}

// NewConfigFromCLI parses os.Args, printing usage on invalid input.
func NewConfigFromCLI() (*Config, error) {
	flag.Usage = usage(flag.CommandLine)
	return parseConfig(flag.CommandLine, os.Args[1:])
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <log file>\n       %s [flags] -db <archive> -log <id>\n\nFlags:\n",
			fs.Name(), fs.Name())
		fs.PrintDefaults()
	}
}

func parseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var groups, listen, archive string
	var noBrowser bool
	fs.StringVar(&c.SettingsPath, "c", "", "Path to the YAML settings file")
	fs.BoolVar(&c.AssumeYes, "y", false, "Answer yes to every prompt")
	fs.StringVar(&groups, "groups", "", "Comma separated groups to plot without prompting, e.g. pos,vel,acc,gyro")
	fs.StringVar(&listen, "listen", defaultListen, "Address the figure viewer listens on")
	fs.BoolVar(&noBrowser, "no-browser", false, "Do not open the figure in a browser")
	fs.StringVar(&archive, "archive", "", "Archive the decoded log into this SQLite database")
	fs.StringVar(&c.DBPath, "db", "", "Read a previously archived log from this SQLite database")
	fs.Int64Var(&c.LogID, "log", 0, "Archived log ID, used with -db")
	fs.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	var err error
	if c.SettingsPath != "" {
		if c.Settings, err = LoadSettings(c.SettingsPath); err != nil {
			fs.Usage()
			return nil, err
		}
	}
	c.apply(c.Settings)

	// Flags override the settings file
	if set["listen"] {
		c.Listen = listen
	}
	if set["no-browser"] {
		c.OpenBrowser = !noBrowser
	}
	if set["archive"] {
		c.ArchivePath = archive
	}
	if c.Verbose {
		c.LogLevel = slog.LevelDebug
	}
	c.Groups = selector.ParseKeys(groups)

	if fs.NArg() > 0 {
		c.LogPath = fs.Arg(0)
	}

	if fs.NArg() > 1 {
		err = fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	} else if c.LogPath == "" && c.DBPath == "" {
		err = errors.New("log file is required")
	} else if c.LogPath != "" && c.DBPath != "" {
		err = errors.New("log file and -db are mutually exclusive")
	} else if c.DBPath != "" && c.LogID <= 0 {
		err = errors.New("log id is required with -db")
	} else if c.DBPath == "" && set["log"] {
		err = errors.New("-log requires -db")
	} else if c.AssumeYes && len(c.Groups) > 0 {
		err = errors.New("-y and -groups are mutually exclusive")
	} else if set["groups"] && len(c.Groups) == 0 {
		err = errors.New("-groups must name at least one group")
	} else if c.Listen == "" {
		err = errors.New("listen address is required")
	}

	if err != nil {
		fs.Usage()
		return nil, err
	}
	return c, nil
}

// apply copies file settings into the config. Validation has already run.
func (c *Config) apply(s Settings) {
	if level, err := s.Settings.Level(); err == nil {
		c.LogLevel = level
	}
	if s.Display.Listen != "" {
		c.Listen = s.Display.Listen
	}
	if s.Display.OpenBrowser != nil {
		c.OpenBrowser = *s.Display.OpenBrowser
	}
	if theme, ok := figure.ParseTheme(s.Display.Theme); ok {
		c.Theme = theme
	}
	if s.Archive.Path != "" {
		c.ArchivePath = s.Archive.Path
	}
}

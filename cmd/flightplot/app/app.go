package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/roman-kulish/flightplot/internal/display"
	"github.com/roman-kulish/flightplot/internal/figure"
	"github.com/roman-kulish/flightplot/internal/selector"
	"github.com/roman-kulish/flightplot/internal/storage"
	"github.com/roman-kulish/flightplot/internal/telemetry"
	"github.com/roman-kulish/flightplot/internal/usdlog"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	source, closeSource, err := createSource(config, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	options := []func(*Session){
		WithLogger(logger),
		WithTheme(config.Theme),
		WithSummaryWriter(os.Stdout),
	}

	switch {
	case len(config.Groups) > 0:
		options = append(options, WithPreset(config.Groups))
	case config.AssumeYes:
		options = append(options, WithPrompter(selector.AssumeYes))
	default:
		options = append(options, WithPrompter(selector.NewLinePrompter(os.Stdin, os.Stdout)))
	}

	if config.ArchivePath != "" {
		archive := storage.NewSqliteStore(config.ArchivePath, storage.WithLogger(logger))
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Error("closing archive", slog.Any("error", err))
			}
		}()
		options = append(options, WithArchive(archive))
	}

	session := NewSession(source, newViewerDisplay(config, logger), options...)
	return session.Run(ctx)
}

func createSource(config *Config, logger *slog.Logger) (telemetry.Source, func(), error) {
	if config.DBPath == "" {
		return usdlog.NewFileSource(config.LogPath, usdlog.WithLogger(logger)), func() {}, nil
	}

	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath, storage.WithLogger(logger))
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Error("closing database", slog.Any("error", err))
		}
	}
	return storage.NewArchiveSource(store, config.LogID, storage.WithSourceLogger(logger)), closeStore, nil
}

// viewerDisplay shows figures through the local HTTP viewer.
type viewerDisplay struct {
	listen  string
	raster  *display.RasterRenderer
	charts  *display.ChartRenderer
	options []func(*display.Viewer)
}

func newViewerDisplay(config *Config, logger *slog.Logger) *viewerDisplay {
	s := config.Settings.Display
	return &viewerDisplay{
		listen: config.Listen,
		raster: display.NewRasterRenderer(display.RasterConfig{
			Width:       s.Width,
			PanelHeight: s.PanelHeight,
		}),
		charts: display.NewChartRenderer(display.ChartConfig{
			Width: s.Width,
		}),
		options: []func(*display.Viewer){
			display.WithLogger(logger),
			display.WithShutdownTimeout(s.ShutdownTimeout.Duration),
			display.WithBrowser(config.OpenBrowser),
		},
	}
}

func (d *viewerDisplay) Show(ctx context.Context, fig *figure.Figure) error {
	return display.NewViewer(fig, d.raster, d.charts, d.options...).Serve(ctx, d.listen)
}

package usdlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// WithLogger sets the logger for the file source
func WithLogger(logger *slog.Logger) func(*FileSource) {
	return func(s *FileSource) {
		s.logger = logger.With(slog.String("file", s.path))
	}
}

// FileSource decodes a log file from disk. Files with a .csv extension are
// read as CSV exports, everything else as binary uSD logs.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a source for the log file at path with a discard logger
func NewFileSource(path string, options ...func(*FileSource)) *FileSource {
	s := FileSource{
		path:   path,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func (s *FileSource) Describe() string {
	return filepath.Base(s.path)
}

func (s *FileSource) Load(ctx context.Context) (*telemetry.Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	decode := Decode
	format := "usd"
	if strings.EqualFold(filepath.Ext(s.path), ".csv") {
		decode = DecodeCSV
		format = "csv"
	}

	log, stats, err := decode(f)
	if err != nil {
		return nil, err
	}

	if stats.Size == 0 {
		if fi, err := f.Stat(); err == nil {
			stats.Size = int(fi.Size())
		}
	}

	s.logger.Info("decoded log",
		slog.String("format", format),
		slog.String("size", humanize.Bytes(uint64(stats.Size))),
		slog.Int("channels", stats.Channels),
		slog.String("records", humanize.Comma(int64(stats.Records))))

	if stats.Truncated > 0 {
		s.logger.Warn("dropped trailing partial record", slog.Int("bytes", stats.Truncated))
	}

	return log, nil
}

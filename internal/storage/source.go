package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// LoadLog reads an archived log back into memory. Channels selected by the
// options but without samples in the index range come back empty.
func LoadLog(ctx context.Context, s *SqliteStore, logID int64, opts ...ReaderOption) (log *telemetry.Log, err error) {
	reader, err := s.ReadChannels(ctx, logID, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	defer closeWithError(reader, &err)

	channels := make(map[string][]float64)
	for _, name := range reader.Channels() {
		channels[name] = []float64{}
	}

	for reader.Next(ctx) {
		ch := reader.Current()
		channels[ch.Name] = ch.Samples
	}
	if err = reader.Error(); err != nil {
		return nil, fmt.Errorf("reading channels: %w", err)
	}

	return telemetry.NewLog(channels), nil
}

// WithSourceLogger sets the logger for the archive source
func WithSourceLogger(logger *slog.Logger) func(*ArchiveSource) {
	return func(s *ArchiveSource) {
		s.logger = logger
	}
}

// ArchiveSource loads a log previously archived in a SqliteStore.
type ArchiveSource struct {
	store  *SqliteStore
	logID  int64
	name   string // Archived log name, known once Load succeeds
	logger *slog.Logger
}

func NewArchiveSource(store *SqliteStore, logID int64, options ...func(*ArchiveSource)) *ArchiveSource {
	s := ArchiveSource{
		store:  store,
		logID:  logID,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Describe returns the archived log name after a successful Load and the log
// ID before that.
func (s *ArchiveSource) Describe() string {
	if s.name == "" {
		return fmt.Sprintf("archived log %d", s.logID)
	}
	return s.name
}

func (s *ArchiveSource) Load(ctx context.Context) (*telemetry.Log, error) {
	info, err := s.store.Log(ctx, s.logID)
	if err != nil {
		return nil, err
	}

	log, err := LoadLog(ctx, s.store, s.logID)
	if err != nil {
		return nil, err
	}
	s.name = info.Name

	s.logger.Info("loaded archived log",
		slog.Int64("id", s.logID),
		slog.Int("channels", len(log.Names())),
		slog.Int("records", log.Len()))

	return log, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// ErrNoData indicates that all available data has been read from the reader.
var ErrNoData = errors.New("no data available")

// ChannelReader provides an iterator-based interface for reading archived
// channels with optional channel and index filtering.
type ChannelReader interface {
	// Log returns metadata about the archived log this reader is accessing.
	Log() *LogInfo

	// Channels returns the names of the channels the reader will produce,
	// including those without samples in the selected index range.
	Channels() []string

	// Next advances the iterator and returns true if there is another channel
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current channel in the iteration.
	Current() *ChannelSamples

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReaderOption configures a SqliteChannelReader.
type ReaderOption func(*SqliteChannelReader)

// WithChannels limits the reader to the named channels. The tick channel is
// always read.
func WithChannels(names ...string) ReaderOption {
	return func(r *SqliteChannelReader) {
		r.names = append(r.names, names...)
		if !slices.Contains(r.names, telemetry.TickChannel) {
			r.names = append(r.names, telemetry.TickChannel)
		}
	}
}

// WithStartIndex excludes samples before index i.
func WithStartIndex(i int) ReaderOption {
	return func(r *SqliteChannelReader) {
		r.startIdx = &i
	}
}

// WithEndIndex excludes samples after index i.
func WithEndIndex(i int) ReaderOption {
	return func(r *SqliteChannelReader) {
		r.endIdx = &i
	}
}

// WithIndexRange sets both start and end index filters, inclusive.
func WithIndexRange(start, end int) ReaderOption {
	return func(r *SqliteChannelReader) {
		r.startIdx = &start
		r.endIdx = &end
	}
}

func newSqliteChannelReader(ctx context.Context, db *sql.DB, logID int64, opts ...ReaderOption) (*SqliteChannelReader, error) {
	cr := &SqliteChannelReader{
		db:    db,
		logID: logID,
	}
	for _, opt := range opts {
		opt(cr)
	}
	if err := cr.init(ctx); err != nil {
		_ = cr.Close()
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return cr, nil
}

// SqliteChannelReader implements ChannelReader for the SQLite backend.
type SqliteChannelReader struct {
	db *sql.DB

	logID    int64
	log      *LogInfo
	names    []string // Optional channel filter
	startIdx *int     // Optional start of index range filter
	endIdx   *int     // Optional end of index range filter
	channels []channelData

	current    *ChannelSamples
	next       *ChannelSamples // First sample of the next channel
	nextExists bool
	rows       *sql.Rows
	err        error
}

func (cr *SqliteChannelReader) init(ctx context.Context) error {
	if cr.db == nil {
		return errors.New("database connection required")
	}
	if cr.logID <= 0 {
		return errors.New("log ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading log", fn: cr.loadLog},
		{msg: "initializing filters", fn: cr.initFilters},
		{msg: "resolving channels", fn: cr.resolveChannels},
		{msg: "initializing query", fn: cr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (cr *SqliteChannelReader) loadLog(ctx context.Context) (err error) {
	stmt, err := cr.db.PrepareContext(ctx, selectLogSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var data logData
	var createdAt sqliteTime
	err = stmt.QueryRowContext(ctx, cr.logID).Scan(&data.ID, &data.Name, &data.Source, &createdAt, &data.Records, &data.Channels)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("log %d: %w", cr.logID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying log: %w", err)
	}
	data.CreatedAt = createdAt.Time

	cr.log = toLogInfo(data)
	return
}

func (cr *SqliteChannelReader) initFilters(context.Context) error {
	if cr.startIdx == nil {
		start := 0
		cr.startIdx = &start
	}
	if cr.endIdx == nil {
		end := cr.log.Records - 1
		cr.endIdx = &end
	}
	if *cr.startIdx < 0 {
		return fmt.Errorf("start index %d is negative", *cr.startIdx)
	}
	if *cr.startIdx > *cr.endIdx && cr.log.Records > 0 {
		return fmt.Errorf("start index %d is after end index %d", *cr.startIdx, *cr.endIdx)
	}
	return nil
}

func (cr *SqliteChannelReader) resolveChannels(ctx context.Context) (err error) {
	rows, err := cr.db.QueryContext(ctx, selectChannelsSQL, cr.logID)
	if err != nil {
		return fmt.Errorf("querying channels: %w", err)
	}
	defer closeWithError(rows, &err)

	var all []channelData
	for rows.Next() {
		var ch channelData
		if err = rows.Scan(&ch.ID, &ch.Name); err != nil {
			return fmt.Errorf("scanning channel: %w", err)
		}
		all = append(all, ch)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	if len(cr.names) == 0 {
		cr.channels = all
		return nil
	}

	for _, name := range cr.names {
		i := slices.IndexFunc(all, func(ch channelData) bool { return ch.Name == name })
		if i < 0 {
			return &telemetry.MissingChannelError{Name: name}
		}
		if !slices.ContainsFunc(cr.channels, func(ch channelData) bool { return ch.Name == name }) {
			cr.channels = append(cr.channels, all[i])
		}
	}
	slices.SortFunc(cr.channels, func(a, b channelData) int { return strings.Compare(a.Name, b.Name) })
	return nil
}

func (cr *SqliteChannelReader) initQuery(ctx context.Context) (err error) {
	if len(cr.channels) == 0 {
		return nil
	}

	args := make([]any, 0, len(cr.channels)+2)
	placeholders := make([]string, 0, len(cr.channels))
	for _, ch := range cr.channels {
		args = append(args, ch.ID)
		placeholders = append(placeholders, "?")
	}
	args = append(args, *cr.startIdx, *cr.endIdx)

	query := fmt.Sprintf(selectChannelSamplesSQL, strings.Join(placeholders, ", "))

	if cr.rows, err = cr.db.QueryContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

func (cr *SqliteChannelReader) scanSample() (string, int, float64, error) {
	var name string
	var idx int
	var value sql.NullFloat64
	if err := cr.rows.Scan(&name, &idx, &value); err != nil {
		return "", 0, 0, fmt.Errorf("scanning sample: %w", err)
	}
	return name, idx, fromSQLValue(value), nil
}

func (cr *SqliteChannelReader) Log() *LogInfo {
	return cr.log
}

func (cr *SqliteChannelReader) Channels() []string {
	names := make([]string, len(cr.channels))
	for i, ch := range cr.channels {
		names[i] = ch.Name
	}
	return names
}

func (cr *SqliteChannelReader) Next(ctx context.Context) bool {
	if cr.err != nil || cr.rows == nil {
		return false
	}

	cr.current = nil
	if cr.nextExists {
		cr.current = cr.next
		cr.next = nil
		cr.nextExists = false
	}

	for {
		select {
		case <-ctx.Done():
			cr.err = ctx.Err()
			return false
		default:
		}

		if !cr.rows.Next() {
			if cr.current != nil {
				cr.err = ErrNoData
				return true
			}
			return false
		}

		name, idx, value, err := cr.scanSample()
		if err != nil {
			cr.err = err
			return false
		}

		if cr.current == nil {
			cr.current = &ChannelSamples{Name: name, Offset: idx, Samples: []float64{value}}
			continue
		}

		// Channel changed, hold the sample back for the next call
		if name != cr.current.Name {
			cr.next = &ChannelSamples{Name: name, Offset: idx, Samples: []float64{value}}
			cr.nextExists = true
			return true
		}

		cr.current.Samples = append(cr.current.Samples, value)
	}
}

func (cr *SqliteChannelReader) Current() *ChannelSamples {
	return cr.current
}

func (cr *SqliteChannelReader) Error() error {
	if cr.err != nil && !errors.Is(cr.err, ErrNoData) {
		return cr.err
	}
	if cr.rows != nil {
		return cr.rows.Err()
	}
	return nil
}

func (cr *SqliteChannelReader) Close() error {
	if cr.rows != nil {
		err := cr.rows.Close()
		cr.current = nil
		cr.nextExists = false
		cr.rows = nil
		return err
	}
	return nil
}

// sqliteTime scans a timestamp column regardless of whether the driver
// already converted it. Columns read through joins and aggregates can lose
// their declared type and arrive as text.
type sqliteTime struct {
	Time time.Time
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = ts
			return nil
		}
	}
	return fmt.Errorf("parsing timestamp %q", s)
}

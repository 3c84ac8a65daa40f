package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// ErrNotFound is returned when a log ID is not in the archive.
var ErrNotFound = errors.New("log not found")

// samplesPerInsert keeps a batch insert well below the SQLite bound variable
// limit, each row binds three values.
const samplesPerInsert = 1000

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) func(*SqliteStore) {
	return func(s *SqliteStore) {
		s.logger = logger
	}
}

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string
	logger *slog.Logger

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the SQLite database at dbPath.
// Connections are opened, and the schema initialized, on first use.
func NewSqliteStore(dbPath string, options ...func(*SqliteStore)) *SqliteStore {
	s := SqliteStore{
		dbPath: dbPath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateLog(ctx context.Context, name string, source *string, records int) (logID int64, err error) {
	var sourceData sql.NullString
	if source != nil {
		sourceData.Valid = true
		sourceData.String = *source
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertLogSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, name, sourceData, time.Now().UTC(), records)
	if err != nil {
		err = fmt.Errorf("inserting log: %w", err)
		return
	}

	logID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting log ID: %w", err)
	}
	return
}

func (s *SqliteStore) StoreChannel(ctx context.Context, logID int64, name string, samples []float64) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	if err = insertChannel(ctx, tx, logID, name, samples); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// StoreLog archives the log row and every channel in one transaction, so a
// failed archive leaves nothing behind.
func (s *SqliteStore) StoreLog(ctx context.Context, name string, source *string, log *telemetry.Log) (logID int64, err error) {
	var sourceData sql.NullString
	if source != nil {
		sourceData.Valid = true
		sourceData.String = *source
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	result, err := tx.ExecContext(ctx, insertLogSQL, name, sourceData, time.Now().UTC(), log.Len())
	if err != nil {
		return 0, fmt.Errorf("inserting log: %w", err)
	}
	if logID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("getting log ID: %w", err)
	}

	for _, ch := range log.Names() {
		samples, err := log.Channel(ch)
		if err != nil {
			return 0, err
		}
		if err = insertChannel(ctx, tx, logID, ch, samples); err != nil {
			return 0, fmt.Errorf("storing channel: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Info("archived log",
		slog.Int64("id", logID),
		slog.String("name", name),
		slog.Int("channels", len(log.Names())),
		slog.String("records", humanize.Comma(int64(log.Len()))))

	return logID, nil
}

// insertChannel writes one channel row and its samples in batches of
// samplesPerInsert rows.
func insertChannel(ctx context.Context, tx *sql.Tx, logID int64, name string, samples []float64) error {
	result, err := tx.ExecContext(ctx, insertChannelSQL, logID, name, len(samples))
	if err != nil {
		return fmt.Errorf("inserting channel %q: %w", name, err)
	}
	channelID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting channel ID: %w", err)
	}

	valuesPlaceholder := "(?, ?, ?)"

	var offset int
	for chunk := range slices.Chunk(samples, samplesPerInsert) {
		values := make([]any, 0, len(chunk)*3)

		var sb strings.Builder
		sb.WriteString(insertSampleSQL)

		for i, v := range chunk {
			values = append(values, channelID, offset+i, toSQLValue(v))

			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(valuesPlaceholder)
		}

		if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
			return fmt.Errorf("batch inserting samples of %q: %w", name, err)
		}
		offset += len(chunk)
	}

	return nil
}

func (s *SqliteStore) Log(ctx context.Context, id int64) (info *LogInfo, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectLogSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var data logData
	var createdAt sqliteTime
	err = stmt.QueryRowContext(ctx, id).Scan(&data.ID, &data.Name, &data.Source, &createdAt, &data.Records, &data.Channels)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("log %d: %w", id, ErrNotFound)
		return
	}
	if err != nil {
		err = fmt.Errorf("scanning log: %w", err)
		return
	}
	data.CreatedAt = createdAt.Time

	return toLogInfo(data), nil
}

func (s *SqliteStore) Logs(ctx context.Context) (logs []*LogInfo, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectLogsSQL)
	if err != nil {
		err = fmt.Errorf("querying logs: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data logData
		var createdAt sqliteTime
		if err = rows.Scan(&data.ID, &data.Name, &data.Source, &createdAt, &data.Records, &data.Channels); err != nil {
			err = fmt.Errorf("scanning log: %w", err)
			return
		}
		data.CreatedAt = createdAt.Time
		logs = append(logs, toLogInfo(data))
	}
	err = rows.Err()
	return
}

// ReadChannels creates a reader that streams the samples of an archived log
// one channel at a time, in channel name order.
//
// The returned reader must be closed after use to release database resources.
func (s *SqliteStore) ReadChannels(ctx context.Context, logID int64, opts ...ReaderOption) (*SqliteChannelReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteChannelReader(ctx, db, logID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}

package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// Store archives decoded flight logs and reads them back.
type Store interface {
	// CreateLog registers a new log and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - name: Display name, usually the base name of the log file
	//   - source: Optional description of where the log came from
	//   - records: Number of samples per channel
	CreateLog(ctx context.Context, name string, source *string, records int) (logID int64, err error)

	// StoreChannel saves all samples of one channel in a single transaction.
	StoreChannel(ctx context.Context, logID int64, name string, samples []float64) error

	// StoreLog archives every channel of a decoded log in one transaction and
	// returns its ID.
	StoreLog(ctx context.Context, name string, source *string, log *telemetry.Log) (logID int64, err error)

	// Log returns metadata of an archived log.
	Log(ctx context.Context, id int64) (*LogInfo, error)

	// Logs returns all archived logs ordered by ID.
	Logs(ctx context.Context) ([]*LogInfo, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}

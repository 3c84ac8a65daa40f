package storage

import (
	"database/sql"
	"math"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && cErr != sql.ErrTxDone {
		*err = cErr
	}
}

// toSQLValue stores NaN as NULL, SQLite has no representation for it.
func toSQLValue(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromSQLValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func toLogInfo(d logData) *LogInfo {
	info := LogInfo{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		Records:   d.Records,
		Channels:  d.Channels,
	}
	if d.Source.Valid {
		info.Source = &d.Source.String
	}
	return &info
}

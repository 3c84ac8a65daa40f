package storage

import (
	"database/sql"
	"time"
)

// LogInfo describes an archived log.
type LogInfo struct {
	ID        int64
	Name      string
	Source    *string
	CreatedAt time.Time
	Records   int
	Channels  int
}

// ChannelSamples is one channel read back from the archive. Offset is the
// index of the first sample within the original log.
type ChannelSamples struct {
	Name    string
	Offset  int
	Samples []float64
}

type logData struct {
	ID        int64
	Name      string
	Source    sql.NullString
	CreatedAt time.Time
	Records   int
	Channels  int
}

type channelData struct {
	ID   int64
	Name string
}

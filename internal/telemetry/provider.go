package telemetry

import "context"

// Source yields a decoded flight log. Implementations read it from a raw log
// file or from the log archive.
type Source interface {
	Load(ctx context.Context) (*Log, error)
	Describe() string
}

package usdlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// DecodeCSV reads a log exported as CSV: a header row of channel names,
// which must include tick, followed by one row of numbers per record.
func DecodeCSV(r io.Reader) (*telemetry.Log, Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, ErrShortHeader
		}
		return nil, stats, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if header[i] == "" {
			return nil, stats, fmt.Errorf("column %d has an empty name", i+1)
		}
		if slices.Contains(header[:i], header[i]) {
			return nil, stats, fmt.Errorf("column %q declared twice", header[i])
		}
	}
	if !slices.Contains(header, telemetry.TickChannel) {
		return nil, stats, telemetry.ErrNoTick
	}
	stats.Channels = len(header) - 1

	channels := make(map[string][]float64, len(header))
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("reading record %d: %w", stats.Records+1, err)
		}

		for i, field := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, stats, fmt.Errorf("line %d, column %q: %w", line, header[i], err)
			}
			channels[header[i]] = append(channels[header[i]], v)
		}
		stats.Records++
	}

	for _, name := range header {
		if channels[name] == nil {
			channels[name] = []float64{}
		}
	}
	return telemetry.NewLog(channels), stats, nil
}

package telemetry

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// TickChannel is the name of the channel holding the RTOS tick counter that
// every other channel is aligned to.
const TickChannel = "tick"

// ErrNoTick is returned by Validate when the log carries no tick channel.
var ErrNoTick = errors.New("log has no tick channel")

// MissingChannelError reports a lookup of a channel the log does not carry.
type MissingChannelError struct {
	Name string
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("channel %q not present in log", e.Name)
}

// MisalignedChannelError reports a channel whose sample count differs from
// the tick channel.
type MisalignedChannelError struct {
	Name    string
	Len     int
	TickLen int
}

func (e *MisalignedChannelError) Error() string {
	return fmt.Sprintf("channel %q has %d samples, tick has %d", e.Name, e.Len, e.TickLen)
}

// TickOrderError reports a tick value that is not an integer or goes backwards.
type TickOrderError struct {
	Index int
	Value float64
	Prev  float64
}

func (e *TickOrderError) Error() string {
	if e.Value != math.Trunc(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Sprintf("tick[%d] = %v is not an integer", e.Index, e.Value)
	}
	return fmt.Sprintf("tick[%d] = %v is lower than tick[%d] = %v", e.Index, e.Value, e.Index-1, e.Prev)
}

// Log is a decoded flight log: named channels of samples, index-aligned with
// the tick channel. A Log is never mutated after construction.
type Log struct {
	channels map[string][]float64
	names    []string
}

// NewLog builds a Log from the channel mapping. The mapping is copied, so the
// caller may keep using it.
func NewLog(channels map[string][]float64) *Log {
	l := &Log{
		channels: make(map[string][]float64, len(channels)),
		names:    make([]string, 0, len(channels)),
	}
	for name, samples := range channels {
		l.channels[name] = slices.Clone(samples)
		l.names = append(l.names, name)
	}
	slices.Sort(l.names)
	return l
}

// Channel returns the samples of the named channel or a *MissingChannelError.
// The returned slice must not be modified.
func (l *Log) Channel(name string) ([]float64, error) {
	samples, ok := l.channels[name]
	if !ok {
		return nil, &MissingChannelError{Name: name}
	}
	return samples, nil
}

// Ticks returns the tick channel.
func (l *Log) Ticks() ([]float64, error) {
	return l.Channel(TickChannel)
}

// Has reports whether the named channel exists.
func (l *Log) Has(name string) bool {
	_, ok := l.channels[name]
	return ok
}

// Names returns all channel names, tick included, in lexical order.
func (l *Log) Names() []string {
	return slices.Clone(l.names)
}

// Len returns the number of samples per channel, which is the length of the
// tick channel, or 0 when there is none.
func (l *Log) Len() int {
	return len(l.channels[TickChannel])
}

// TickRange returns the first and last tick, ok is false for an empty log.
func (l *Log) TickRange() (first, last float64, ok bool) {
	ticks := l.channels[TickChannel]
	if len(ticks) == 0 {
		return 0, 0, false
	}
	return ticks[0], ticks[len(ticks)-1], true
}

// Validate checks that the log carries a tick channel of non-decreasing
// integers and that every other channel has exactly as many samples.
func (l *Log) Validate() error {
	ticks, ok := l.channels[TickChannel]
	if !ok {
		return ErrNoTick
	}

	for i, v := range ticks {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return &TickOrderError{Index: i, Value: v}
		}
		if i > 0 && v < ticks[i-1] {
			return &TickOrderError{Index: i, Value: v, Prev: ticks[i-1]}
		}
	}

	for _, name := range l.names {
		if n := len(l.channels[name]); n != len(ticks) {
			return &MisalignedChannelError{Name: name, Len: n, TickLen: len(ticks)}
		}
	}
	return nil
}

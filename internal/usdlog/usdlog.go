// Package usdlog decodes flight logs written to the on-board micro SD card
// into telemetry.Log values.
//
// A binary log starts with a header describing the logged channels, followed
// by fixed-size records until the end of the file:
//
//	uint8   magic (0xBC)
//	uint16  format version (1)
//	uint8   channel count C
//	C x { uint8 type code, uint8 name length, name bytes }
//	uint32  CRC-32 (IEEE) of all preceding header bytes
//	records: uint32 tick, then one value per channel in header order
//
// All integers are little endian.
package usdlog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/roman-kulish/flightplot/internal/telemetry"
)

const (
	Magic   byte   = 0xBC
	Version uint16 = 1

	tickSize = 4
)

var (
	// ErrBadMagic is returned when the file does not start with the log magic byte.
	ErrBadMagic = errors.New("not a uSD log: bad magic byte")

	// ErrHeaderCRC is returned when the header checksum does not match.
	ErrHeaderCRC = errors.New("header CRC mismatch")

	// ErrShortHeader is returned when the file ends inside the header.
	ErrShortHeader = errors.New("file ends inside the header")
)

// VersionError reports an unsupported format version.
type VersionError struct {
	Version uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported log version %d", e.Version)
}

// TypeError reports an unknown value type code in the channel table.
type TypeError struct {
	Channel string
	Code    byte
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("channel %q: unknown type code %q", e.Channel, e.Code)
}

// Stats describes a decoded file.
type Stats struct {
	Size       int // Bytes read
	Channels   int // Logged channels, excluding tick
	Records    int // Complete records decoded
	RecordSize int // Bytes per record
	Truncated  int // Bytes of a trailing partial record that were dropped
}

// ChannelSpec is one entry of the header channel table.
type ChannelSpec struct {
	Name string
	Type byte
}

// Decode reads a whole binary log from r.
func Decode(r io.Reader) (*telemetry.Log, Stats, error) {
	var stats Stats

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, stats, fmt.Errorf("reading log: %w", err)
	}
	stats.Size = len(data)

	specs, offset, err := decodeHeader(data)
	if err != nil {
		return nil, stats, err
	}
	stats.Channels = len(specs)

	stats.RecordSize = tickSize
	for _, spec := range specs {
		stats.RecordSize += typeSize(spec.Type)
	}

	body := data[offset:]
	stats.Records = len(body) / stats.RecordSize
	stats.Truncated = len(body) % stats.RecordSize

	channels := make(map[string][]float64, len(specs)+1)
	ticks := make([]float64, stats.Records)
	for _, spec := range specs {
		channels[spec.Name] = make([]float64, stats.Records)
	}

	for i := 0; i < stats.Records; i++ {
		rec := body[i*stats.RecordSize : (i+1)*stats.RecordSize]
		ticks[i] = float64(binary.LittleEndian.Uint32(rec))

		pos := tickSize
		for _, spec := range specs {
			size := typeSize(spec.Type)
			channels[spec.Name][i] = decodeValue(spec.Type, rec[pos:pos+size])
			pos += size
		}
	}
	channels[telemetry.TickChannel] = ticks

	return telemetry.NewLog(channels), stats, nil
}

func decodeHeader(data []byte) ([]ChannelSpec, int, error) {
	if len(data) < 4 {
		if len(data) > 0 && data[0] != Magic {
			return nil, 0, ErrBadMagic
		}
		return nil, 0, ErrShortHeader
	}
	if data[0] != Magic {
		return nil, 0, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(data[1:3]); v != Version {
		return nil, 0, &VersionError{Version: v}
	}

	count := int(data[3])
	offset := 4
	seen := make(map[string]struct{}, count)
	specs := make([]ChannelSpec, 0, count)

	for i := 0; i < count; i++ {
		if offset+2 > len(data) {
			return nil, 0, ErrShortHeader
		}
		code, nameLen := data[offset], int(data[offset+1])
		offset += 2

		if offset+nameLen > len(data) {
			return nil, 0, ErrShortHeader
		}
		name := string(data[offset : offset+nameLen])
		offset += nameLen

		switch _, dup := seen[name]; {
		case name == "":
			return nil, 0, fmt.Errorf("channel %d has an empty name", i)
		case name == telemetry.TickChannel:
			return nil, 0, fmt.Errorf("channel %d: %q is reserved", i, name)
		case dup:
			return nil, 0, fmt.Errorf("channel %q declared twice", name)
		}
		if typeSize(code) == 0 {
			return nil, 0, &TypeError{Channel: name, Code: code}
		}

		seen[name] = struct{}{}
		specs = append(specs, ChannelSpec{Name: name, Type: code})
	}

	if offset+4 > len(data) {
		return nil, 0, ErrShortHeader
	}
	want := binary.LittleEndian.Uint32(data[offset : offset+4])
	if got := crc32.ChecksumIEEE(data[:offset]); got != want {
		return nil, 0, fmt.Errorf("%w: computed %08x, stored %08x", ErrHeaderCRC, got, want)
	}

	return specs, offset + 4, nil
}

func typeSize(code byte) int {
	switch code {
	case 'b', 'B':
		return 1
	case 'h', 'H':
		return 2
	case 'i', 'I', 'f':
		return 4
	case 'd':
		return 8
	default:
		return 0
	}
}

func decodeValue(code byte, p []byte) float64 {
	switch code {
	case 'b':
		return float64(int8(p[0]))
	case 'B':
		return float64(p[0])
	case 'h':
		return float64(int16(binary.LittleEndian.Uint16(p)))
	case 'H':
		return float64(binary.LittleEndian.Uint16(p))
	case 'i':
		return float64(int32(binary.LittleEndian.Uint32(p)))
	case 'I':
		return float64(binary.LittleEndian.Uint32(p))
	case 'f':
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
	case 'd':
		return math.Float64frombits(binary.LittleEndian.Uint64(p))
	}
	return math.NaN()
}

// EncodeHeader writes a header for the given channel table. It is the
// counterpart of the decoder and is used to produce fixture logs.
func EncodeHeader(w io.Writer, specs []ChannelSpec) error {
	if len(specs) > math.MaxUint8 {
		return fmt.Errorf("too many channels: %d", len(specs))
	}

	var buf bytes.Buffer
	buf.WriteByte(Magic)
	_ = binary.Write(&buf, binary.LittleEndian, Version)
	buf.WriteByte(byte(len(specs)))
	for _, spec := range specs {
		if typeSize(spec.Type) == 0 {
			return &TypeError{Channel: spec.Name, Code: spec.Type}
		}
		if len(spec.Name) > math.MaxUint8 {
			return fmt.Errorf("channel name too long: %q", spec.Name)
		}
		buf.WriteByte(spec.Type)
		buf.WriteByte(byte(len(spec.Name)))
		buf.WriteString(spec.Name)
	}
	_ = binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(buf.Bytes()))

	_, err := w.Write(buf.Bytes())
	return err
}

// EncodeRecord writes one record. values must follow the header order.
func EncodeRecord(w io.Writer, specs []ChannelSpec, tick uint32, values []float64) error {
	if len(values) != len(specs) {
		return fmt.Errorf("record has %d values, header declares %d channels", len(values), len(specs))
	}

	rec := make([]byte, tickSize, 64)
	binary.LittleEndian.PutUint32(rec, tick)
	for i, spec := range specs {
		v := values[i]
		switch spec.Type {
		case 'b':
			rec = append(rec, byte(int8(v)))
		case 'B':
			rec = append(rec, byte(v))
		case 'h':
			rec = binary.LittleEndian.AppendUint16(rec, uint16(int16(v)))
		case 'H':
			rec = binary.LittleEndian.AppendUint16(rec, uint16(v))
		case 'i':
			rec = binary.LittleEndian.AppendUint32(rec, uint32(int32(v)))
		case 'I':
			rec = binary.LittleEndian.AppendUint32(rec, uint32(v))
		case 'f':
			rec = binary.LittleEndian.AppendUint32(rec, math.Float32bits(float32(v)))
		case 'd':
			rec = binary.LittleEndian.AppendUint64(rec, math.Float64bits(v))
		default:
			return &TypeError{Channel: spec.Name, Code: spec.Type}
		}
	}

	_, err := w.Write(rec)
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "archive.db"))
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})
	return s
}

func testLog(n int) *telemetry.Log {
	ticks := make([]float64, n)
	x := make([]float64, n)
	vx := make([]float64, n)
	for i := range n {
		ticks[i] = float64(i * 10)
		x[i] = float64(i) * 1.5
		vx[i] = -float64(i)
	}
	return telemetry.NewLog(map[string][]float64{
		"tick":               ticks,
		"stateCompressed.x":  x,
		"stateCompressed.vx": vx,
	})
}

func TestSqliteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Larger than one insert batch.
	want := testLog(2*samplesPerInsert + 17)

	source := "log17"
	id, err := s.StoreLog(ctx, "flight", &source, want)
	if err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	got, err := LoadLog(ctx, s, id)
	if err != nil {
		t.Fatalf("LoadLog: %v", err)
	}

	if diff := cmp.Diff(want.Names(), got.Names()); diff != "" {
		t.Fatalf("channel names mismatch (-want +got):\n%s", diff)
	}
	for _, name := range want.Names() {
		w, _ := want.Channel(name)
		g, _ := got.Channel(name)
		if diff := cmp.Diff(w, g); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	info, err := s.Log(ctx, id)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if info.Name != "flight" || info.Records != want.Len() || info.Channels != 3 {
		t.Errorf("unexpected log info %+v", info)
	}
	if info.Source == nil || *info.Source != source {
		t.Errorf("unexpected source %v", info.Source)
	}
	if info.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}
}

func TestSqliteStore_Logs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"a", "b"} {
		if _, err := s.StoreLog(ctx, name, nil, testLog(3)); err != nil {
			t.Fatalf("StoreLog(%s): %v", name, err)
		}
	}

	logs, err := s.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 2 || logs[0].Name != "a" || logs[1].Name != "b" {
		t.Fatalf("unexpected logs %+v", logs)
	}
	if logs[0].Source != nil {
		t.Errorf("expected no source, got %q", *logs[0].Source)
	}

	if _, err := s.Log(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSqliteChannelReader_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.StoreLog(ctx, "flight", nil, testLog(10))
	if err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	got, err := LoadLog(ctx, s, id, WithChannels("stateCompressed.x"), WithIndexRange(2, 4))
	if err != nil {
		t.Fatalf("LoadLog: %v", err)
	}

	if diff := cmp.Diff([]string{"stateCompressed.x", "tick"}, got.Names()); diff != "" {
		t.Errorf("channel names mismatch (-want +got):\n%s", diff)
	}
	ticks, _ := got.Ticks()
	if diff := cmp.Diff([]float64{20, 30, 40}, ticks); diff != "" {
		t.Errorf("tick mismatch (-want +got):\n%s", diff)
	}

	reader, err := s.ReadChannels(ctx, id, WithChannels("stateCompressed.x"), WithStartIndex(8))
	if err != nil {
		t.Fatalf("ReadChannels: %v", err)
	}
	defer reader.Close()

	var offsets []int
	for reader.Next(ctx) {
		offsets = append(offsets, reader.Current().Offset)
	}
	if err := reader.Error(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
	if diff := cmp.Diff([]int{8, 8}, offsets); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteChannelReader_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.StoreLog(ctx, "flight", nil, testLog(3))
	if err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	_, err = s.ReadChannels(ctx, id, WithChannels("gyro.z"))
	var missing *telemetry.MissingChannelError
	if !errors.As(err, &missing) || missing.Name != "gyro.z" {
		t.Errorf("expected missing gyro.z, got %v", err)
	}

	if _, err = s.ReadChannels(ctx, id, WithIndexRange(2, 1)); err == nil {
		t.Error("expected error for inverted index range")
	}

	if _, err = s.ReadChannels(ctx, id+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSqliteStore_NaN(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	log := telemetry.NewLog(map[string][]float64{
		"tick":   {1, 2},
		"gyro.x": {math.NaN(), 0.5},
	})
	id, err := s.StoreLog(ctx, "nan", nil, log)
	if err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	got, err := LoadLog(ctx, s, id)
	if err != nil {
		t.Fatalf("LoadLog: %v", err)
	}
	samples, _ := got.Channel("gyro.x")
	if diff := cmp.Diff([]float64{math.NaN(), 0.5}, samples, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveSource(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.StoreLog(ctx, "flight", nil, testLog(4))
	if err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	var src telemetry.Source = NewArchiveSource(s, id)
	if want := fmt.Sprintf("archived log %d", id); src.Describe() != want {
		t.Errorf("description before Load = %q, want %q", src.Describe(), want)
	}

	log, err := src.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Describe() != "flight" {
		t.Errorf("description after Load = %q, want %q", src.Describe(), "flight")
	}
	if log.Len() != 4 {
		t.Errorf("expected 4 records, got %d", log.Len())
	}
	if err := log.Validate(); err != nil {
		t.Errorf("archived log does not validate: %v", err)
	}
}

func TestArchiveSource_Missing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.StoreLog(ctx, "flight", nil, testLog(2)); err != nil {
		t.Fatalf("StoreLog: %v", err)
	}

	src := NewArchiveSource(s, 42)
	if _, err := src.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if src.Describe() != "archived log 42" {
		t.Errorf("unexpected description %q", src.Describe())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := NewArchiveSource(s, 1).Load(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "archive.db"))
	if _, err := s.CreateLog(context.Background(), "x", nil, 0); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSqliteStore_StoreLogAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	db, err := s.getWriteDB()
	if err != nil {
		t.Fatalf("getWriteDB: %v", err)
	}
	_, err = db.Exec(`
CREATE TRIGGER reject_channel BEFORE INSERT ON channels
WHEN NEW.name = 'stateCompressed.x'
BEGIN
    SELECT RAISE(ABORT, 'channel rejected');
END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	// Channels are stored in name order, so spCompressed.x lands before the
	// rejected one.
	log := telemetry.NewLog(map[string][]float64{
		"tick":              {1, 2},
		"spCompressed.x":    {3, 4},
		"stateCompressed.x": {5, 6},
	})
	if _, err = s.StoreLog(ctx, "partial", nil, log); err == nil {
		t.Fatal("expected StoreLog to fail")
	}

	logs, err := s.Logs(ctx)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("failed archive left logs behind: %+v", logs)
	}

	var channels int
	if err = db.QueryRow(`SELECT COUNT(*) FROM channels`).Scan(&channels); err != nil {
		t.Fatalf("counting channels: %v", err)
	}
	if channels != 0 {
		t.Errorf("failed archive left %d channels behind", channels)
	}
}

package figure

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/roman-kulish/flightplot/internal/catalog"
	"github.com/roman-kulish/flightplot/internal/layout"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

func positionLog() *telemetry.Log {
	return telemetry.NewLog(map[string][]float64{
		"tick":              {0, 10, 20, 30},
		"stateCompressed.x": {1, 2, 3, 4},
		"spCompressed.x":    {1, 1, 3, 3},
		"stateCompressed.y": {0, 0, 0, 0},
		"spCompressed.y":    {0, 0, 0, 0},
		"stateCompressed.z": {5, 6, 7, 8},
		"spCompressed.z":    {5, 5, 5, 5},
		"gyro.x":            {0.1, 0.2, 0.3, 0.4},
		"gyro.y":            {0.1, 0.2, 0.3, 0.4},
		"gyro.z":            {0.1, 0.2, 0.3, 0.4},
	})
}

func TestNew(t *testing.T) {
	f := New("log42", 3, 1)
	if f.Empty() || len(f.Panels) != 3 {
		t.Fatalf("expected 3 panels, got %d", len(f.Panels))
	}
	for i, p := range f.Panels {
		if p.Index != i+1 || !p.Blank() {
			t.Errorf("panel %d: index %d blank %v", i, p.Index, p.Blank())
		}
	}

	if f := New("empty", 0, 1); !f.Empty() {
		t.Error("figure with zero rows must have no panels")
	}
}

func TestFigure_Panel(t *testing.T) {
	f := New("", 3, 1)
	for _, index := range []int{0, 4, -1} {
		if _, err := f.Panel(index); !errors.Is(err, ErrPanelOutOfRange) {
			t.Errorf("Panel(%d): expected ErrPanelOutOfRange, got %v", index, err)
		}
	}
	if p, err := f.Panel(3); err != nil || p.Index != 3 {
		t.Errorf("Panel(3) = %+v, %v", p, err)
	}
}

func TestRenderPanel(t *testing.T) {
	log := positionLog()
	f := New("log42", 3, 1)

	err := RenderPanel(f, layout.Panel{Group: catalog.Position, Axis: "x", Index: 1}, log)
	if err != nil {
		t.Fatalf("RenderPanel: %v", err)
	}

	p := f.Panels[0]
	if p.XLabel != "RTOS Ticks" || p.YLabel != "X [mm]" {
		t.Errorf("unexpected labels %q / %q", p.XLabel, p.YLabel)
	}
	if diff := cmp.Diff(DefaultLegend, p.Legend); diff != "" {
		t.Errorf("legend mismatch (-want +got):\n%s", diff)
	}
	if len(p.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(p.Series))
	}

	state, sp := p.Series[0], p.Series[1]
	if state.Label != "X (state)" || sp.Label != "X (sp)" {
		t.Errorf("unexpected series labels %q, %q", state.Label, sp.Label)
	}
	if state.Role != RoleState || sp.Role != RoleSetpoint {
		t.Errorf("unexpected roles %v, %v", state.Role, sp.Role)
	}
	if state.Markers || sp.Markers {
		t.Error("series must be plain lines")
	}
	if state.Color == sp.Color {
		t.Error("state and setpoint must not share a colour")
	}
	if len(state.X) != len(state.Y) || len(sp.X) != len(sp.Y) || len(state.X) != len(sp.X) {
		t.Error("series are not aligned with tick")
	}
	if &state.X[0] != &sp.X[0] {
		t.Error("series must share the tick slice")
	}

	for i := 2; i <= 3; i++ {
		if !f.Panels[i-1].Blank() {
			t.Errorf("panel %d should be untouched", i)
		}
	}
}

func TestRenderPanel_Labels(t *testing.T) {
	log := telemetry.NewLog(map[string][]float64{
		"tick":               {1},
		"stateCompressed.vz": {1},
		"spCompressed.vz":    {1},
		"stateCompressed.ay": {1},
		"spCompressed.ay":    {1},
	})
	f := New("", 2, 1)

	testCases := []struct {
		panel  layout.Panel
		ylabel string
		state  string
	}{
		{layout.Panel{Group: catalog.Velocity, Axis: "vz", Index: 1}, "VZ [mm/s]", "VZ (state)"},
		{layout.Panel{Group: catalog.Acceleration, Axis: "ay", Index: 2}, "AY [mm/s^2]", "AY (state)"},
	}

	for _, tc := range testCases {
		if err := RenderPanel(f, tc.panel, log); err != nil {
			t.Fatalf("RenderPanel(%s): %v", tc.panel.Axis, err)
		}
		p := f.Panels[tc.panel.Index-1]
		if p.YLabel != tc.ylabel || p.Series[0].Label != tc.state {
			t.Errorf("%s: got %q / %q", tc.panel.Axis, p.YLabel, p.Series[0].Label)
		}
	}
}

func TestRenderPanel_Idempotent(t *testing.T) {
	log := positionLog()
	f := New("", 1, 1)
	panel := layout.Panel{Group: catalog.Position, Axis: "z", Index: 1}

	if err := RenderPanel(f, panel, log); err != nil {
		t.Fatal(err)
	}
	first := *f.Panels[0]

	if err := RenderPanel(f, panel, log); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, *f.Panels[0]); diff != "" {
		t.Errorf("second render differs (-first +second):\n%s", diff)
	}
	if len(f.Panels[0].Series) != 2 {
		t.Errorf("second render must replace, not append")
	}
}

func TestRenderPanel_Errors(t *testing.T) {
	f := New("", 1, 1)

	noSetpoint := telemetry.NewLog(map[string][]float64{
		"tick":              {1},
		"stateCompressed.x": {1},
	})
	err := RenderPanel(f, layout.Panel{Group: catalog.Position, Axis: "x", Index: 1}, noSetpoint)
	var missing *telemetry.MissingChannelError
	if !errors.As(err, &missing) || missing.Name != "spCompressed.x" {
		t.Errorf("expected missing spCompressed.x, got %v", err)
	}

	noTick := telemetry.NewLog(map[string][]float64{
		"stateCompressed.x": {1},
		"spCompressed.x":    {1},
	})
	err = RenderPanel(f, layout.Panel{Group: catalog.Position, Axis: "x", Index: 1}, noTick)
	if !errors.As(err, &missing) || missing.Name != "tick" {
		t.Errorf("expected missing tick, got %v", err)
	}

	err = RenderPanel(f, layout.Panel{Group: catalog.Position, Axis: "x", Index: 2}, positionLog())
	if !errors.Is(err, ErrPanelOutOfRange) {
		t.Errorf("expected ErrPanelOutOfRange, got %v", err)
	}
}

func TestRenderOverview(t *testing.T) {
	f := New("", 1, 1)
	if err := RenderOverview(f, layout.Extra{Overview: catalog.Gyro, Index: 1}, positionLog()); err != nil {
		t.Fatalf("RenderOverview: %v", err)
	}

	p := f.Panels[0]
	if p.YLabel != "Position [m]" || len(p.Series) != 3 {
		t.Fatalf("unexpected overview panel %+v", p)
	}

	var labels []string
	seen := map[any]bool{}
	for _, s := range p.Series {
		labels = append(labels, s.Label)
		seen[s.Color] = true
	}
	if diff := cmp.Diff([]string{"X", "Y", "Z"}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct colours, got %d", len(seen))
	}
}

func TestPanel_Bounds(t *testing.T) {
	testCases := []struct {
		name   string
		series []Series
		want   Bounds
	}{
		{
			name: "blank",
			want: Bounds{Min: -1, Max: 1},
		},
		{
			name: "margin",
			series: []Series{
				{Y: []float64{0, 5}},
				{Y: []float64{10, 2}},
			},
			want: Bounds{Min: -1, Max: 11},
		},
		{
			name:   "flat signal",
			series: []Series{{Y: []float64{4, 4, 4}}},
			want:   Bounds{Min: 3.4, Max: 4.6},
		},
		{
			name:   "non finite samples are ignored",
			series: []Series{{Y: []float64{math.NaN(), 0, 10, math.Inf(1)}}},
			want:   Bounds{Min: -1, Max: 11},
		},
	}

	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Panel{Series: tc.series}
			if diff := cmp.Diff(tc.want, p.Bounds(), approx); diff != "" {
				t.Errorf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPalette(t *testing.T) {
	for _, theme := range Themes() {
		p := NewPalette(theme)
		seen := map[string]bool{}
		for i := range p.Colors {
			seen[p.Hex(i)] = true
		}
		if len(seen) != len(p.Colors) {
			t.Errorf("%s: palette colours are not distinct", theme)
		}
	}

	if _, ok := ParseTheme("thermal"); ok {
		t.Error("unexpected theme")
	}
	if theme, ok := ParseTheme("marine"); !ok || theme != MarineTheme {
		t.Errorf("ParseTheme(marine) = %v, %v", theme, ok)
	}
}

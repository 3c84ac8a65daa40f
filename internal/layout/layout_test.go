package layout

import (
	"testing"

	"github.com/roman-kulish/flightplot/internal/catalog"
	"github.com/roman-kulish/flightplot/internal/selector"
)

func selection(include map[string]bool, overviews ...catalog.Overview) selector.Selection {
	var sel selector.Selection
	for _, g := range catalog.Groups() {
		sel.Decisions = append(sel.Decisions, selector.Decision{Group: g, Include: include[g.Key]})
	}
	sel.Overviews = overviews
	return sel
}

func TestPlan(t *testing.T) {
	testCases := []struct {
		name      string
		include   map[string]bool
		wantAxes  []string
		wantRows  int
		wantEmpty bool
	}{
		{
			name:      "nothing selected",
			wantEmpty: true,
		},
		{
			name:     "position only",
			include:  map[string]bool{"pos": true},
			wantAxes: []string{"x", "y", "z"},
			wantRows: 3,
		},
		{
			name:     "velocity and acceleration",
			include:  map[string]bool{"acc": true, "vel": true},
			wantAxes: []string{"vx", "vy", "vz", "ax", "ay", "az"},
			wantRows: 6,
		},
		{
			name:     "everything",
			include:  map[string]bool{"pos": true, "vel": true, "acc": true},
			wantAxes: []string{"x", "y", "z", "vx", "vy", "vz", "ax", "ay", "az"},
			wantRows: 9,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := Plan(selection(tc.include))

			if l.Rows != tc.wantRows || l.Cols != 1 {
				t.Errorf("grid %dx%d, want %dx1", l.Rows, l.Cols, tc.wantRows)
			}
			if l.Empty() != tc.wantEmpty {
				t.Errorf("Empty() = %v, want %v", l.Empty(), tc.wantEmpty)
			}
			if len(l.Panels) != l.Rows {
				t.Fatalf("got %d panels for %d rows", len(l.Panels), l.Rows)
			}

			for i, p := range l.Panels {
				if p.Index != i+1 {
					t.Errorf("panel %d has index %d", i, p.Index)
				}
				if p.Axis != tc.wantAxes[i] {
					t.Errorf("panel %d has axis %q, want %q", i, p.Axis, tc.wantAxes[i])
				}
				if row, col := l.Position(p.Index); row != i || col != 0 {
					t.Errorf("panel %d positioned at (%d, %d)", p.Index, row, col)
				}
			}
		})
	}
}

func TestPlan_Extras(t *testing.T) {
	l := Plan(selection(map[string]bool{"vel": true}, catalog.Gyro))

	if l.Rows != 3 || l.TotalRows() != 4 {
		t.Errorf("rows %d total %d, want 3 and 4", l.Rows, l.TotalRows())
	}
	if len(l.Extras) != 1 || l.Extras[0].Index != 4 {
		t.Errorf("unexpected extras %+v", l.Extras)
	}

	l = Plan(selection(nil, catalog.Gyro))
	if l.Empty() || l.Rows != 0 || l.Extras[0].Index != 1 {
		t.Errorf("overview alone should occupy the first row, got %+v", l)
	}
}

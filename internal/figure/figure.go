// Package figure holds the in-memory model of a multi-panel time-series plot.
// Display backends read it, the renderer fills it.
package figure

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrPanelOutOfRange is returned when a panel index does not address a cell of
// the figure grid.
var ErrPanelOutOfRange = errors.New("panel index out of range")

const (
	TickLabel = "RTOS Ticks"

	LegendUpperCenter = "upper center"
)

// Role distinguishes what a series shows.
type Role int

const (
	RoleState Role = iota
	RoleSetpoint
	RoleRaw
)

func (r Role) String() string {
	switch r {
	case RoleState:
		return "state"
	case RoleSetpoint:
		return "setpoint"
	default:
		return "raw"
	}
}

// Series is one line of a panel. X is shared with the tick channel of the log
// the panel was rendered from.
type Series struct {
	Label   string
	Role    Role
	X       []float64
	Y       []float64
	Markers bool
	Color   color.Color
}

// Legend describes where the legend box goes and how entries flow in it.
type Legend struct {
	Placement string
	Columns   int
	Padding   int
}

// DefaultLegend is the legend used by every rendered panel.
var DefaultLegend = Legend{Placement: LegendUpperCenter, Columns: 3, Padding: 0}

// Panel is one cell of the figure grid. A panel without series is blank.
type Panel struct {
	Index  int
	Title  string
	XLabel string
	YLabel string
	Series []Series
	Legend Legend
}

// Blank reports whether nothing was rendered into the panel.
func (p *Panel) Blank() bool {
	return len(p.Series) == 0
}

// WithTheme selects the palette the renderer colours series with
func WithTheme(theme Theme) func(*Figure) {
	return func(f *Figure) {
		f.Palette = NewPalette(theme)
	}
}

// Figure is a grid of panels, addressed by 1-based row-major index.
type Figure struct {
	Title      string
	Rows       int
	Cols       int
	Background color.Color
	Palette    Palette
	Panels     []*Panel
}

// New creates a figure with rows x cols blank panels. A figure with zero rows
// has no panels at all.
func New(title string, rows, cols int, options ...func(*Figure)) *Figure {
	if rows < 0 {
		rows = 0
	}
	if cols < 1 {
		cols = 1
	}

	f := Figure{
		Title:      title,
		Rows:       rows,
		Cols:       cols,
		Background: color.White,
		Palette:    NewPalette(DefaultTheme),
		Panels:     make([]*Panel, rows*cols),
	}
	for i := range f.Panels {
		f.Panels[i] = &Panel{Index: i + 1}
	}

	for _, option := range options {
		option(&f)
	}

	return &f
}

// Panel returns the panel at the 1-based index.
func (f *Figure) Panel(index int) (*Panel, error) {
	if index < 1 || index > len(f.Panels) {
		return nil, fmt.Errorf("panel %d of %d: %w", index, len(f.Panels), ErrPanelOutOfRange)
	}
	return f.Panels[index-1], nil
}

// Empty reports whether the figure has no panels.
func (f *Figure) Empty() bool {
	return len(f.Panels) == 0
}

// Samples returns the total number of points across all series.
func (f *Figure) Samples() int {
	var n int
	for _, p := range f.Panels {
		for _, s := range p.Series {
			n += len(s.Y)
		}
	}
	return n
}

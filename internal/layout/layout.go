// Package layout turns a selection into a single-column grid of panels.
package layout

import (
	"github.com/roman-kulish/flightplot/internal/catalog"
	"github.com/roman-kulish/flightplot/internal/selector"
)

// Cols is the number of grid columns, panels are stacked in one column.
const Cols = 1

// Panel addresses one axis of one group. Index is 1-based and row-major.
type Panel struct {
	Group catalog.Group
	Axis  string
	Index int
}

// Extra is an overview panel placed after the group panels.
type Extra struct {
	Overview catalog.Overview
	Index    int
}

// Layout is the planned grid. Rows counts group panels only, extras add one
// row each on top of it.
type Layout struct {
	Rows   int
	Cols   int
	Panels []Panel
	Extras []Extra
}

// Plan lays out the included groups in catalog order, one row per axis,
// followed by any accepted overviews.
func Plan(sel selector.Selection) Layout {
	groups := sel.Groups()

	l := Layout{
		Rows:   3 * len(groups),
		Cols:   Cols,
		Panels: make([]Panel, 0, 3*len(groups)),
	}

	index := 1
	for _, g := range groups {
		for _, axis := range g.Axes {
			l.Panels = append(l.Panels, Panel{Group: g, Axis: axis, Index: index})
			index++
		}
	}

	for _, o := range sel.Overviews {
		l.Extras = append(l.Extras, Extra{Overview: o, Index: index})
		index++
	}

	return l
}

// Empty reports whether there is nothing to draw.
func (l Layout) Empty() bool {
	return len(l.Panels) == 0 && len(l.Extras) == 0
}

// TotalRows is the grid height including overview rows.
func (l Layout) TotalRows() int {
	return l.Rows + len(l.Extras)
}

// Position maps a 1-based panel index to its zero-based grid cell.
func (l Layout) Position(index int) (row, col int) {
	cols := l.Cols
	if cols < 1 {
		cols = Cols
	}
	return (index - 1) / cols, (index - 1) % cols
}

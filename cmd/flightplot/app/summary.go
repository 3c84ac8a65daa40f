package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/roman-kulish/flightplot/internal/layout"
)

// summaryRows lists each selected group and overview with the rows it takes
// and the panel indices it covers.
func summaryRows(l layout.Layout) [][]string {
	data := [][]string{{"Group", "Rows", "Panels"}}

	// Group panels are contiguous, three per group
	for i := 0; i < len(l.Panels); i += 3 {
		first := l.Panels[i]
		last := l.Panels[min(i+2, len(l.Panels)-1)]
		data = append(data, []string{
			first.Group.Name,
			strconv.Itoa(last.Index - first.Index + 1),
			fmt.Sprintf("%d-%d", first.Index, last.Index),
		})
	}

	for _, e := range l.Extras {
		data = append(data, []string{e.Overview.Name, "1", strconv.Itoa(e.Index)})
	}
	return data
}

// printSummary renders the selection table, or a notice when nothing was
// selected.
func printSummary(w io.Writer, l layout.Layout) error {
	if l.Empty() {
		pterm.Warning.WithWriter(w).Println("No channel groups selected, the figure is empty")
		return nil
	}

	err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithWriter(w).
		WithData(summaryRows(l)).
		Render()
	if err != nil {
		return fmt.Errorf("rendering summary: %w", err)
	}
	return nil
}

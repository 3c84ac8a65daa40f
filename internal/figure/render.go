package figure

import (
	"fmt"
	"strings"

	"github.com/roman-kulish/flightplot/internal/layout"
	"github.com/roman-kulish/flightplot/internal/telemetry"
)

// RenderPanel draws the state and setpoint series of one group axis into the
// addressed panel, replacing whatever the panel held before.
func RenderPanel(fig *Figure, p layout.Panel, log *telemetry.Log) error {
	panel, err := fig.Panel(p.Index)
	if err != nil {
		return err
	}

	ticks, err := log.Ticks()
	if err != nil {
		return fmt.Errorf("rendering panel %d: %w", p.Index, err)
	}
	state, err := log.Channel(p.Group.StateChannel(p.Axis))
	if err != nil {
		return fmt.Errorf("rendering panel %d: %w", p.Index, err)
	}
	setpoint, err := log.Channel(p.Group.SetpointChannel(p.Axis))
	if err != nil {
		return fmt.Errorf("rendering panel %d: %w", p.Index, err)
	}

	axis := strings.ToUpper(p.Axis)

	*panel = Panel{
		Index:  p.Index,
		Title:  fmt.Sprintf("%s %s", p.Group.Name, axis),
		XLabel: TickLabel,
		YLabel: fmt.Sprintf("%s [%s]", axis, p.Group.Unit),
		Legend: DefaultLegend,
		Series: []Series{
			{
				Label: axis + " (state)",
				Role:  RoleState,
				X:     ticks,
				Y:     state,
				Color: fig.Palette.Color(0),
			},
			{
				Label: axis + " (sp)",
				Role:  RoleSetpoint,
				X:     ticks,
				Y:     setpoint,
				Color: fig.Palette.Color(fig.Palette.contrast()),
			},
		},
	}

	return nil
}

// RenderOverview draws every channel of an overview into one panel.
func RenderOverview(fig *Figure, e layout.Extra, log *telemetry.Log) error {
	panel, err := fig.Panel(e.Index)
	if err != nil {
		return err
	}

	ticks, err := log.Ticks()
	if err != nil {
		return fmt.Errorf("rendering panel %d: %w", e.Index, err)
	}

	series := make([]Series, 0, len(e.Overview.Channels))
	for i, name := range e.Overview.Channels {
		samples, err := log.Channel(name)
		if err != nil {
			return fmt.Errorf("rendering panel %d: %w", e.Index, err)
		}

		label := name
		if i < len(e.Overview.Labels) {
			label = e.Overview.Labels[i]
		}
		series = append(series, Series{
			Label: label,
			Role:  RoleRaw,
			X:     ticks,
			Y:     samples,
			Color: fig.Palette.Color(i * fig.Palette.contrast() / max(len(e.Overview.Channels)-1, 1)),
		})
	}

	*panel = Panel{
		Index:  e.Index,
		Title:  e.Overview.Name,
		XLabel: TickLabel,
		YLabel: e.Overview.YLabel,
		Legend: DefaultLegend,
		Series: series,
	}

	return nil
}

package display

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/roman-kulish/flightplot/internal/figure"
)

// ChartConfig sizes the charts of the interactive page.
type ChartConfig struct {
	Width       int // Chart width in pixels
	PanelHeight int // Chart height in pixels
}

// ChartRenderer builds a go-echarts page with one zoomable line chart per
// panel, stacked in grid order.
type ChartRenderer struct {
	config ChartConfig
}

func NewChartRenderer(config ChartConfig) *ChartRenderer {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.PanelHeight <= 0 {
		config.PanelHeight = defaultPanelHeight + 40
	}
	return &ChartRenderer{config: config}
}

// Page builds the chart page for fig. Blank panels are skipped.
func (r *ChartRenderer) Page(fig *figure.Figure) *components.Page {
	page := components.NewPage()
	page.SetPageTitle(pageTitle(fig))
	page.SetLayout(components.PageCenterLayout)

	for _, panel := range fig.Panels {
		if panel.Blank() {
			continue
		}
		page.AddCharts(r.chart(fig, panel))
	}
	return page
}

// WriteHTML renders the page for fig.
func (r *ChartRenderer) WriteHTML(w io.Writer, fig *figure.Figure) error {
	if err := r.Page(fig).Render(w); err != nil {
		return fmt.Errorf("rendering chart page: %w", err)
	}
	return nil
}

func (r *ChartRenderer) chart(fig *figure.Figure, panel *figure.Panel) *charts.Line {
	line := charts.NewLine()

	bounds := panel.Bounds()
	legend := opts.Legend{Show: opts.Bool(true)}
	if panel.Legend.Placement == figure.LegendUpperCenter {
		legend.Top = "top"
		legend.Left = "center"
		legend.Orient = "horizontal"
	}
	legend.Padding = panel.Legend.Padding

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       pageTitle(fig),
			Width:           fmt.Sprintf("%dpx", r.config.Width),
			Height:          fmt.Sprintf("%dpx", r.config.PanelHeight),
			BackgroundColor: figure.Hex(fig.Background),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: panel.Title,
		}),
		charts.WithLegendOpts(legend),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         panel.XLabel,
			NameLocation: "middle",
			Type:         "value",
			Scale:        opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  panel.YLabel,
			Type:  "value",
			Min:   bounds.Min,
			Max:   bounds.Max,
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			XAxisIndex: []int{0},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:         "60",
			Right:        "30",
			Top:          "60",
			Bottom:       "50",
			ContainLabel: opts.Bool(true),
		}),
	)

	for _, s := range panel.Series {
		hex := figure.Hex(s.Color)
		line.AddSeries(s.Label, lineData(s),
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(s.Markers),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hex}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex, Width: lineWidth}),
		)
	}

	return line
}

// lineData pairs samples as [x, y] values for a value type x axis. Samples
// that do not encode as JSON numbers are dropped.
func lineData(s figure.Series) []opts.LineData {
	n := min(len(s.X), len(s.Y))
	data := make([]opts.LineData, 0, n)
	for i := range n {
		if isFinite(s.X[i]) && isFinite(s.Y[i]) {
			data = append(data, opts.LineData{Value: []float64{s.X[i], s.Y[i]}})
		}
	}
	return data
}

func pageTitle(fig *figure.Figure) string {
	if fig.Title == "" {
		return "flightplot"
	}
	return fig.Title + " - flightplot"
}

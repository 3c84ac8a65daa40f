// Package display turns a rendered figure into something an operator can look
// at: a raster image, an interactive chart page and a local viewer serving
// both.
package display

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/roman-kulish/flightplot/internal/figure"
)

const (
	defaultWidth         = 1200
	defaultPanelHeight   = 220
	defaultInfoBarHeight = 32
	defaultFontSize      = 10.0
	defaultLeftMargin    = 12

	lineWidth = 1.2 // points
)

// RasterConfig holds the pixel geometry of the rendered image.
type RasterConfig struct {
	Width         int     // Image width in pixels
	PanelHeight   int     // Height of one grid row in pixels
	InfoBarHeight int     // Space under the grid for the info bar
	FontSize      float64 // Info bar font size in points
}

// RasterRenderer draws a figure with gonum/plot, one plot per panel tiled on a
// single canvas.
type RasterRenderer struct {
	config RasterConfig
}

// NewRasterRenderer creates a renderer, zero config values take defaults.
func NewRasterRenderer(config RasterConfig) *RasterRenderer {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.PanelHeight <= 0 {
		config.PanelHeight = defaultPanelHeight
	}
	if config.InfoBarHeight <= 0 {
		config.InfoBarHeight = defaultInfoBarHeight
	}
	if config.FontSize <= 0 {
		config.FontSize = defaultFontSize
	}

	return &RasterRenderer{config: config}
}

// pixels converts an image size in pixels to a vg length at the canvas DPI.
func pixels(px int) vg.Length {
	return vg.Length(px) * vg.Inch / dpi
}

// Render draws the figure onto a new canvas. An empty figure yields a blank
// grid area above the info bar.
func (r *RasterRenderer) Render(fig *figure.Figure) (*vgimg.Canvas, error) {
	rows := max(fig.Rows, 1)
	height := rows*r.config.PanelHeight + r.config.InfoBarHeight

	c := vgimg.NewWith(
		vgimg.UseWH(pixels(r.config.Width), pixels(height)),
		vgimg.UseDPI(int(dpi)),
		vgimg.UseBackgroundColor(fig.Background),
	)
	dc := draw.New(c)
	grid := draw.Crop(dc, 0, 0, pixels(r.config.InfoBarHeight), 0)

	if !fig.Empty() {
		if err := r.drawGrid(grid, fig); err != nil {
			return nil, err
		}
	}

	ann, err := newAnnotator(annotatorConfig{
		FontSize:      r.config.FontSize,
		InfoBarHeight: r.config.InfoBarHeight,
		LeftMargin:    defaultLeftMargin,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(c.Image(), fig); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return c, nil
}

// WritePNG renders the figure and encodes it as PNG.
func (r *RasterRenderer) WritePNG(w io.Writer, fig *figure.Figure) error {
	c, err := r.Render(fig)
	if err != nil {
		return err
	}
	if _, err = (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func (r *RasterRenderer) drawGrid(dc draw.Canvas, fig *figure.Figure) error {
	plots := make([][]*plot.Plot, fig.Rows)
	for row := range plots {
		plots[row] = make([]*plot.Plot, fig.Cols)
	}

	for _, panel := range fig.Panels {
		p, err := newPlot(panel)
		if err != nil {
			return fmt.Errorf("building panel %d: %w", panel.Index, err)
		}
		plots[(panel.Index-1)/fig.Cols][(panel.Index-1)%fig.Cols] = p
	}

	tiles := draw.Tiles{
		Rows:      fig.Rows,
		Cols:      fig.Cols,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(8),
		PadRight:  vg.Points(12),
		PadY:      vg.Points(6),
	}

	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col, p := range plots[row] {
			centerLegend(p, canvases[row][col])
			p.Draw(canvases[row][col])
		}
	}
	return nil
}

func newPlot(panel *figure.Panel) (*plot.Plot, error) {
	p := plot.New()
	p.BackgroundColor = nil
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel

	if panel.Blank() {
		return p, nil
	}

	xb, yb := panel.XBounds(), panel.Bounds()
	p.X.Min, p.X.Max = xb.Min, xb.Max
	p.Y.Min, p.Y.Max = yb.Min, yb.Max

	p.Add(plotter.NewGrid())

	for _, s := range panel.Series {
		xys := finiteXYs(s.X, s.Y)

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Label, err)
		}
		line.Color = s.Color
		line.Width = vg.Points(lineWidth)
		p.Add(line)

		if s.Markers {
			scatter, err := plotter.NewScatter(xys)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", s.Label, err)
			}
			scatter.GlyphStyle.Color = s.Color
			p.Add(scatter)
			p.Legend.Add(s.Label, line, scatter)
			continue
		}

		p.Legend.Add(s.Label, line)
	}

	if panel.Legend.Placement == figure.LegendUpperCenter {
		p.Legend.Top = true
		p.Legend.Left = false
	}
	p.Legend.Padding = vg.Points(float64(panel.Legend.Padding))

	return p, nil
}

// centerLegend shifts a top right legend towards the middle of the canvas.
// gonum/plot has no horizontal centring and stacks entries vertically, so
// this is the closest it gets to an upper center legend.
func centerLegend(p *plot.Plot, c draw.Canvas) {
	if !p.Legend.Top || p.Legend.Left {
		return
	}
	r := p.Legend.Rectangle(c)
	free := (c.Max.X - c.Min.X) - (r.Max.X - r.Min.X)
	if free > 0 {
		p.Legend.XOffs = -free / 2
	}
}

// finiteXYs pairs samples into points, skipping NaN and infinite values that
// plotter refuses.
func finiteXYs(x, y []float64) plotter.XYs {
	n := min(len(x), len(y))
	xys := make(plotter.XYs, 0, n)
	for i := range n {
		if isFinite(x[i]) && isFinite(y[i]) {
			xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		}
	}
	return xys
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

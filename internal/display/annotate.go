package display

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/flightplot/internal/figure"
)

const dpi = 96.0

type annotatorConfig struct {
	FontSize      float64
	InfoBarHeight int
	LeftMargin    int
}

// annotator writes the info bar under the plot grid.
type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img draw.Image, fig *figure.Figure) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawInfoBar(img, fig); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) drawInfoBar(img draw.Image, fig *figure.Figure) error {
	text := infoText(fig)

	// Shrink to fit rather than clip
	runes := []rune(text)
	for len(runes) > 0 && font.MeasureString(a.fontFace, string(runes)).Round() > img.Bounds().Dx()-2*a.config.LeftMargin {
		runes = runes[:len(runes)-1]
	}
	text = string(runes)

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Center text vertically in the bottom bar
	textY := img.Bounds().Max.Y - (a.config.InfoBarHeight-fontHeight)/2 - metrics.Descent.Round()

	// Separator between grid and bar
	lineY := img.Bounds().Max.Y - a.config.InfoBarHeight
	for x := a.config.LeftMargin; x < img.Bounds().Max.X-a.config.LeftMargin; x++ {
		img.Set(x, lineY, image.Black)
	}

	pt := freetype.Pt(a.config.LeftMargin, textY)
	if _, err := a.context.DrawString(text, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func infoText(fig *figure.Figure) string {
	var sb strings.Builder

	if fig.Title != "" {
		sb.WriteString(fig.Title)
		sb.WriteString("; ")
	}

	var drawn int
	var ticks figure.Bounds
	for _, p := range fig.Panels {
		if p.Blank() {
			continue
		}
		b := p.XBounds()
		if drawn == 0 {
			ticks = b
		} else {
			ticks.Min = min(ticks.Min, b.Min)
			ticks.Max = max(ticks.Max, b.Max)
		}
		drawn++
	}

	if drawn == 0 {
		sb.WriteString("No channel groups selected")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Panels: %d", drawn))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Ticks: %s - %s",
		humanize.Comma(int64(ticks.Min)), humanize.Comma(int64(ticks.Max))))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Samples: %s", humanize.Comma(int64(fig.Samples()))))
	return sb.String()
}

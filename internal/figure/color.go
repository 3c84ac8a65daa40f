package figure

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme is a named colour ramp the palette samples series colours from.
type Theme string

const (
	ClassicTheme   Theme = "classic"   // Blue to red
	JungleTheme    Theme = "jungle"    // Dark green to yellow
	MarineTheme    Theme = "marine"    // Deep blue to cyan
	GrayscaleTheme Theme = "grayscale" // Black to light gray

	DefaultTheme = ClassicTheme

	paletteSize = 6
)

// Themes lists the known theme names.
func Themes() []Theme {
	return []Theme{ClassicTheme, JungleTheme, MarineTheme, GrayscaleTheme}
}

// ParseTheme returns the theme with the given name.
func ParseTheme(name string) (Theme, bool) {
	for _, t := range Themes() {
		if string(t) == name {
			return t, true
		}
	}
	return "", false
}

// ramp maps t in [0,1] onto a theme colour.
func ramp(theme Theme) func(float64) colorful.Color {
	switch theme {
	case JungleTheme:
		return func(t float64) colorful.Color {
			return colorful.Hsv(120-(t*60), 1.0, 0.3+(math.Pow(t, 0.6)*0.6))
		}

	case MarineTheme:
		return func(t float64) colorful.Color {
			return colorful.Hsv(240-(t*60), 1.0-(t*0.6), 0.4+(math.Pow(t, 0.6)*0.5))
		}

	case GrayscaleTheme:
		return func(t float64) colorful.Color {
			return colorful.Hsv(0, 0, math.Pow(t, 0.7)*0.75)
		}

	default:
		return func(t float64) colorful.Color {
			return colorful.Hsv(240-(t*240), 0.9+(t*0.1), 0.85)
		}
	}
}

// Palette is a fixed list of distinct colours sampled evenly from a theme.
type Palette struct {
	Theme  Theme
	Colors []color.Color
}

func NewPalette(theme Theme) Palette {
	fn := ramp(theme)

	p := Palette{
		Theme:  theme,
		Colors: make([]color.Color, paletteSize),
	}
	for i := range p.Colors {
		t := float64(i) / float64(paletteSize-1)
		p.Colors[i] = fn(t).Clamped()
	}
	return p
}

// Color returns the i-th palette colour, wrapping around.
func (p Palette) Color(i int) color.Color {
	if len(p.Colors) == 0 {
		return color.Black
	}
	return p.Colors[i%len(p.Colors)]
}

// contrast is the palette offset of the colour farthest from the first one.
func (p Palette) contrast() int {
	if len(p.Colors) < 2 {
		return 0
	}
	return len(p.Colors) - 1
}

// Hex returns the i-th palette colour as a #rrggbb string.
func (p Palette) Hex(i int) string {
	return Hex(p.Color(i))
}

// Hex formats c as a #rrggbb string. Fully transparent and nil colours come
// out black.
func Hex(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cc.Hex()
}

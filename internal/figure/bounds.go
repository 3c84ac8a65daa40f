package figure

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultMin = -1.0
	defaultMax = 1.0

	// Spans narrower than this are widened around their centre so flat
	// signals do not fill the whole panel with noise.
	minimumSpan = 1.0

	marginRatio = 0.1
)

// Bounds is a value range of a panel axis.
type Bounds struct {
	Min float64
	Max float64
}

func defaultBounds() Bounds {
	return Bounds{Min: defaultMin, Max: defaultMax}
}

// Span is Max - Min.
func (b Bounds) Span() float64 {
	return b.Max - b.Min
}

// XBounds returns the tick range covered by the panel series.
func (p *Panel) XBounds() Bounds {
	return extent(p.Series, func(s Series) []float64 { return s.X }, false)
}

// Bounds returns the y range over every series of the panel with a 10%
// margin on both sides. Blank panels get a fixed default range.
func (p *Panel) Bounds() Bounds {
	return extent(p.Series, func(s Series) []float64 { return s.Y }, true)
}

func extent(series []Series, values func(Series) []float64, margin bool) Bounds {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		v := finite(values(s))
		if len(v) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(v))
		hi = math.Max(hi, floats.Max(v))
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return defaultBounds()
	}
	if !margin {
		if lo == hi {
			return Bounds{Min: lo - minimumSpan/2, Max: hi + minimumSpan/2}
		}
		return Bounds{Min: lo, Max: hi}
	}

	if hi-lo < minimumSpan {
		center := (hi + lo) / 2
		lo = center - minimumSpan/2
		hi = center + minimumSpan/2
	}

	m := (hi - lo) * marginRatio
	return Bounds{Min: lo - m, Max: hi + m}
}

// finite drops NaN and infinite samples. The input is returned as is when it
// has none.
func finite(v []float64) []float64 {
	clean := true
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			clean = false
			break
		}
	}
	if clean {
		return v
	}

	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Package colormap maps normalized luminance onto colors.
//
// A Colormap is a gradient through a list of stops blended in CIE L*a*b*.
// Grayscale image layers are colorized through its 256-entry lookup table.
package colormap

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrUnknownColormap = errors.New("colormap: unknown colormap")

type Colormap struct {
	name  string
	stops []colorful.Color
}

// New returns a gradient through stops, first stop at 0 and last at 1.
func New(name string, stops ...colorful.Color) (*Colormap, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("colormap %q: no stops", name)
	}
	return &Colormap{name: name, stops: slices.Clone(stops)}, nil
}

// Sampled from the matplotlib colormaps of the same names.
var named = map[string][]string{
	"gray":    {"#000000", "#ffffff"},
	"viridis": {"#440154", "#482777", "#3f4a8a", "#31678e", "#26838f", "#1f9d8a", "#6cce5a", "#b6de2b", "#fee825"},
	"magma":   {"#000004", "#1c1044", "#4f127b", "#812581", "#b5367a", "#e55964", "#fb8761", "#fec287", "#fcfdbf"},
	"inferno": {"#000004", "#1f0c48", "#550f6d", "#88226a", "#ba3655", "#e35933", "#f98e09", "#f9cb35", "#fcffa4"},
	"plasma":  {"#0d0887", "#4c02a1", "#7e03a8", "#a92395", "#cc4778", "#e56b5d", "#f89441", "#fdc328", "#f0f921"},
	"cividis": {"#00224e", "#123570", "#3b496c", "#575d6d", "#707173", "#8a8678", "#a59c74", "#c3b369", "#e1cc55", "#fee838"},
}

// Names lists the built-in colormaps in sorted order.
func Names() []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Named returns a built-in colormap.
func Named(name string) (*Colormap, error) {
	hexes, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColormap, name)
	}
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %q: %w", name, err)
		}
		stops[i] = c
	}
	return &Colormap{name: name, stops: stops}, nil
}

func (m *Colormap) Name() string { return m.name }

// Stops returns a copy of the gradient stops.
func (m *Colormap) Stops() []colorful.Color { return slices.Clone(m.stops) }

// At returns the color at t, clamped to [0,1].
func (m *Colormap) At(t float64) colorful.Color {
	n := len(m.stops)
	if n == 1 || math.IsNaN(t) || t <= 0 {
		return m.stops[0]
	}
	if t >= 1 {
		return m.stops[n-1]
	}
	pos := t * float64(n-1)
	i := int(pos)
	frac := pos - float64(i)
	if frac == 0 {
		return m.stops[i]
	}
	return m.stops[i].BlendLab(m.stops[i+1], frac)
}

// LUT samples the colormap at the 256 levels of an 8-bit luminance.
func (m *Colormap) LUT() [256][3]uint8 {
	var lut [256][3]uint8
	for i := range lut {
		r, g, b := m.At(float64(i) / 255).Clamped().RGB255()
		lut[i] = [3]uint8{r, g, b}
	}
	return lut
}

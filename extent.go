package imagelayer

import "fmt"

// Extent places a raster in plot coordinates. A Left greater than Right
// (or Bottom greater than Top) mirrors the image along that axis.
type Extent struct {
	Left, Right, Bottom, Top float64
}

// DefaultExtent centres every pixel on its integer index.
func DefaultExtent(width, height int) Extent {
	return Extent{
		Left:   -0.5,
		Right:  float64(width) - 0.5,
		Bottom: -0.5,
		Top:    float64(height) - 0.5,
	}
}

// ExtentOf reads an extent from the ordered tuple (left, right, bottom, top).
func ExtentOf(v []float64) (Extent, error) {
	if len(v) != 4 {
		return Extent{}, fmt.Errorf("%w: extent needs 4 values, got %d", ErrInvalidOption, len(v))
	}
	e := Extent{Left: v[0], Right: v[1], Bottom: v[2], Top: v[3]}
	return e, e.check()
}

// Slice returns the extent as (left, right, bottom, top).
func (e Extent) Slice() []float64 { return []float64{e.Left, e.Right, e.Bottom, e.Top} }

// Flips reports which axes the extent mirrors.
func (e Extent) Flips() (x, y bool) { return e.Left > e.Right, e.Bottom > e.Top }

// Bounds returns the rectangle covered by the extent, whatever its
// orientation.
func (e Extent) Bounds() (xmin, xmax, ymin, ymax float64) {
	return min(e.Left, e.Right), max(e.Left, e.Right), min(e.Bottom, e.Top), max(e.Bottom, e.Top)
}

func (e Extent) check() error {
	for _, v := range e.Slice() {
		if !isFinite(v) {
			return fmt.Errorf("%w: extent %v is not finite", ErrInvalidOption, e.Slice())
		}
	}
	return nil
}

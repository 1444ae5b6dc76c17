package imagelayer

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Intensity tags how the elements of an Array map onto 8-bit levels.
type Intensity uint8

const (
	_ Intensity = iota
	// ByteIntensity elements are integers nominally in [0,255].
	ByteIntensity
	// FractionalIntensity elements are floats nominally in [0,1].
	FractionalIntensity
)

func (k Intensity) String() string {
	switch k {
	case ByteIntensity:
		return "byte"
	case FractionalIntensity:
		return "fractional"
	}
	return fmt.Sprintf("Intensity(%d)", uint8(k))
}

// Number is the set of element types an Array can view.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// intensityOf resolves the tag from T alone: one half is zero only in
// integer arithmetic.
func intensityOf[T Number]() Intensity {
	var half T = 1
	half /= 2
	if half == 0 {
		return ByteIntensity
	}
	return FractionalIntensity
}

// source is a read-only, row-major view of the elements.
type source interface {
	at(i int) float64
}

type sliceView[T Number] []T

func (s sliceView[T]) at(i int) float64 { return float64(s[i]) }

type matrixView struct {
	m    mat.Matrix
	cols int
}

func (v matrixView) at(i int) float64 { return v.m.At(i/v.cols, i%v.cols) }

// Array is an immutable H×W (grayscale) or H×W×3 (RGB) grid of pixel
// intensities. Arrays built by New and FromMatrix view the caller's
// storage; nothing in this package writes to it.
type Array struct {
	shape []int
	kind  Intensity
	src   source
}

func checkShape(shape []int) error {
	switch {
	case len(shape) != 2 && len(shape) != 3:
		return fmt.Errorf("%w: %d-dimensional, want 2 or 3", ErrInvalidShape, len(shape))
	case len(shape) == 3 && shape[2] != 3:
		return fmt.Errorf("%w: %d channels, want 3 (RGB)", ErrInvalidShape, shape[2])
	case shape[0] < 1 || shape[1] < 1:
		return fmt.Errorf("%w: empty %dx%d image", ErrInvalidShape, shape[0], shape[1])
	}
	return nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// New returns an Array viewing data, laid out row-major with the given
// shape.
func New[T Number](shape []int, data []T) (*Array, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	if n := product(shape); n != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d", ErrInvalidShape, shape, n, len(data))
	}
	return &Array{shape: slices.Clone(shape), kind: intensityOf[T](), src: sliceView[T](data)}, nil
}

// Grid returns a grayscale Array holding a copy of rows.
func Grid[T Number](rows [][]T) (*Array, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidShape)
	}
	w := len(rows[0])
	data := make([]T, 0, len(rows)*w)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d elements, want %d", ErrInvalidShape, y, len(row), w)
		}
		data = append(data, row...)
	}
	return New([]int{len(rows), w}, data)
}

// Grid3 returns an RGB Array holding a copy of rows.
func Grid3[T Number](rows [][][]T) (*Array, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no pixels", ErrInvalidShape)
	}
	h, w, c := len(rows), len(rows[0]), len(rows[0][0])
	data := make([]T, 0, h*w*c)
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d pixels, want %d", ErrInvalidShape, y, len(row), w)
		}
		for x, px := range row {
			if len(px) != c {
				return nil, fmt.Errorf("%w: pixel (%d,%d) has %d channels, want %d", ErrInvalidShape, y, x, len(px), c)
			}
			data = append(data, px...)
		}
	}
	return New([]int{h, w, c}, data)
}

// FromSlice is New for data whose element type is only known at run
// time. Slices of anything but Go integers and floats are rejected with
// ErrInvalidDtype.
func FromSlice(shape []int, data any) (*Array, error) {
	switch d := data.(type) {
	case []uint8:
		return New(shape, d)
	case []uint16:
		return New(shape, d)
	case []uint32:
		return New(shape, d)
	case []uint64:
		return New(shape, d)
	case []uint:
		return New(shape, d)
	case []int8:
		return New(shape, d)
	case []int16:
		return New(shape, d)
	case []int32:
		return New(shape, d)
	case []int64:
		return New(shape, d)
	case []int:
		return New(shape, d)
	case []float32:
		return New(shape, d)
	case []float64:
		return New(shape, d)
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidDtype, data)
}

// FromNested converts a nested list, as decoded from JSON, into an Array.
// The array holds byte intensities when every leaf is integral and
// fractional intensities otherwise.
func FromNested(v any) (*Array, error) {
	var shape []int
	for cur := v; ; {
		list, ok := cur.([]any)
		if !ok {
			break
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			break
		}
		cur = list[0]
	}
	if err := checkShape(shape); err != nil {
		return nil, err
	}

	data := make([]float64, 0, product(shape))
	fractional := false
	var walk func(node any, depth int) error
	walk = func(node any, depth int) error {
		if depth == len(shape) {
			f, frac, err := nestedLeaf(node)
			if err != nil {
				return err
			}
			data = append(data, f)
			fractional = fractional || frac
			return nil
		}
		list, ok := node.([]any)
		if !ok || len(list) != shape[depth] {
			return fmt.Errorf("%w: ragged list at depth %d", ErrInvalidShape, depth)
		}
		for _, item := range list {
			if err := walk(item, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(v, 0); err != nil {
		return nil, err
	}

	kind := ByteIntensity
	if fractional {
		kind = FractionalIntensity
	}
	return &Array{shape: shape, kind: kind, src: sliceView[float64](data)}, nil
}

func nestedLeaf(v any) (value float64, fractional bool, err error) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrInvalidDtype, n.String())
		}
		return f, strings.ContainsAny(n.String(), ".eE"), nil
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), false, nil
	case int64:
		return float64(n), false, nil
	case []any:
		return 0, false, fmt.Errorf("%w: ragged list", ErrInvalidShape)
	}
	return 0, false, fmt.Errorf("%w: %T leaf", ErrInvalidDtype, v)
}

// FromMatrix returns a grayscale Array of fractional intensities viewing m.
func FromMatrix(m mat.Matrix) (*Array, error) {
	r, c := m.Dims()
	shape := []int{r, c}
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	return &Array{shape: shape, kind: FractionalIntensity, src: matrixView{m: m, cols: c}}, nil
}

// FromImage copies img into a byte-intensity Array: H×W for gray images,
// H×W×3 for everything else. Alpha is dropped.
func FromImage(img image.Image) (*Array, error) {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		pix := make([]uint8, 0, h*w)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pix = append(pix, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
		return New([]int{h, w}, pix)
	}
	pix := make([]uint8, 0, h*w*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
		}
	}
	return New([]int{h, w, 3}, pix)
}

// Shape returns a copy of the dimensions.
func (a *Array) Shape() []int    { return slices.Clone(a.shape) }
func (a *Array) Rank() int       { return len(a.shape) }
func (a *Array) Height() int     { return a.shape[0] }
func (a *Array) Width() int      { return a.shape[1] }
func (a *Array) Kind() Intensity { return a.kind }

// Channels is 1 for grayscale arrays and 3 for RGB.
func (a *Array) Channels() int {
	if len(a.shape) == 3 {
		return a.shape[2]
	}
	return 1
}

// Len is the number of elements.
func (a *Array) Len() int { return product(a.shape) }

// At returns the element at (y, x, channel); channel is ignored for
// grayscale arrays.
func (a *Array) At(y, x, c int) float64 {
	if len(a.shape) == 2 {
		return a.src.at(y*a.shape[1] + x)
	}
	return a.src.at((y*a.shape[1]+x)*a.shape[2] + c)
}

func (a *Array) validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrInvalidShape)
	}
	if err := checkShape(a.shape); err != nil {
		return err
	}
	if a.src == nil || (a.kind != ByteIntensity && a.kind != FractionalIntensity) {
		return fmt.Errorf("%w: %s", ErrInvalidDtype, a.kind)
	}
	return nil
}

// values copies the elements out as float64, NaN included.
func (a *Array) values() []float64 {
	vals := make([]float64, a.Len())
	for i := range vals {
		vals[i] = a.src.at(i)
	}
	return vals
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Package imagelayer turns gray and RGB pixel arrays into declarative
// "image" plot layers: a PNG data URI plus the rectangle it covers.
package imagelayer

import (
	"bytes"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/setanarut/imagelayer/colormap"
	"github.com/setanarut/imagelayer/internal/pngenc"
	"github.com/setanarut/imagelayer/internal/zlib"
)

type Options struct {
	// Placement in plot coordinates.
	// nil => DefaultExtent of the array, one unit per pixel centred on its index.
	// Reversed left/right or bottom/top mirrors the raster on that axis.
	Extent *Extent
	// Stretch grayscale luminance linearly onto 0-255.
	// Off => byte data is used as is and fractional data is scaled by 255.
	// RGB data is never stretched.
	Norm bool
	// Luminance range for Norm. nil => data min/max, NaN ignored.
	// Values outside the range saturate.
	VMin, VMax *float64
	// Colorizes grayscale data. RGB data ignores it.
	Cmap *colormap.Colormap
	// Constant opacity in [0,1]. nil => no alpha channel in the PNG.
	Alpha *float64
	// zlib level 0-9, or -1 for the default (6).
	// Changing it changes the href bytes, never the decoded pixels.
	Compression int
}

func DefaultOptions() Options {
	return Options{
		Norm:        true,
		Compression: zlib.DefaultCompression,
	}
}

// Build encodes a into an image layer placed at extent, or at the default
// extent when extent is nil.
func Build(a *Array, extent *Extent) (Spec, error) {
	opt := DefaultOptions()
	opt.Extent = extent
	return BuildOptions(a, opt)
}

// BuildOptions is Build with every encoding control exposed. a is only
// read; the returned Spec holds no reference to it.
func BuildOptions(a *Array, opt Options) (Spec, error) {
	if err := a.validate(); err != nil {
		return Spec{}, err
	}
	ext := DefaultExtent(a.Width(), a.Height())
	if opt.Extent != nil {
		ext = *opt.Extent
	}
	if err := ext.check(); err != nil {
		return Spec{}, err
	}
	if err := opt.check(); err != nil {
		return Spec{}, err
	}

	img := newRaster(a, opt)
	flipX, flipY := ext.Flips()
	flipRaster(&img, flipX, flipY)

	var buf bytes.Buffer
	enc := pngenc.Encoder{CompressionLevel: opt.Compression}
	if err := enc.Encode(&buf, &img); err != nil {
		return Spec{}, fmt.Errorf("imagelayer: encode %dx%d %s: %w", img.Width, img.Height, img.Color, err)
	}

	xmin, xmax, ymin, ymax := ext.Bounds()
	return Spec{
		Geom:     GeomImage,
		Href:     encodeHref(buf.Bytes()),
		XMin:     xmin,
		XMax:     xmax,
		YMin:     ymin,
		YMax:     ymax,
		Mapping:  map[string]any{},
		DataMeta: map[string]any{},
	}, nil
}

func (opt Options) check() error {
	if opt.Compression < zlib.DefaultCompression || opt.Compression > zlib.BestCompression {
		return fmt.Errorf("%w: compression level %d", ErrInvalidOption, opt.Compression)
	}
	if opt.Alpha != nil && !(*opt.Alpha >= 0 && *opt.Alpha <= 1) {
		return fmt.Errorf("%w: alpha %v outside [0,1]", ErrInvalidOption, *opt.Alpha)
	}
	if opt.VMin != nil && !isFinite(*opt.VMin) {
		return fmt.Errorf("%w: vmin %v", ErrInvalidOption, *opt.VMin)
	}
	if opt.VMax != nil && !isFinite(*opt.VMax) {
		return fmt.Errorf("%w: vmax %v", ErrInvalidOption, *opt.VMax)
	}
	if opt.VMin != nil && opt.VMax != nil && *opt.VMin > *opt.VMax {
		return fmt.Errorf("%w: vmin %v greater than vmax %v", ErrInvalidOption, *opt.VMin, *opt.VMax)
	}
	return nil
}

// newRaster copies a into 8-bit samples, colorized and with alpha as
// requested.
func newRaster(a *Array, opt Options) pngenc.Image {
	img := pngenc.Image{Width: a.Width(), Height: a.Height(), Color: pngenc.RGB}
	gray := a.Rank() == 2
	if gray {
		img.Color = pngenc.Gray
	}

	vals := a.values()
	pix := make([]byte, len(vals))
	switch {
	case gray && opt.Norm:
		lo, hi := luminanceRange(vals, opt.VMin, opt.VMax)
		for i, v := range vals {
			if math.IsNaN(v) || hi <= lo {
				continue
			}
			pix[i] = toByte((min(max(v, lo), hi) - lo) / (hi - lo) * 255)
		}
	case a.Kind() == FractionalIntensity:
		for i, v := range vals {
			pix[i] = toByte(v * 255)
		}
	default:
		for i, v := range vals {
			pix[i] = toByte(v)
		}
	}

	if gray && opt.Cmap != nil {
		lut := opt.Cmap.LUT()
		rgb := make([]byte, 0, len(pix)*3)
		for _, p := range pix {
			rgb = append(rgb, lut[p][:]...)
		}
		pix, img.Color = rgb, pngenc.RGB
	}

	if opt.Alpha != nil {
		alpha := toByte(*opt.Alpha * 255)
		n := img.Color.Channels()
		withAlpha := make([]byte, 0, len(pix)/n*(n+1))
		for i := 0; i < len(pix); i += n {
			withAlpha = append(withAlpha, pix[i:i+n]...)
			withAlpha = append(withAlpha, alpha)
		}
		pix = withAlpha
		if img.Color == pngenc.Gray {
			img.Color = pngenc.GrayAlpha
		} else {
			img.Color = pngenc.RGBA
		}
	}

	img.Pix = pix
	return img
}

// luminanceRange resolves the Norm range. Infinite and NaN samples do not
// widen it.
func luminanceRange(vals []float64, vmin, vmax *float64) (lo, hi float64) {
	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) > 0 {
		lo, hi = floats.Min(finite), floats.Max(finite)
	}
	if vmin != nil {
		lo = *vmin
	}
	if vmax != nil {
		hi = *vmax
	}
	return lo, hi
}

// toByte rounds half to even and saturates. NaN maps to 0.
func toByte(v float64) byte {
	if math.IsNaN(v) {
		return 0
	}
	return byte(min(max(math.RoundToEven(v), 0), 255))
}

// flipRaster mirrors img in place: columns when x is set, rows when y is.
func flipRaster(img *pngenc.Image, x, y bool) {
	n := img.Color.Channels()
	stride := img.Width * n
	if x {
		for row := 0; row < len(img.Pix); row += stride {
			line := img.Pix[row : row+stride]
			for l, r := 0, img.Width-1; l < r; l, r = l+1, r-1 {
				for c := range n {
					line[l*n+c], line[r*n+c] = line[r*n+c], line[l*n+c]
				}
			}
		}
	}
	if y {
		tmp := make([]byte, stride)
		for t, b := 0, img.Height-1; t < b; t, b = t+1, b-1 {
			top := img.Pix[t*stride : (t+1)*stride]
			bottom := img.Pix[b*stride : (b+1)*stride]
			copy(tmp, top)
			copy(top, bottom)
			copy(bottom, tmp)
		}
	}
}

package utils

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/setanarut/imagelayer"
	"github.com/setanarut/imagelayer/colormap"
)

// ReadImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ReadArray loads pixel data from a .json nested list or from any image
// format ReadImage understands.
func ReadArray(path string) (*imagelayer.Array, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		img, err := ReadImage(path)
		if err != nil {
			return nil, err
		}
		return imagelayer.FromImage(img)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeArray(file)
}

// DecodeArray reads one JSON nested list. Integer literals give a byte
// array, any literal with a fraction or exponent gives a fractional one.
func DecodeArray(r io.Reader) (*imagelayer.Array, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return imagelayer.FromNested(v)
}

// WriteSpec writes spec as indented JSON.
func WriteSpec(w io.Writer, spec imagelayer.Spec) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}

// ReadSpec reads a layer spec written by WriteSpec.
func ReadSpec(r io.Reader) (imagelayer.Spec, error) {
	var spec imagelayer.Spec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return imagelayer.Spec{}, fmt.Errorf("decode spec: %w", err)
	}
	if spec.Geom != imagelayer.GeomImage {
		return imagelayer.Spec{}, fmt.Errorf("decode spec: geom %q is not %q", spec.Geom, imagelayer.GeomImage)
	}
	return spec, nil
}

// SavePNG writes the PNG embedded in spec, byte for byte.
func SavePNG(spec imagelayer.Spec, filename string) error {
	b, err := spec.PNG()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Swatch renders cmap as a horizontal gradient, one column per LUT level,
// with the stops as tiles underneath.
func Swatch(cmap *colormap.Colormap, tileSize int) image.Image {
	if tileSize <= 0 {
		tileSize = 64
	}
	stops := cmap.Stops()
	lut := cmap.LUT()

	w := max(len(lut), tileSize*len(stops))
	h := tileSize * 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		c := lut[x*len(lut)/w]
		for y := range tileSize {
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: 255})
		}
	}
	tile := w / len(stops)
	for i, s := range stops {
		r, g, b := s.Clamped().RGB255()
		for y := tileSize; y < h; y++ {
			for x := i * tile; x < (i+1)*tile; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return img
}

func SavePalette(cmap *colormap.Colormap, tileSize int, filename string) error {
	return SaveImage(Swatch(cmap, tileSize), filename)
}

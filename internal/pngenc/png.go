// Package pngenc writes 8-bit PNG images with a fixed, reproducible chunk
// layout: IHDR, a single IDAT with unfiltered scanlines, IEND.
package pngenc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/setanarut/imagelayer/internal/zlib"
)

// ColorType is the PNG color type of an 8-bit image.
type ColorType uint8

const (
	Gray      ColorType = 0
	RGB       ColorType = 2
	GrayAlpha ColorType = 4
	RGBA      ColorType = 6
)

// Channels returns the number of samples per pixel.
func (ct ColorType) Channels() int {
	switch ct {
	case Gray:
		return 1
	case GrayAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

func (ct ColorType) String() string {
	switch ct {
	case Gray:
		return "gray"
	case GrayAlpha:
		return "gray+alpha"
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	}
	return fmt.Sprintf("ColorType(%d)", uint8(ct))
}

// Image is a row-major raster with interleaved 8-bit samples and no row
// padding.
type Image struct {
	Width, Height int
	Color         ColorType
	Pix           []byte
}

var ErrFormat = errors.New("pngenc: invalid image")

var signature = []byte("\x89PNG\r\n\x1a\n")

// Encoder configures PNG encoding.
type Encoder struct {
	// CompressionLevel is a zlib level, 0-9, or zlib.DefaultCompression.
	CompressionLevel int
}

// Encode writes img to w with the default compression level.
func Encode(w io.Writer, img *Image) error {
	enc := Encoder{CompressionLevel: zlib.DefaultCompression}
	return enc.Encode(w, img)
}

func (e *Encoder) Encode(w io.Writer, img *Image) error {
	if err := img.check(); err != nil {
		return err
	}

	var idat bytes.Buffer
	zw, err := zlib.NewWriterLevel(&idat, e.CompressionLevel)
	if err != nil {
		return err
	}
	stride := img.Width * img.Color.Channels()
	for y := range img.Height {
		zw.Write([]byte{0}) // filter type None
		zw.Write(img.Pix[y*stride : (y+1)*stride])
	}
	if err := zw.Close(); err != nil {
		return err
	}

	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(img.Width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(img.Height))
	ihdr[8] = 8
	ihdr[9] = byte(img.Color)

	var buf bytes.Buffer
	buf.Write(signature)
	writeChunk(&buf, "IHDR", ihdr[:])
	writeChunk(&buf, "IDAT", idat.Bytes())
	writeChunk(&buf, "IEND", nil)
	_, err = w.Write(buf.Bytes())
	return err
}

func (img *Image) check() error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrFormat)
	}
	if img.Color.Channels() == 0 {
		return fmt.Errorf("%w: unsupported color type %d", ErrFormat, uint8(img.Color))
	}
	if img.Width <= 0 || img.Height <= 0 || img.Width > math.MaxInt32 || img.Height > math.MaxInt32 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrFormat, img.Width, img.Height)
	}
	if want := img.Width * img.Height * img.Color.Channels(); len(img.Pix) != want {
		return fmt.Errorf("%w: %d samples for %dx%d %s, want %d", ErrFormat, len(img.Pix), img.Width, img.Height, img.Color, want)
	}
	return nil
}

func writeChunk(buf *bytes.Buffer, name string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	buf.Write(n[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(name))
	crc.Write(data)
	buf.WriteString(name)
	buf.Write(data)
	binary.BigEndian.PutUint32(n[:], crc.Sum32())
	buf.Write(n[:])
}

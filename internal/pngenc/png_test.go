package pngenc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/setanarut/imagelayer/internal/zlib"
)

func TestEncodeReference(t *testing.T) {
	cases := []struct {
		name string
		img  Image
		want string
	}{
		{
			name: "gray 3x2",
			img:  Image{Width: 3, Height: 2, Color: Gray, Pix: []byte{255, 204, 153, 102, 51, 0}},
			want: "iVBORw0KGgoAAAANSUhEUgAAAAMAAAACCAAAAAC4HznGAAAAEElEQVR4nGP4f2YmQ5oxAwAQXgL+el5zTgAAAABJRU5ErkJggg==",
		},
		{
			name: "rgb 2x2",
			img:  Image{Width: 2, Height: 2, Color: RGB, Pix: []byte{150, 150, 0, 0, 0, 150, 0, 150, 0, 150, 0, 0}},
			want: "iVBORw0KGgoAAAANSUhEUgAAAAIAAAACCAIAAAD91JpzAAAAEklEQVR4nGOYNo2BgWEaCAEJABgUAu/euM7fAAAAAElFTkSuQmCC",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, &tc.img))
			require.Equal(t, tc.want, base64.StdEncoding.EncodeToString(buf.Bytes()))
		})
	}
}

func TestEncodeDecodes(t *testing.T) {
	const w, h = 17, 9
	for _, ct := range []ColorType{Gray, GrayAlpha, RGB, RGBA} {
		t.Run(ct.String(), func(t *testing.T) {
			n := ct.Channels()
			pix := make([]byte, w*h*n)
			for i := range pix {
				pix[i] = byte(i * 31)
			}
			for level := -1; level <= 9; level++ {
				var buf bytes.Buffer
				enc := Encoder{CompressionLevel: level}
				require.NoError(t, enc.Encode(&buf, &Image{Width: w, Height: h, Color: ct, Pix: pix}))

				img, err := png.Decode(&buf)
				require.NoError(t, err)
				require.Equal(t, image.Rect(0, 0, w, h), img.Bounds())
				for y := range h {
					for x := range w {
						off := (y*w + x) * n
						require.Equal(t, sample(ct, pix[off:off+n]), color.NRGBAModel.Convert(img.At(x, y)), "pixel %d,%d level %d", x, y, level)
					}
				}
			}
		})
	}
}

func sample(ct ColorType, s []byte) color.NRGBA {
	switch ct {
	case Gray:
		return color.NRGBA{s[0], s[0], s[0], 255}
	case GrayAlpha:
		return color.NRGBA{s[0], s[0], s[0], s[1]}
	case RGB:
		return color.NRGBA{s[0], s[1], s[2], 255}
	default:
		return color.NRGBA{s[0], s[1], s[2], s[3]}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	img := &Image{Width: 4, Height: 4, Color: RGB, Pix: bytes.Repeat([]byte{1, 2, 3}, 16)}
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, img))
	require.NoError(t, Encode(&b, img))
	require.Equal(t, a.Bytes(), b.Bytes())
}

func TestEncodeInvalid(t *testing.T) {
	cases := []*Image{
		nil,
		{Width: 0, Height: 1, Color: Gray},
		{Width: 1, Height: 1, Color: ColorType(3), Pix: []byte{0}},
		{Width: 2, Height: 2, Color: RGB, Pix: make([]byte, 11)},
	}
	for _, img := range cases {
		err := Encode(&bytes.Buffer{}, img)
		require.True(t, errors.Is(err, ErrFormat), "got %v", err)
	}

	enc := Encoder{CompressionLevel: 12}
	require.ErrorIs(t, enc.Encode(&bytes.Buffer{}, &Image{Width: 1, Height: 1, Color: Gray, Pix: []byte{0}}), zlib.ErrLevel)
}

func TestEncodeMatchesCompress(t *testing.T) {
	img := &Image{Width: 5, Height: 3, Color: GrayAlpha, Pix: bytes.Repeat([]byte{7, 200, 9}, 10)}
	raw := make([]byte, 0, 33)
	for y := range 3 {
		raw = append(raw, 0)
		raw = append(raw, img.Pix[y*10:(y+1)*10]...)
	}
	for _, level := range []int{zlib.DefaultCompression, zlib.NoCompression, zlib.BestSpeed, zlib.BestCompression} {
		want, err := zlib.Compress(raw, level)
		require.NoError(t, err)

		var buf bytes.Buffer
		enc := Encoder{CompressionLevel: level}
		require.NoError(t, enc.Encode(&buf, img))
		// IDAT data follows the signature, the IHDR chunk, and the IDAT length and type.
		const idatOff = 8 + 25 + 8
		require.Equal(t, want, buf.Bytes()[idatOff:idatOff+len(want)], "level %d", level)
	}
}

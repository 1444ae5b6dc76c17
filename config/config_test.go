package config

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/setanarut/imagelayer"
	"github.com/setanarut/imagelayer/colormap"
	"github.com/setanarut/imagelayer/utils"
)

func ptr[T any](v T) *T { return &v }

func TestParse(t *testing.T) {
	src := `
layer {
  extent      = [width - 0.5, -0.5, height - 0.5, -0.5]
  norm        = false
  vmin        = 0
  vmax        = max(width, height)
  alpha       = 0.25
  compression = 9
  cmap        = "cividis"
}
`
	layer, err := Parse([]byte(src), "layer.hcl", 3, 2)
	require.NoError(t, err)

	want := &Layer{
		Extent:      []float64{2.5, -0.5, 1.5, -0.5},
		Norm:        ptr(false),
		VMin:        ptr(0.0),
		VMax:        ptr(3.0),
		Cmap:        "cividis",
		Alpha:       ptr(0.25),
		Compression: ptr(9),
		dir:         ".",
	}
	if diff := cmp.Diff(want, layer, cmp.AllowUnexported(Layer{})); diff != "" {
		t.Errorf("layer mismatch (-want +got):\n%s", diff)
	}

	opt, err := layer.Options()
	require.NoError(t, err)
	require.Equal(t, &imagelayer.Extent{Left: 2.5, Right: -0.5, Bottom: 1.5, Top: -0.5}, opt.Extent)
	require.False(t, opt.Norm)
	require.Equal(t, 9, opt.Compression)
	require.Equal(t, "cividis", opt.Cmap.Name())
}

func TestParseDefaults(t *testing.T) {
	for _, src := range []string{"", "layer {}"} {
		layer, err := Parse([]byte(src), "empty.hcl", 4, 4)
		require.NoError(t, err)
		opt, err := layer.Options()
		require.NoError(t, err)
		require.Equal(t, imagelayer.DefaultOptions(), opt)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `layer {`},
		{"unknown attribute", `layer { gamma = 2 }`},
		{"unknown variable", `layer { vmax = depth }`},
		{"wrong type", `layer { norm = "yes" }`},
		{"fractional compression", `layer { compression = 4.5 }`},
		{"two layers", "layer {}\nlayer {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl", 1, 1)
			require.Error(t, err)
		})
	}
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"short extent", `layer { extent = [0, 1, 2] }`, imagelayer.ErrInvalidOption},
		{"unknown cmap", `layer { cmap = "jet" }`, colormap.ErrUnknownColormap},
		{"cmap and palette", `layer {
  cmap = "gray"
  palette { image = "x.png" }
}`, imagelayer.ErrInvalidOption},
		{"palette method", `layer {
  palette {
    image  = "x.png"
    method = "median"
  }
}`, errPalette},
		{"palette image", `layer {
  palette { image = "missing.png" }
}`, errPalette},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := Parse([]byte(tt.src), filepath.Join(t.TempDir(), "layer.hcl"), 2, 2)
			require.NoError(t, err)
			_, err = layer.Options()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadPalette(t *testing.T) {
	dir := t.TempDir()
	ref := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			c := color.RGBA{R: 20, G: 20, B: 120, A: 255}
			if x >= 8 {
				c = color.RGBA{R: 250, G: 220, B: 40, A: 255}
			}
			ref.SetRGBA(x, y, c)
		}
	}
	require.NoError(t, utils.SaveImage(ref, filepath.Join(dir, "ref.png")))

	path := filepath.Join(dir, "layer.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
layer {
  palette {
    image  = "ref.png"
    colors = 2
  }
}
`), 0o600))

	layer, err := Load(path, 8, 8)
	require.NoError(t, err)
	opt, err := layer.Options()
	require.NoError(t, err)
	require.NotNil(t, opt.Cmap)
	stops := opt.Cmap.Stops()
	require.Len(t, stops, 2)
	// Darkest first: the blue half, then the yellow half.
	require.Greater(t, stops[0].B, stops[0].R)
	require.Greater(t, stops[1].R, stops[1].B)

	_, err = Load(filepath.Join(dir, "missing.hcl"), 1, 1)
	require.Error(t, err)
}

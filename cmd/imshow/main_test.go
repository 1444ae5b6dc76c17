package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/setanarut/imagelayer"
	"github.com/setanarut/imagelayer/utils"
)

func TestLayerAndDecode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "gray.json")
	require.NoError(t, os.WriteFile(input, []byte(`[[0, 50, 100], [150, 200, 250]]`), 0o600))
	cfg := filepath.Join(dir, "layer.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`layer {
  extent = [width - 1.5, -0.5, height - 0.5, -0.5]
  cmap   = "magma"
}
`), 0o600))
	specPath := filepath.Join(dir, "spec.json")
	pngPath := filepath.Join(dir, "out.png")

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	// The flag drops the config colormap; the config extent is kept.
	rootCmd.SetArgs([]string{"layer", "-i", input, "-c", cfg, "--cmap", "gray", "-o", specPath, "--log-level", "error"})
	require.NoError(t, rootCmd.Execute())

	f, err := os.Open(specPath)
	require.NoError(t, err)
	spec, err := utils.ReadSpec(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	require.Equal(t, []float64{-0.5, 1.5, -0.5, 1.5}, []float64{spec.XMin, spec.XMax, spec.YMin, spec.YMax})

	rootCmd.SetArgs([]string{"decode", "-i", specPath, "-o", pngPath})
	require.NoError(t, rootCmd.Execute())

	img, err := utils.ReadImage(pngPath)
	require.NoError(t, err)
	a, err := imagelayer.FromImage(img)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, 3}, a.Shape())
	// Both axes are flipped, so the brightest sample lands top left.
	require.Equal(t, 255.0, a.At(0, 0, 0))
	require.Equal(t, 0.0, a.At(1, 2, 0))
	require.Empty(t, stderr.String())
}

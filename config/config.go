// Package config reads image layer settings from HCL.
//
// A file holds at most one layer block:
//
//	layer {
//	  extent      = [width - 0.5, -0.5, height - 0.5, -0.5]
//	  norm        = true
//	  vmin        = 0
//	  vmax        = 1
//	  cmap        = "viridis"
//	  alpha       = 0.8
//	  compression = 9
//
//	  palette {
//	    image  = "reference.png"
//	    colors = 5
//	    method = "kmeans"
//	  }
//	}
//
// Expressions see the variables width and height, the dimensions of the
// array being encoded, and the functions min, max, abs, floor and ceil.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/setanarut/imagelayer"
	"github.com/setanarut/imagelayer/colormap"
	"github.com/setanarut/imagelayer/utils"
)

// Layer mirrors imagelayer.Options. Unset attributes keep their defaults.
type Layer struct {
	Extent      []float64 `hcl:"extent,optional"`
	Norm        *bool     `hcl:"norm,optional"`
	VMin        *float64  `hcl:"vmin,optional"`
	VMax        *float64  `hcl:"vmax,optional"`
	Cmap        string    `hcl:"cmap,optional"`
	Alpha       *float64  `hcl:"alpha,optional"`
	Compression *int      `hcl:"compression,optional"`
	Palette     *Palette  `hcl:"palette,block"`

	// dir resolves relative palette image paths.
	dir string
}

// Palette derives the colormap from a reference image.
type Palette struct {
	Image  string `hcl:"image"`
	Colors int    `hcl:"colors,optional"`
	Method string `hcl:"method,optional"`
}

const defaultPaletteColors = 5

type fileRoot struct {
	Layer *Layer `hcl:"layer,block"`
}

// EvalContext returns the expression context for an array of the given
// size.
func EvalContext(width, height int) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"width":  cty.NumberIntVal(int64(width)),
			"height": cty.NumberIntVal(int64(height)),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"floor": stdlib.FloorFunc,
			"ceil":  stdlib.CeilFunc,
		},
	}
}

// Parse decodes src. A source without a layer block yields an empty Layer.
func Parse(src []byte, filename string, width, height int) (*Layer, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, EvalContext(width, height), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	if root.Layer == nil {
		root.Layer = &Layer{}
	}
	root.Layer.dir = filepath.Dir(filename)
	return root.Layer, nil
}

// Load reads and parses the file at path.
func Load(path string, width, height int) (*Layer, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, path, width, height)
}

// Options resolves the layer on top of imagelayer.DefaultOptions.
func (l *Layer) Options() (imagelayer.Options, error) {
	opt := imagelayer.DefaultOptions()
	if l.Extent != nil {
		ext, err := imagelayer.ExtentOf(l.Extent)
		if err != nil {
			return opt, err
		}
		opt.Extent = &ext
	}
	if l.Norm != nil {
		opt.Norm = *l.Norm
	}
	opt.VMin, opt.VMax, opt.Alpha = l.VMin, l.VMax, l.Alpha
	if l.Compression != nil {
		opt.Compression = *l.Compression
	}

	switch {
	case l.Cmap != "" && l.Palette != nil:
		return opt, fmt.Errorf("%w: cmap and palette are mutually exclusive", imagelayer.ErrInvalidOption)
	case l.Cmap != "":
		cmap, err := colormap.Named(l.Cmap)
		if err != nil {
			return opt, err
		}
		opt.Cmap = cmap
	case l.Palette != nil:
		cmap, err := l.Palette.colormap(l.dir)
		if err != nil {
			return opt, err
		}
		opt.Cmap = cmap
	}
	return opt, nil
}

var errPalette = errors.New("config: invalid palette")

func (p *Palette) colormap(dir string) (*colormap.Colormap, error) {
	method, err := colormap.ParsePaletteMethod(p.Method)
	if err != nil {
		return nil, errors.Join(errPalette, err)
	}
	k := p.Colors
	if k == 0 {
		k = defaultPaletteColors
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: colors = %d", errPalette, k)
	}

	path := p.Image
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	img, err := utils.ReadImage(path)
	if err != nil {
		return nil, errors.Join(errPalette, err)
	}
	return colormap.FromImage(img, k, method)
}

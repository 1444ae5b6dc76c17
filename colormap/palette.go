package colormap

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

// ParsePaletteMethod is the inverse of PaletteMethod.String.
func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch s {
	case "dominantcolor", "":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, errors.New("colormap: unknown palette method " + s)
}

var errEmptyPalette = errors.New("colormap: no colors found in image")

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// FromImage builds a gradient from k representative colors of img,
// ordered from darkest to brightest.
func FromImage(img image.Image, k int, method PaletteMethod) (*Colormap, error) {
	if k <= 0 {
		return nil, errors.New("colormap: palette size must be positive")
	}
	var palette []colorful.Color
	switch method {
	case PaletteMethodKMeans:
		palette = kmeansPalette(img, k)
		if len(palette) == 0 {
			slog.Warn("kmeans returned empty palette, falling back to dominantcolor", "k", k)
			palette = dominantPalette(img, k)
		}
	default:
		palette = dominantPalette(img, k)
	}
	if len(palette) == 0 {
		return nil, errEmptyPalette
	}
	SortByBrightness(palette)
	return New("image/"+method.String(), palette...)
}

// SortByBrightness orders colors by relative luminance, darkest first.
func SortByBrightness(palette []colorful.Color) {
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		la, lb := luminance(a), luminance(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

func dominantPalette(img image.Image, k int) []colorful.Color {
	found := dominantcolor.FindWeight(img, max(24, k*8))
	cands := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		cands = append(cands, weightedColor{col: col.Clamped(), weight: c.Weight})
	}
	return selectDiverse(cands, k)
}

func kmeansPalette(img image.Image, k int) []colorful.Color {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	// Subsample so partitioning stays cheap on large images.
	const maxSamples = 12000
	step := 1
	if area := b.Dx() * b.Dy(); area > maxSamples {
		step = int(math.Sqrt(float64(area)/maxSamples)) + 1
	}

	var obs clusters.Observations
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			obs = append(obs, clusters.Coordinates{
				float64(c.R) / 255,
				float64(c.G) / 255,
				float64(c.B) / 255,
			})
		}
	}
	if len(obs) == 0 {
		return nil
	}

	parts, err := kmeans.New().Partition(obs, min(max(k*4, k+2), len(obs)))
	if err != nil {
		return nil
	}
	cands := make([]weightedColor, 0, len(parts))
	for _, p := range parts {
		if len(p.Center) < 3 || len(p.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: p.Center[0], G: p.Center[1], B: p.Center[2]}
		cands = append(cands, weightedColor{col: col.Clamped(), weight: float64(len(p.Observations))})
	}
	return selectDiverse(cands, k)
}

// selectDiverse greedily picks up to k candidates, starting from the
// heaviest and then taking the one farthest in Lab from those already
// picked, scaled by its weight.
func selectDiverse(cands []weightedColor, k int) []colorful.Color {
	if len(cands) == 0 {
		return nil
	}
	k = min(k, len(cands))

	maxW := 0.0
	for i := range cands {
		cands[i].weight = max(cands[i].weight, 1e-6)
		maxW = max(maxW, cands[i].weight)
	}

	seed := 0
	for i, c := range cands {
		if c.weight > cands[seed].weight {
			seed = i
		}
	}
	picked := []int{seed}
	taken := make([]bool, len(cands))
	taken[seed] = true

	for len(picked) < k {
		best, bestScore := -1, -1.0
		for i, c := range cands {
			if taken[i] {
				continue
			}
			nearest := math.Inf(1)
			for _, p := range picked {
				nearest = min(nearest, c.col.DistanceLab(cands[p].col))
			}
			score := nearest * (0.55 + 0.45*math.Sqrt(c.weight/maxW))
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		taken[best] = true
		picked = append(picked, best)
	}

	out := make([]colorful.Color, len(picked))
	for i, p := range picked {
		out[i] = cands[p].col
	}
	return out
}

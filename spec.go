package imagelayer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"strings"
)

// GeomImage is the layer tag of every Spec.
const GeomImage = "image"

const hrefPrefix = "data:image/png;base64,"

// Spec is a declarative raster layer: a PNG data URI and the rectangle it
// covers. Mapping and DataMeta are always empty; they exist so the layer
// has the same shape as every other geom of the plot.
type Spec struct {
	Geom     string         `json:"geom"`
	Href     string         `json:"href"`
	XMin     float64        `json:"xmin"`
	XMax     float64        `json:"xmax"`
	YMin     float64        `json:"ymin"`
	YMax     float64        `json:"ymax"`
	Mapping  map[string]any `json:"mapping"`
	DataMeta map[string]any `json:"data_meta"`
}

// AsMap returns the spec as a plain key/value mapping.
func (s Spec) AsMap() map[string]any {
	return map[string]any{
		"geom":      s.Geom,
		"href":      s.Href,
		"xmin":      s.XMin,
		"xmax":      s.XMax,
		"ymin":      s.YMin,
		"ymax":      s.YMax,
		"mapping":   map[string]any{},
		"data_meta": map[string]any{},
	}
}

// PNG returns the encoded image embedded in Href.
func (s Spec) PNG() ([]byte, error) { return DecodeHref(s.Href) }

// Image decodes the embedded PNG.
func (s Spec) Image() (image.Image, error) {
	b, err := s.PNG()
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}

var errHref = errors.New("imagelayer: href is not a base64 PNG data URI")

// DecodeHref extracts the PNG bytes from a data:image/png;base64 URI.
func DecodeHref(href string) ([]byte, error) {
	payload, ok := strings.CutPrefix(href, hrefPrefix)
	if !ok {
		return nil, errHref
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Join(errHref, err)
	}
	return b, nil
}

func encodeHref(pngBytes []byte) string {
	return hrefPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}

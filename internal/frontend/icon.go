package frontend

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// supersample is the factor the SVG is rasterized at before scaling down to the target size.
const supersample = 4

// renderSVGToPNG rasterizes an SVG into a square PNG of size x size pixels
// on a transparent background.
func renderSVGToPNG(svgData []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size for SVG rendering: %d", size)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	large := size * supersample
	icon.SetTarget(0, 0, float64(large), float64(large))

	canvas := image.NewRGBA(image.Rect(0, 0, large, large))
	scanner := rasterx.NewScannerGV(large, large, canvas, canvas.Bounds())
	dasher := rasterx.NewDasher(large, large, scanner)
	icon.Draw(dasher, 1.0)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), canvas, canvas.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode rendered SVG as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

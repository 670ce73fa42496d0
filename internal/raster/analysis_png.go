package raster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/analysis"
)

// AnalysisPNGOptions carries the fixed Title string and the metadata the
// one-to-many PNG's tEXt chunks must describe (§6 "PNG raster (one-to-many
// output)").
type AnalysisPNGOptions struct {
	Title string
}

// EncodeAnalysisResult renders a Processor.Run result as the 8-bit RGB PNG
// described by §6: R=min minutes, G=avg minutes, B=max minutes, plus
// Title/CRS/bounds/density/access/dual tEXt chunks.
func EncodeAnalysisResult(result *analysis.Result, opts AnalysisPNGOptions) ([]byte, error) {
	if result == nil || result.Pixels == nil {
		return nil, errors.New("raster: nil result or pixel grid")
	}

	img := image.NewNRGBA(image.Rect(0, 0, result.Pixels.Width, result.Pixels.Height))
	for i, d := range result.Pixels.Cells {
		x, y := i%result.Pixels.Width, i/result.Pixels.Width
		img.SetNRGBA(x, y, color.NRGBA{
			R: analysis.Minutes(d.Min),
			G: analysis.Minutes(d.Avg),
			B: analysis.Minutes(d.Max),
			A: 255,
		})
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "raster: encoding analysis PNG")
	}

	fields := []textField{
		{"Title", opts.Title},
		{"CRS", "WGS84"},
		{"minX", fmt.Sprintf("%.6f", result.Bounds.MinLon)},
		{"minY", fmt.Sprintf("%.6f", result.Bounds.MinLat)},
		{"maxX", fmt.Sprintf("%.6f", result.Bounds.MaxLon)},
		{"maxY", fmt.Sprintf("%.6f", result.Bounds.MaxLat)},
	}
	if result.Histogram != nil {
		density, _ := json.Marshal([][][]int32{{result.Histogram.Density[:]}})
		access, _ := json.Marshal([][][]int32{{result.Histogram.Cumulative[:]}})
		dual, _ := json.Marshal([][][]int32{{result.Histogram.Dual}})
		fields = append(fields,
			textField{"density", string(density)},
			textField{"access", string(access)},
			textField{"dual", string(dual)},
		)
	}

	return insertTextChunks(buf.Bytes(), fields)
}

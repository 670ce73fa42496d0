package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// MaxPackedCount is the largest value PackCount can represent, 2^24 - 1.
const MaxPackedCount = 1<<24 - 1

// PackCount clamps count into [0, MaxPackedCount] and splits it into the
// 0x__RRGGBB byte packing §6 specifies for opportunity and batch rasters
// (most significant byte in R).
func PackCount(count float64) (r, g, b uint8) {
	if count < 0 {
		count = 0
	}
	if count > MaxPackedCount {
		count = MaxPackedCount
	}
	v := uint32(math.Round(count))
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// UnpackCount reconstructs count = (R<<16)|(G<<8)|B, the decoder-side
// inverse of PackCount.
func UnpackCount(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// EncodePackedGrid renders a width x height grid of counts (row-major) as
// the 8-bit RGB packed-count PNG shared by the opportunity grid and batch
// per-cutoff outputs (§6).
func EncodePackedGrid(width, height int, values []float64) ([]byte, error) {
	if len(values) != width*height {
		return nil, errors.Errorf("raster: values length %d does not match %dx%d grid", len(values), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, v := range values {
		x, y := i%width, i/width
		r, g, b := PackCount(v)
		img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "raster: encoding packed-count PNG")
	}
	return buf.Bytes(), nil
}

// BatchCutoffFilename builds the "<jobId>_P<percentile>_C<cutoff>.png"
// filename §6 specifies for batch per-(percentile,cutoff) rasters.
func BatchCutoffFilename(jobID string, percentile, cutoff int) string {
	return jobID + "_P" + strconv.Itoa(percentile) + "_C" + strconv.Itoa(cutoff) + ".png"
}

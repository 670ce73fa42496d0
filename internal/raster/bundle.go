package raster

import (
	"archive/zip"
	"bytes"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/grid"
)

// CutoffCombination is one (percentile, cutoff) pair's rendered value grid,
// ready for both PNG and GeoTIFF encoding (§6 "batch per-cutoff output").
type CutoffCombination struct {
	Percentile, Cutoff int
	Values             []float64 // row-major, width*height
}

// WriteBatchOutputs renders every combination's packed-count PNG plus a
// single GeoTIFF-bundle zip (one LZW GeoTIFF per combination, §6
// "<jobId>.geotiffs.zip... bounds taken from the job's origin cell grid").
// Returns the PNG bytes keyed by filename and the zip bytes.
func WriteBatchOutputs(jobID string, width, height int, bounds grid.Bounds, combos []CutoffCombination) (pngs map[string][]byte, zipBundle []byte, err error) {
	pngs = make(map[string][]byte, len(combos))

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	// Every GeoTIFF entry is already LZW-compressed TIFF data, so the zip
	// container itself adds no further compression.

	for _, c := range combos {
		if len(c.Values) != width*height {
			return nil, nil, errors.Errorf("raster: combination P%d C%d values length %d does not match %dx%d grid", c.Percentile, c.Cutoff, len(c.Values), width, height)
		}

		name := BatchCutoffFilename(jobID, c.Percentile, c.Cutoff)
		png, err := EncodePackedGrid(width, height, c.Values)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "raster: encoding %s", name)
		}
		pngs[name] = png

		packed := make([]uint32, len(c.Values))
		for i, v := range c.Values {
			r, g, b := PackCount(v)
			packed[i] = UnpackCount(r, g, b)
		}
		tiff, err := WriteGeoTIFF(width, height, bounds, packed)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "raster: encoding GeoTIFF for %s", name)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: tiffName(jobID, c.Percentile, c.Cutoff), Method: zip.Store})
		if err != nil {
			return nil, nil, errors.Wrap(err, "raster: creating zip entry")
		}
		if _, err := w.Write(tiff); err != nil {
			return nil, nil, errors.Wrap(err, "raster: writing zip entry")
		}
	}

	if err := zw.Close(); err != nil {
		return nil, nil, errors.Wrap(err, "raster: closing zip bundle")
	}
	return pngs, zipBuf.Bytes(), nil
}

func tiffName(jobID string, percentile, cutoff int) string {
	name := BatchCutoffFilename(jobID, percentile, cutoff)
	return name[:len(name)-len(".png")] + ".tiff"
}

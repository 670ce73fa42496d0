package raster

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/cog"
	"github.com/phase-five/access/internal/grid"
)

// geoTIFFEntry is one outgoing IFD directory entry, built up before the
// final offsets (strip data, external arrays) are known.
type geoTIFFEntry struct {
	tag      uint16
	dataType uint16
	count    uint32
	inline   uint32 // valid when the value fits in 4 bytes
	extern   []byte // valid otherwise; offset patched in during assembly
}

// WriteGeoTIFF encodes a single-band uint32 GeoTIFF (pixel = packed opportunity
// or duration count, §6 "one GeoTIFF per combination using LZW compression
// and bounds taken from the job's origin cell grid"). The IFD tag and
// data-type constants are the ones internal/cog's ifd.go defines.
func WriteGeoTIFF(width, height int, bounds grid.Bounds, values []uint32) ([]byte, error) {
	if len(values) != width*height {
		return nil, errors.Errorf("raster: values length %d does not match %dx%d grid", len(values), width, height)
	}

	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	strip := cog.CompressTIFFLZW(raw)

	dlon := bounds.WidthLon() / float64(width)
	dlat := bounds.HeightLat() / float64(height)

	pixelScale := float64sToBytes([]float64{dlon, dlat, 0})
	tiepoint := float64sToBytes([]float64{0, 0, 0, bounds.MinLon, bounds.MaxLat, 0})
	geoKeys := geoKeyDirectoryGeographic4326()

	entries := []geoTIFFEntry{
		{tag: cog.TagImageWidth, dataType: cog.DTLong, count: 1, inline: uint32(width)},
		{tag: cog.TagImageLength, dataType: cog.DTLong, count: 1, inline: uint32(height)},
		{tag: cog.TagBitsPerSample, dataType: cog.DTShort, count: 1, inline: 32},
		{tag: cog.TagCompression, dataType: cog.DTShort, count: 1, inline: 5}, // LZW
		{tag: cog.TagPhotometric, dataType: cog.DTShort, count: 1, inline: 1}, // BlackIsZero
		{tag: cog.TagSamplesPerPixel, dataType: cog.DTShort, count: 1, inline: 1},
		{tag: cog.TagRowsPerStrip, dataType: cog.DTLong, count: 1, inline: uint32(height)},
		{tag: cog.TagStripByteCounts, dataType: cog.DTLong, count: 1, inline: uint32(len(strip))},
		{tag: cog.TagStripOffsets, dataType: cog.DTLong, count: 1}, // patched below
		{tag: cog.TagPlanarConfig, dataType: cog.DTShort, count: 1, inline: 1},
		{tag: cog.TagSampleFormat, dataType: cog.DTShort, count: 1, inline: 1}, // unsigned int
		{tag: cog.TagModelPixelScaleTag, dataType: cog.DTDouble, count: 3, extern: pixelScale},
		{tag: cog.TagModelTiepointTag, dataType: cog.DTDouble, count: 6, extern: tiepoint},
		{tag: cog.TagGeoKeyDirectoryTag, dataType: cog.DTShort, count: uint32(len(geoKeys) / 2), extern: geoKeys},
	}

	return assembleClassicTIFF(strip, entries)
}

// assembleClassicTIFF lays out a classic (32-bit offset) little-endian TIFF:
// header, strip data, external tag value arrays, then the single IFD —
// patching StripOffsets and each extern entry's offset once their final
// position is known.
func assembleClassicTIFF(strip []byte, entries []geoTIFFEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, uint32(8)) // IFD offset, patched below

	stripOffset := uint32(buf.Len())
	buf.Write(strip)

	externOffsets := make([]uint32, len(entries))
	for i, e := range entries {
		if e.extern == nil {
			continue
		}
		if buf.Len()%2 == 1 {
			buf.WriteByte(0) // word-align, matching TIFF's even-offset convention
		}
		externOffsets[i] = uint32(buf.Len())
		buf.Write(e.extern)
	}

	ifdOffset := uint32(buf.Len())
	binary.Write(&buf, binary.LittleEndian, uint16(len(entries)))
	for i, e := range entries {
		binary.Write(&buf, binary.LittleEndian, e.tag)
		binary.Write(&buf, binary.LittleEndian, e.dataType)
		binary.Write(&buf, binary.LittleEndian, e.count)

		switch {
		case e.tag == cog.TagStripOffsets:
			binary.Write(&buf, binary.LittleEndian, stripOffset)
		case e.extern != nil:
			binary.Write(&buf, binary.LittleEndian, externOffsets[i])
		default:
			binary.Write(&buf, binary.LittleEndian, e.inline)
		}
	}
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // next IFD offset: none

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], ifdOffset)
	return out, nil
}

func float64sToBytes(vals []float64) []byte {
	out := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

// geoKeyDirectoryGeographic4326 builds the minimal GeoKeyDirectoryTag body
// declaring a geographic (lat/lon) WGS84 raster: model type, pixel-is-area,
// and the EPSG:4326 geographic CRS key.
func geoKeyDirectoryGeographic4326() []byte {
	keys := []uint16{
		1, 1, 0, 3, // version 1.1.0, 3 keys follow
		1024, 0, 1, 2, // GTModelTypeGeoKey = ModelTypeGeographic
		1025, 0, 1, 1, // GTRasterTypeGeoKey = RasterPixelIsArea
		2048, 0, 1, 4326, // GeographicTypeGeoKey = EPSG:4326 (WGS84)
	}
	out := make([]byte, len(keys)*2)
	for i, k := range keys {
		binary.LittleEndian.PutUint16(out[i*2:], k)
	}
	return out
}

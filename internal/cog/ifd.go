// Package cog holds the TIFF tag/data-type tables and the TIFF-variant
// LZW codec shared by the GeoTIFF writer in internal/raster.
package cog

// TIFF tag IDs.
const (
	tagImageWidth         = 256
	tagImageLength        = 257
	tagBitsPerSample      = 258
	tagCompression        = 259
	tagPhotometric        = 262
	tagStripOffsets       = 273
	tagSamplesPerPixel    = 277
	tagRowsPerStrip       = 278
	tagStripByteCounts    = 279
	tagPlanarConfig       = 284
	tagSampleFormat       = 339
	tagModelTiepointTag   = 33922
	tagModelPixelScaleTag = 33550
	tagGeoKeyDirectoryTag = 34735
	tagGDAL_NODATA        = 42113
)

// Exported tag aliases, for writers building a minimal IFD from this same
// tag table (see internal/raster's GeoTIFF encoder).
const (
	TagImageWidth         = tagImageWidth
	TagImageLength        = tagImageLength
	TagBitsPerSample      = tagBitsPerSample
	TagCompression        = tagCompression
	TagPhotometric        = tagPhotometric
	TagSamplesPerPixel    = tagSamplesPerPixel
	TagRowsPerStrip       = tagRowsPerStrip
	TagStripOffsets       = tagStripOffsets
	TagStripByteCounts    = tagStripByteCounts
	TagPlanarConfig       = tagPlanarConfig
	TagSampleFormat       = tagSampleFormat
	TagModelTiepointTag   = tagModelTiepointTag
	TagModelPixelScaleTag = tagModelPixelScaleTag
	TagGeoKeyDirectoryTag = tagGeoKeyDirectoryTag
	TagGDALNoData         = tagGDAL_NODATA
)

// TIFF data types.
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
	dtDouble   = 12
)

// Exported data-type aliases for the GeoTIFF writer.
const (
	DTByte     = dtByte
	DTASCII    = dtASCII
	DTShort    = dtShort
	DTLong     = dtLong
	DTRational = dtRational
	DTDouble   = dtDouble
)

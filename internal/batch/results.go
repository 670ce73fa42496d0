package batch

// ResultsBuffer stores per-origin access/dual arrays filled in by task
// results (§3 "Batch results buffer", §4.J).
type ResultsBuffer struct {
	nOrigins, nPercentiles, nBins, nDualN int

	// Access[i][ip][ic] and Dual[i][ip][in]; nil entries mean "no result
	// yet / origin skipped", read back as all-zero.
	Access [][][]int32
	Dual   [][][]int32
}

// NewResultsBuffer allocates an empty (all-nil) results buffer.
func NewResultsBuffer(nOrigins, nPercentiles, nBins, nDualN int) *ResultsBuffer {
	return &ResultsBuffer{
		nOrigins: nOrigins, nPercentiles: nPercentiles, nBins: nBins, nDualN: nDualN,
		Access: make([][][]int32, nOrigins),
		Dual:   make([][][]int32, nOrigins),
	}
}

// Set stores the access/dual arrays for origin i, shaped [nPercentiles][nBins]
// and [nPercentiles][nDualN] respectively.
func (r *ResultsBuffer) Set(i int, access, dual [][]int32) {
	r.Access[i] = access
	r.Dual[i] = dual
}

// ExtractAccess returns a y-flipped width×height image of
// access[origin_at(x,y)][ip][ic]: image row 0 is the grid's northernmost
// origin row, so image y grows south (§4.J invariant). Missing origins
// read as 0.
func (r *ResultsBuffer) ExtractAccess(width, height, ip, ic int) [][]int32 {
	img := make([][]int32, height)
	for row := 0; row < height; row++ {
		img[row] = make([]int32, width)
		// Invariant: image y grows south, so image row 0 corresponds to
		// the grid's northernmost (largest-y) origin row.
		originY := height - 1 - row
		for x := 0; x < width; x++ {
			i := originY*width + x
			if i < 0 || i >= len(r.Access) || r.Access[i] == nil {
				continue
			}
			if ip < len(r.Access[i]) && ic < len(r.Access[i][ip]) {
				img[row][x] = r.Access[i][ip][ic]
			}
		}
	}
	return img
}

// ExtractDual is ExtractAccess's dual-array counterpart.
func (r *ResultsBuffer) ExtractDual(width, height, ip, in int) [][]int32 {
	img := make([][]int32, height)
	for row := 0; row < height; row++ {
		img[row] = make([]int32, width)
		originY := height - 1 - row
		for x := 0; x < width; x++ {
			i := originY*width + x
			if i < 0 || i >= len(r.Dual) || r.Dual[i] == nil {
				continue
			}
			if ip < len(r.Dual[i]) && in < len(r.Dual[i][ip]) {
				img[row][x] = r.Dual[i][ip][in]
			}
		}
	}
	return img
}

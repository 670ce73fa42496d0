package persist

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/phase-five/access/internal/opportunity"
)

// OpportunityTileCodec encodes/decodes an opportunity.Tile: span, then
// span*span little-endian float32 counts.
type OpportunityTileCodec struct {
	Span int
}

func (c OpportunityTileCodec) Encode(v *opportunity.Tile) ([]byte, error) {
	n := v.Span * v.Span
	buf := make([]byte, 4+n*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(v.Span))
	off := 4
	for _, f := range v.Counts {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
		off += 4
	}
	return buf, nil
}

func (c OpportunityTileCodec) Decode(data []byte) (*opportunity.Tile, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("persist: short opportunity tile (%d bytes)", len(data))
	}
	span := int(binary.LittleEndian.Uint32(data[0:4]))
	n := span * span
	want := 4 + n*4
	if len(data) != want {
		return nil, fmt.Errorf("persist: opportunity tile length mismatch: got %d want %d", len(data), want)
	}

	tile := opportunity.NewTile(span)
	off := 4
	for i := 0; i < n; i++ {
		tile.Counts[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
	}
	return tile, nil
}

package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/phase-five/access/internal/egress"
)

// TimeTileCodec encodes/decodes an egress.TimeTile: span, stop count, the
// stop-id list, then a dense stopCount*span*span int32 matrix — the
// "length-prefixed arrays" layout §9 calls for.
type TimeTileCodec struct {
	Span int
}

func (c TimeTileCodec) Encode(v *egress.TimeTile) ([]byte, error) {
	cellsPerStop := v.Span * v.Span
	nStops := len(v.StopIDs)
	buf := make([]byte, 4+4+nStops*8+nStops*cellsPerStop*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(v.Span))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(nStops))

	off := 8
	for _, id := range v.StopIDs {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(id))
		off += 8
	}
	for _, row := range v.DistSec {
		for _, sec := range row {
			binary.LittleEndian.PutUint32(buf[off:off+4], uint32(sec))
			off += 4
		}
	}
	return buf, nil
}

func (c TimeTileCodec) Decode(data []byte) (*egress.TimeTile, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("persist: short egress tile (%d bytes)", len(data))
	}
	span := int(binary.LittleEndian.Uint32(data[0:4]))
	nStops := int(binary.LittleEndian.Uint32(data[4:8]))
	cellsPerStop := span * span
	want := 8 + nStops*8 + nStops*cellsPerStop*4
	if len(data) != want {
		return nil, fmt.Errorf("persist: egress tile length mismatch: got %d want %d", len(data), want)
	}

	tile := egress.NewTimeTile(span)
	off := 8
	stopIDs := make([]int64, nStops)
	for i := range stopIDs {
		stopIDs[i] = int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
	}

	for s := 0; s < nStops; s++ {
		row := make([]int32, cellsPerStop)
		for i := range row {
			row[i] = int32(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		tile.AppendStop(stopIDs[s], row)
	}
	return tile, nil
}

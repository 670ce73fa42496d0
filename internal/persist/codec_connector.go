package persist

import (
	"encoding/binary"
	"fmt"

	"github.com/phase-five/access/internal/street"
)

// ConnectorTileCodec encodes/decodes a street.ConnectorTile to/from the
// explicit fixed-layout byte form required by §9: span*span per-cell
// records, each interleaving the A and B presence flags, vertex ids and
// distances, fixed-endian integers, no reflection.
type ConnectorTileCodec struct {
	Span int
}

// Encode lays out: span int32, then per-cell [hasA byte, vertexA int64,
// distAMm int32, hasB byte, vertexB int64, distBMm int32].
func (c ConnectorTileCodec) Encode(v *street.ConnectorTile) ([]byte, error) {
	n := v.Span * v.Span
	buf := make([]byte, 4+n*(1+8+4+1+8+4))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(v.Span))

	off := 4
	for i := 0; i < n; i++ {
		buf[off] = boolByte(v.HasA[i])
		binary.LittleEndian.PutUint64(buf[off+1:off+9], uint64(v.VertexA[i]))
		binary.LittleEndian.PutUint32(buf[off+9:off+13], uint32(v.DistAMm[i]))
		buf[off+13] = boolByte(v.HasB[i])
		binary.LittleEndian.PutUint64(buf[off+14:off+22], uint64(v.VertexB[i]))
		binary.LittleEndian.PutUint32(buf[off+22:off+26], uint32(v.DistBMm[i]))
		off += 26
	}
	return buf, nil
}

func (c ConnectorTileCodec) Decode(data []byte) (*street.ConnectorTile, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("persist: short connector tile (%d bytes)", len(data))
	}
	span := int(binary.LittleEndian.Uint32(data[0:4]))
	n := span * span
	want := 4 + n*26
	if len(data) != want {
		return nil, fmt.Errorf("persist: connector tile length mismatch: got %d want %d", len(data), want)
	}

	tile := street.NewConnectorTile(span)
	off := 4
	for i := 0; i < n; i++ {
		tile.HasA[i] = data[off] != 0
		tile.VertexA[i] = int64(binary.LittleEndian.Uint64(data[off+1 : off+9]))
		tile.DistAMm[i] = int32(binary.LittleEndian.Uint32(data[off+9 : off+13]))
		tile.HasB[i] = data[off+13] != 0
		tile.VertexB[i] = int64(binary.LittleEndian.Uint64(data[off+14 : off+22]))
		tile.DistBMm[i] = int32(binary.LittleEndian.Uint32(data[off+22 : off+26]))
		off += 26
	}
	return tile, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

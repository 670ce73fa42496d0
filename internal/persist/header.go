// Package persist implements the binary persistence format for built
// egress tables and opportunity grids (§6 "Binary persistence for built
// tables and grids", §9 "explicit byte layout per record... version byte
// at file head"). A fixed-layout header carries the tile-grid geometry
// (explicit encoding/binary, bit-exact by construction); the tile
// payloads that follow are wrapped in a self-describing cbor envelope for
// type discrimination and polymorphic sparse-tile collections, grounded
// on the teacher's PMTiles header: a 127-byte fixed-field header with a
// magic number and version byte (internal/pmtiles/header.go).
package persist

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Magic identifies an access persistence file; Version is the
// backward-compatible format version byte (§9).
const Magic = "ACCESSE"
const Version = 1

// HeaderSize is the fixed header length in bytes.
const HeaderSize = 7 + 1 + 1 + 4 + 4 + 4*8 // magic+version+span+tw+th+bounds(4 float64)

// Header carries the tile-grid geometry needed to reconstruct a
// SparseTable or opportunity Grid without consulting the cbor body.
type Header struct {
	Version uint8
	Span    uint8
	TW, TH  uint32
	MinLon, MinLat, MaxLon, MaxLat float64
}

// Serialize writes the fixed HeaderSize-byte header.
func (h Header) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:7], Magic)
	buf[7] = h.Version
	buf[8] = h.Span
	binary.LittleEndian.PutUint32(buf[9:13], h.TW)
	binary.LittleEndian.PutUint32(buf[13:17], h.TH)
	binary.LittleEndian.PutUint64(buf[17:25], math.Float64bits(h.MinLon))
	binary.LittleEndian.PutUint64(buf[25:33], math.Float64bits(h.MinLat))
	binary.LittleEndian.PutUint64(buf[33:41], math.Float64bits(h.MaxLon))
	binary.LittleEndian.PutUint64(buf[41:49], math.Float64bits(h.MaxLat))
	return buf
}

// ParseHeader reads and validates a fixed header from buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("persist: short header (%d bytes)", len(buf))
	}
	if string(buf[0:7]) != Magic {
		return Header{}, fmt.Errorf("persist: bad magic %q", buf[0:7])
	}
	h := Header{
		Version: buf[7],
		Span:    buf[8],
		TW:      binary.LittleEndian.Uint32(buf[9:13]),
		TH:      binary.LittleEndian.Uint32(buf[13:17]),
		MinLon:  math.Float64frombits(binary.LittleEndian.Uint64(buf[17:25])),
		MinLat:  math.Float64frombits(binary.LittleEndian.Uint64(buf[25:33])),
		MaxLon:  math.Float64frombits(binary.LittleEndian.Uint64(buf[33:41])),
		MaxLat:  math.Float64frombits(binary.LittleEndian.Uint64(buf[41:49])),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("persist: unsupported version %d (want %d)", h.Version, Version)
	}
	return h, nil
}

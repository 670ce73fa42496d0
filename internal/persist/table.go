package persist

import (
	"bytes"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/egress"
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/sparsetile"
	"github.com/phase-five/access/internal/street"
)

// SaveEgressTable writes table to w: a fixed geometry header followed by
// a zstd-compressed cbor envelope of its sparse tile collections (§6, §9).
func SaveEgressTable(w io.Writer, table *egress.SparseTable) error {
	h := Header{
		Version: Version,
		Span:    uint8(table.Grid.Span),
		TW:      uint32(table.Grid.TW),
		TH:      uint32(table.Grid.TH),
		MinLon:  table.Grid.Cells.Bounds.MinLon,
		MinLat:  table.Grid.Cells.Bounds.MinLat,
		MaxLon:  table.Grid.Cells.Bounds.MaxLon,
		MaxLat:  table.Grid.Cells.Bounds.MaxLat,
	}
	if _, err := w.Write(h.Serialize()); err != nil {
		return errors.Wrap(err, "persist: writing header")
	}

	connCodec := ConnectorTileCodec{Span: table.Grid.Span}
	egressCodec := TimeTileCodec{Span: table.Grid.Span}

	env := Envelope{}
	var encErr error
	if table.Connectors != nil {
		table.Connectors.ForEach(func(flat int, v *street.ConnectorTile) {
			if encErr != nil {
				return
			}
			data, err := connCodec.Encode(v)
			if err != nil {
				encErr = err
				return
			}
			env.Connectors = append(env.Connectors, TileRecord{Index: int32(flat), Data: data})
		})
	}
	if encErr != nil {
		return errors.Wrap(encErr, "persist: encoding connector tiles")
	}
	if table.Egress != nil {
		table.Egress.ForEach(func(flat int, v *egress.TimeTile) {
			if encErr != nil {
				return
			}
			data, err := egressCodec.Encode(v)
			if err != nil {
				encErr = err
				return
			}
			env.Egress = append(env.Egress, TileRecord{Index: int32(flat), Data: data})
		})
	}
	if encErr != nil {
		return errors.Wrap(encErr, "persist: encoding egress tiles")
	}

	return writeCompressedCBOR(w, env)
}

// LoadEgressTable reconstructs a SparseTable from r.
func LoadEgressTable(r io.Reader) (*egress.SparseTable, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, errors.Wrap(err, "persist: reading header")
	}
	h, err := ParseHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := readCompressedCBOR(r, &env); err != nil {
		return nil, errors.Wrap(err, "persist: reading envelope")
	}

	bounds := grid.Bounds{MinLon: h.MinLon, MinLat: h.MinLat, MaxLon: h.MaxLon, MaxLat: h.MaxLat}
	tg := grid.NewTileGrid(bounds, int(h.TW), int(h.TH), int(h.Span))

	connCodec := ConnectorTileCodec{Span: int(h.Span)}
	egressCodec := TimeTileCodec{Span: int(h.Span)}

	connectors := sparsetile.NewArray[street.ConnectorTile](tg.NumTiles())
	for _, rec := range env.Connectors {
		tile, err := connCodec.Decode(rec.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: decoding connector tile %d", rec.Index)
		}
		connectors.Set(int(rec.Index), tile)
	}

	egressTiles := sparsetile.NewArray[egress.TimeTile](tg.NumTiles())
	for _, rec := range env.Egress {
		tile, err := egressCodec.Decode(rec.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: decoding egress tile %d", rec.Index)
		}
		egressTiles.Set(int(rec.Index), tile)
	}

	return &egress.SparseTable{Grid: tg, Egress: egressTiles, Connectors: connectors}, nil
}

func writeCompressedCBOR(w io.Writer, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "persist: cbor marshal")
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "persist: zstd writer")
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return errors.Wrap(err, "persist: zstd write")
	}
	return zw.Close()
}

func readCompressedCBOR(r io.Reader, v any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "persist: zstd reader")
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return errors.Wrap(err, "persist: zstd read")
	}
	return cbor.Unmarshal(buf.Bytes(), v)
}

package persist

import (
	"io"

	"github.com/pkg/errors"

	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/opportunity"
	"github.com/phase-five/access/internal/sparsetile"
)

// SaveOpportunityGrid writes g to w in the same header+envelope shape as
// SaveEgressTable.
func SaveOpportunityGrid(w io.Writer, g *opportunity.Grid) error {
	h := Header{
		Version: Version,
		Span:    uint8(g.Cells.Span),
		TW:      uint32(g.Cells.TW),
		TH:      uint32(g.Cells.TH),
		MinLon:  g.Cells.Cells.Bounds.MinLon,
		MinLat:  g.Cells.Cells.Bounds.MinLat,
		MaxLon:  g.Cells.Cells.Bounds.MaxLon,
		MaxLat:  g.Cells.Cells.Bounds.MaxLat,
	}
	if _, err := w.Write(h.Serialize()); err != nil {
		return errors.Wrap(err, "persist: writing header")
	}

	codec := OpportunityTileCodec{Span: g.Cells.Span}
	env := OpportunityEnvelope{}
	var encErr error
	g.Tiles.ForEach(func(flat int, v *opportunity.Tile) {
		if encErr != nil {
			return
		}
		data, err := codec.Encode(v)
		if err != nil {
			encErr = err
			return
		}
		env.Tiles = append(env.Tiles, TileRecord{Index: int32(flat), Data: data})
	})
	if encErr != nil {
		return errors.Wrap(encErr, "persist: encoding opportunity tiles")
	}

	return writeCompressedCBOR(w, env)
}

// LoadOpportunityGrid reconstructs an opportunity.Grid from r.
func LoadOpportunityGrid(r io.Reader) (*opportunity.Grid, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, errors.Wrap(err, "persist: reading header")
	}
	h, err := ParseHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	var env OpportunityEnvelope
	if err := readCompressedCBOR(r, &env); err != nil {
		return nil, errors.Wrap(err, "persist: reading envelope")
	}

	bounds := grid.Bounds{MinLon: h.MinLon, MinLat: h.MinLat, MaxLon: h.MaxLon, MaxLat: h.MaxLat}
	tg := grid.NewTileGrid(bounds, int(h.TW), int(h.TH), int(h.Span))
	g := &opportunity.Grid{Cells: tg, Tiles: sparsetile.NewArray[opportunity.Tile](tg.NumTiles())}

	codec := OpportunityTileCodec{Span: int(h.Span)}
	for _, rec := range env.Tiles {
		tile, err := codec.Decode(rec.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "persist: decoding opportunity tile %d", rec.Index)
		}
		g.Tiles.Set(int(rec.Index), tile)
	}
	return g, nil
}

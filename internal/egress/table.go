package egress

import (
	"github.com/phase-five/access/internal/grid"
	"github.com/phase-five/access/internal/sparsetile"
	"github.com/phase-five/access/internal/street"
)

// SparseTable is the built egress table for one transport network: a tile
// grid plus a sparse array of per-tile egress-time tiles and a sparse
// array of the underlying street-connector tiles they were derived from
// (kept so the one-to-many processor can also evaluate street connectors
// directly, per §4.I step 5).
type SparseTable struct {
	Grid       *grid.TileGrid
	Egress     *sparsetile.Array[TimeTile]
	Connectors *sparsetile.Array[street.ConnectorTile]
}

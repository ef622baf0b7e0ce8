// Package address implements the per-tile address pool and the binder
// that attaches a geometry point to every synthesized household. Both
// are pure with respect to I/O: the pool is handed pre-loaded points,
// and the binder only consumes an rng.Source.
package address

import (
	"github.com/geodemo/popsynth/pkg/geo"
	"github.com/geodemo/popsynth/pkg/household"
	"github.com/geodemo/popsynth/pkg/rng"
)

// Point is one address record's coordinates, already in the tile grid's
// CRS.
type Point struct {
	X, Y float64
}

// Pool holds, for each tile identifier, the shuffled sequence of address
// points that fall inside it. It is read-only after construction.
type Pool struct {
	byTile map[geo.TileID][]Point
}

// NewPool groups raw address points by the tile they fall into (flooring
// y/200 and x/200) and shuffles each tile's sequence once with s. The
// pre-shuffle is what lets the binder sample "with replacement, no
// positional bias" by simple uniform index draws.
func NewPool(epsg int, points []Point, s *rng.Source) *Pool {
	byTile := make(map[geo.TileID][]Point)
	for _, p := range points {
		tid := geo.TileIDFor(epsg, p.X, p.Y)
		byTile[tid] = append(byTile[tid], p)
	}
	for tid, pts := range byTile {
		shuffled := make([]Point, len(pts))
		copy(shuffled, pts)
		shufflePoints(s, shuffled)
		byTile[tid] = shuffled
	}
	return &Pool{byTile: byTile}
}

// For returns the shuffled address sequence for tid, or nil if the tile
// has no known addresses.
func (p *Pool) For(tid geo.TileID) []Point {
	if p == nil {
		return nil
	}
	return p.byTile[tid]
}

func shufflePoints(s *rng.Source, pts []Point) {
	for i := len(pts) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		pts[i], pts[j] = pts[j], pts[i]
	}
}

// Bind attaches a geometry point to every household. If the tile has no
// households, it returns nil. If addresses is empty, every
// household gets a synthetic point drawn uniformly inside bounds.
// Otherwise each household slot draws an address index uniformly at
// random, with replacement, from the already-shuffled addresses slice.
func Bind(households []*household.Household, addresses []Point, bounds geo.Bounds, s *rng.Source) []*household.Household {
	if len(households) == 0 {
		return nil
	}
	if len(addresses) == 0 {
		for _, h := range households {
			h.X = s.UniformFloatRange(bounds.XSO, bounds.XNE)
			h.Y = s.UniformFloatRange(bounds.YSO, bounds.YNE)
			h.HasPoint = true
		}
		return households
	}
	for _, h := range households {
		p := addresses[s.Intn(len(addresses))]
		h.X, h.Y = p.X, p.Y
		h.HasPoint = true
	}
	return households
}

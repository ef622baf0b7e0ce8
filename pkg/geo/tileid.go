package geo

import "fmt"

// TileSide is the side length, in CRS units (metres), of one grid tile.
const TileSide = 200

// TileID identifies one 200-metre tile: the EPSG code of the grid it was
// cut from, plus the integer south-west corner coordinates.
type TileID struct {
	EPSG  int
	North int
	East  int
}

// String formats the identifier as CRS{epsg}RES200mN{north}E{east}, the
// wire format used by the gridded input.
func (t TileID) String() string {
	return fmt.Sprintf("CRS%dRES200mN%dE%d", t.EPSG, t.North, t.East)
}

// ParseTileID parses the canonical tile identifier string. A malformed
// identifier is an input-shape error.
func ParseTileID(id string) (TileID, error) {
	var t TileID
	n, err := fmt.Sscanf(id, "CRS%dRES200mN%dE%d", &t.EPSG, &t.North, &t.East)
	if err != nil || n != 3 {
		return TileID{}, fmt.Errorf("malformed tile identifier %q", id)
	}
	return t, nil
}

// Bounds is the south-west / north-east bounding box of a tile, in the
// tile grid's CRS.
type Bounds struct {
	XSO, YSO float64
	XNE, YNE float64
}

// Bounds derives the tile's bounding box from its identifier: the SW
// corner is the identifier's (north, east) pair read as (y, x), and the
// NE corner is 200 units further in both axes.
func (t TileID) Bounds() Bounds {
	xso := float64(t.East)
	yso := float64(t.North)
	return Bounds{
		XSO: xso,
		YSO: yso,
		XNE: xso + TileSide,
		YNE: yso + TileSide,
	}
}

// TileIDFor derives the identifier of the tile containing point (x, y) in
// the given EPSG, by flooring y/200 and x/200.
func TileIDFor(epsg int, x, y float64) TileID {
	return TileID{
		EPSG:  epsg,
		North: floorDiv200(y),
		East:  floorDiv200(x),
	}
}

func floorDiv200(v float64) int {
	q := v / TileSide
	fq := int(q)
	if q < float64(fq) {
		fq--
	}
	return fq * TileSide
}

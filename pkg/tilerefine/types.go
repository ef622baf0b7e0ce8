// Package tilerefine converts a fractional gridded-aggregate tile into a
// self-consistent integer "refined tile". Refine is a pure function of
// one raw tile and an RNG source; it performs no I/O.
package tilerefine

import (
	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/geo"
)

// RawTile is one record of the gridded socio-demographic input:
// fractional totals arising from the source's statistical-disclosure
// noise.
type RawTile struct {
	ID string

	Ind     float64
	Men     float64
	Men1Ind float64
	Men5Ind float64
	MenFmp  float64

	MenProp float64
	MenColl float64
	MenMais float64
	IndSNV  float64
	MenPauv float64

	Bands [ageband.NumBands]float64
}

// RefinedTile is the integer, invariant-satisfying version of a RawTile,
// with its bounding box derived from its identifier.
type RefinedTile struct {
	ID     geo.TileID
	Bounds geo.Bounds

	Ind     int
	Men     int
	Men1Ind int
	Men24   int
	Men5Ind int
	MenFmp  int

	MenProp int
	MenColl int
	MenMais int
	MenPauv int
	IndSNV  float64

	Plus18  int
	Moins18 int

	Bands ageband.Histogram
}

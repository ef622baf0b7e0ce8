// Package household derives, from one refined tile, the list of household
// records whose marginals reproduce the tile exactly. Synthesize is a
// pure function of a tilerefine.RefinedTile and an rng.Source; it
// performs no I/O.
package household

import (
	"fmt"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/geo"
)

// Household is one synthesized household. Geometry (X, Y) is unset until
// the address binder (pkg/address) attaches a point; HasPoint reports that.
type Household struct {
	ID      string
	TileID  geo.TileID
	Ordinal int

	Size   int
	Adults int
	Minors int
	Bands  ageband.Histogram

	Monoparental bool
	Large        bool

	LivingStandard float64

	HasPoint bool
	X, Y     float64
}

// SynthesisError reports that the synthesized household list failed to
// reproduce one of the refined tile's marginals. This always indicates a
// bug in the refiner that produced the tile, not a recoverable data
// problem.
type SynthesisError struct {
	TileID string
	Reason string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("tile %s: household synthesis marginal mismatch: %s", e.TileID, e.Reason)
}

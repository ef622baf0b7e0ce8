// Package individual expands one placed household into its constituent
// individual records. Expand is pure with respect to I/O; it only
// consumes an rng.Source to draw concrete ages.
package individual

import (
	"fmt"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/geo"
	"github.com/geodemo/popsynth/pkg/household"
	"github.com/geodemo/popsynth/pkg/rng"
)

// Status strings used on the individual record.
const (
	StatusAdult = "ADULT"
	StatusMinor = "MINOR"
)

// Individual is one expanded member of a household.
type Individual struct {
	ID          string
	HouseholdID string
	TileID      geo.TileID

	HouseholdSize int
	Large         bool
	Monoparental  bool

	LivingStandard float64

	AgeBand string
	Age     int
	IsAdult bool
	Status  string

	X, Y float64
}

// Expand emits exactly h.Size individual records for h, traversing the
// eleven age bands in canonical order (minors first) and drawing each
// individual's concrete age uniformly within its band.
func Expand(h *household.Household, s *rng.Source) []Individual {
	out := make([]Individual, 0, h.Size)
	ordinal := 0
	for _, idx := range canonicalOrder() {
		band := ageband.Bands[idx]
		count := h.Bands[idx]
		for n := 0; n < count; n++ {
			ordinal++
			out = append(out, Individual{
				ID:             fmt.Sprintf("%s#%d", h.ID, ordinal),
				HouseholdID:    h.ID,
				TileID:         h.TileID,
				HouseholdSize:  h.Size,
				Large:          h.Large,
				Monoparental:   h.Monoparental,
				LivingStandard: h.LivingStandard,
				AgeBand:        band.Name,
				Age:            s.UniformIntInclusive(band.Min, band.Max),
				IsAdult:        band.IsAdult,
				Status:         statusFor(band.IsAdult),
				X:              h.X,
				Y:              h.Y,
			})
		}
	}
	return out
}

func statusFor(isAdult bool) string {
	if isAdult {
		return StatusAdult
	}
	return StatusMinor
}

// canonicalOrder returns the band indices in the fixed emission order:
// minor bands, then adult bands, both in their declared order.
func canonicalOrder() []int {
	order := make([]int, 0, ageband.NumBands)
	order = append(order, ageband.MinorBandIndices[:]...)
	order = append(order, ageband.AdultBandIndices[:]...)
	return order
}

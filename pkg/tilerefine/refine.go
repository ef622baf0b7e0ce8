package tilerefine

import (
	"fmt"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/geo"
	"github.com/geodemo/popsynth/pkg/rng"
)

// FeasibilityError reports that a refined tile failed one of its
// invariants. It is always fatal and names the offending tile; it is
// never silently corrected.
type FeasibilityError struct {
	TileID string
	Reason string
}

func (e *FeasibilityError) Error() string {
	return fmt.Sprintf("tile %s: feasibility violation: %s", e.TileID, e.Reason)
}

// Refine converts a raw tile into a refined tile. It consumes s for
// every random-rounding and tie-break decision; it performs no I/O and
// never returns an error for a raw tile that is shapeable into a
// feasible refined tile: degenerate inputs (uninhabited tiles, more
// households than individuals) are clamped rather than rejected. An
// error is returned only if, despite those clamps, an invariant still
// fails to hold; that indicates a bug in this function, not in the
// input.
func Refine(raw RawTile, s *rng.Source) (RefinedTile, error) {
	tid, err := geo.ParseTileID(raw.ID)
	if err != nil {
		return RefinedTile{}, err
	}

	// Step 1.
	ind := maxInt(1, s.RoundRandom(raw.Ind))
	men := minInt(ind, maxInt(1, s.RoundRandom(raw.Men)))

	// Step 2: integer parts and bump scores.
	var bands ageband.Histogram
	scores := make([]float64, ageband.NumBands)
	for i, v := range raw.Bands {
		f := floorFloat(v)
		bands[i] = f
		frac := v - float64(f)
		scores[i] = frac * s.Float64()
	}

	// Step 3: adults-at-least-households.
	adultSum := bands.AdultSum()
	if deficit := men - adultSum; deficit > 0 {
		promoteTopK(bands[:], scores, ageband.AdultBandIndices[:], deficit)
	}

	// Step 4: total-ind reconciliation.
	total := bands.Sum()
	if deficit := ind - total; deficit > 0 {
		allIdx := make([]int, ageband.NumBands)
		for i := range allIdx {
			allIdx[i] = i
		}
		promoteTopK(bands[:], scores, allIdx, deficit)
	} else if surplus := total - ind; surplus > 0 {
		demoteBottomKMinors(bands[:], scores, surplus)
	}

	// Step 5: household-class integers.
	men1ind := floorFloat(raw.Men1Ind)
	men5ind := floorFloat(raw.Men5Ind)
	res1ind := raw.Men1Ind - float64(men1ind)
	res5ind := raw.Men5Ind - float64(men5ind)

	// Step 6: enforce feasibility with ind, in the prescribed order.
	for men5ind > 0 && 3*men5ind > ind-2*men+men1ind {
		men5ind--
	}
	for men1ind > 0 && men5ind == 0 && 3*men1ind > 4*men-ind {
		men1ind--
	}
	for men1ind < 2*men+3*men5ind-ind {
		men1ind++
	}
	if s.Bool(res1ind) && feasibleUpperBound(men1ind+1, men5ind, men, ind) {
		men1ind++
	}
	if men5ind == 0 && 3*men1ind > 4*men-ind {
		men5ind = 1
	}
	if s.Bool(res5ind) && feasibleLowerBound(men1ind, men5ind+1, men, ind) {
		men5ind++
	}

	men24 := men - men1ind - men5ind
	menFmp := minInt(men, s.RoundRandom(raw.MenFmp))
	menPauv := minInt(men, s.RoundRandom(raw.MenPauv))
	menProp := minInt(men, s.RoundRandom(raw.MenProp))
	menColl := minInt(men, s.RoundRandom(raw.MenColl))
	menMais := minInt(men, s.RoundRandom(raw.MenMais))

	refined := RefinedTile{
		ID:      tid,
		Bounds:  tid.Bounds(),
		Ind:     ind,
		Men:     men,
		Men1Ind: men1ind,
		Men24:   men24,
		Men5Ind: men5ind,
		MenFmp:  menFmp,
		MenProp: menProp,
		MenColl: menColl,
		MenMais: menMais,
		MenPauv: menPauv,
		IndSNV:  raw.IndSNV,
		Plus18:  bands.AdultSum(),
		Moins18: bands.MinorSum(),
		Bands:   bands,
	}

	if err := validate(refined); err != nil {
		return RefinedTile{}, err
	}
	return refined, nil
}

// feasibleUpperBound reports whether (men1ind, men5ind) satisfies the
// upper bound ind <= men_1ind + 4*men_24 when men_5ind = 0, rewritten as
// 3*men1ind <= 4*men - ind. The bound is only binding when men5ind is
// zero.
func feasibleUpperBound(men1ind, men5ind, men, ind int) bool {
	if men5ind != 0 {
		return true
	}
	return 3*men1ind <= 4*men-ind
}

// feasibleLowerBound reports whether (men1ind, men5ind) satisfies the
// lower bound men_1ind + 2*men_24 + 5*men_5ind <= ind.
func feasibleLowerBound(men1ind, men5ind, men, ind int) bool {
	men24 := men - men1ind - men5ind
	return men1ind+2*men24+5*men5ind <= ind
}

// promoteTopK adds +1 to the k highest-scoring bands among candidates,
// zeroing each score as it is used. Ties go to the earliest candidate, so
// once every score is zero all further increments land on candidates[0].
func promoteTopK(bands []int, scores []float64, candidates []int, k int) {
	for n := 0; n < k; n++ {
		best := -1
		for _, idx := range candidates {
			if best == -1 || scores[idx] > scores[best] {
				best = idx
			}
		}
		if best == -1 {
			return
		}
		bands[best]++
		scores[best] = 0
	}
}

// demoteBottomKMinors removes 1 from the k lowest-scoring minor bands
// that are still > 0. Adult bands are never touched here, since the
// adults-at-least-households step may have promoted one to satisfy the
// household constraint.
func demoteBottomKMinors(bands []int, scores []float64, k int) {
	for n := 0; n < k; n++ {
		best := -1
		for _, idx := range ageband.MinorBandIndices {
			if bands[idx] <= 0 {
				continue
			}
			if best == -1 || scores[idx] < scores[best] {
				best = idx
			}
		}
		if best == -1 {
			return
		}
		bands[best]--
	}
}

func floorFloat(v float64) int {
	f := int(v)
	if v < 0 && float64(f) > v {
		f--
	}
	return f
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

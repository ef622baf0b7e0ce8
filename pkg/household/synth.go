package household

import (
	"fmt"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/rng"
	"github.com/geodemo/popsynth/pkg/tilerefine"
)

// Synthesize builds the tile's household list: sizing, then age-band
// allocation, then living-standard assignment. It consumes s for every
// random choice and never mutates the tile.
func Synthesize(tile tilerefine.RefinedTile, s *rng.Source) ([]*Household, error) {
	households := makeSizedHouseholds(tile, s)
	allocateAges(tile, households, s)
	assignLivingStandard(tile, households, s)

	if err := assertMarginals(tile, households); err != nil {
		return nil, err
	}
	return households, nil
}

// makeSizedHouseholds runs the sizing sub-algorithm: start from the
// multiset implied by men_1ind/men_24/men_5ind, then distribute the
// remaining R = ind - sum(sizes) seats across eligible households.
func makeSizedHouseholds(tile tilerefine.RefinedTile, s *rng.Source) []*Household {
	households := make([]*Household, 0, tile.Men)
	ordinal := 0
	add := func(size int) {
		ordinal++
		households = append(households, &Household{
			ID:      fmt.Sprintf("%s#%d", tile.ID.String(), ordinal),
			TileID:  tile.ID,
			Ordinal: ordinal,
			Size:    size,
		})
	}
	for i := 0; i < tile.Men1Ind; i++ {
		add(1)
	}
	for i := 0; i < tile.Men24; i++ {
		add(2)
	}
	for i := 0; i < tile.Men5Ind; i++ {
		add(5)
	}

	sum := 0
	for _, h := range households {
		sum += h.Size
	}
	r := tile.Ind - sum

	// Step 1: grow size-2/size-3 households first; a household leaves this
	// eligible set once it reaches size 4.
	eligible23 := make([]bool, len(households))
	for i, h := range households {
		eligible23[i] = h.Size == 2 || h.Size == 3
	}
	for r > 0 {
		idx := s.PickUniform(eligible23)
		if idx == -1 {
			break
		}
		households[idx].Size++
		r--
		if households[idx].Size >= 4 {
			eligible23[idx] = false
		}
	}

	// Step 2: grow size->=5 households.
	eligible5 := make([]bool, len(households))
	for i, h := range households {
		eligible5[i] = h.Size >= 5
	}
	for r > 0 {
		idx := s.PickUniform(eligible5)
		if idx == -1 {
			break
		}
		households[idx].Size++
		r--
	}

	// Step 3: fallback, any household at all. Reachable only when the
	// feasibility enforcement in tilerefine failed to bound men_1ind
	// tightly enough for this ind.
	if r > 0 && len(households) > 0 {
		any := make([]bool, len(households))
		for i := range any {
			any[i] = true
		}
		for r > 0 {
			idx := s.PickUniform(any)
			if idx == -1 {
				break
			}
			households[idx].Size++
			r--
		}
	}

	return households
}

// allocateAges runs the age-allocation sub-algorithm: shuffled tag pools
// for adults and minors, consumed by popping, guarantee exact per-band
// marginals regardless of which household receives which tag.
func allocateAges(tile tilerefine.RefinedTile, households []*Household, s *rng.Source) {
	adults := buildTagPool(tile.Bands, ageband.AdultBandIndices[:])
	minors := buildTagPool(tile.Bands, ageband.MinorBandIndices[:])
	rng.ShuffleInts(s, adults)
	rng.ShuffleInts(s, minors)

	// Seed every household with exactly one adult.
	for _, h := range households {
		if len(adults) == 0 {
			break
		}
		tag := adults[len(adults)-1]
		adults = adults[:len(adults)-1]
		h.Bands[tag]++
		h.Adults = 1
	}

	// Distribute remaining adult tags among households that still have
	// room (adults < size), uniformly at random per tag.
	eligible := make([]bool, len(households))
	for i, h := range households {
		eligible[i] = h.Adults < h.Size
	}
	for len(adults) > 0 {
		idx := s.PickUniform(eligible)
		if idx == -1 {
			break
		}
		tag := adults[len(adults)-1]
		adults = adults[:len(adults)-1]
		households[idx].Bands[tag]++
		households[idx].Adults++
		if households[idx].Adults >= households[idx].Size {
			eligible[idx] = false
		}
	}

	// Each household's remaining seats are minors; pop exactly that many
	// tags from the shuffled minor pool.
	for _, h := range households {
		need := h.Size - h.Adults
		for i := 0; i < need && len(minors) > 0; i++ {
			tag := minors[len(minors)-1]
			minors = minors[:len(minors)-1]
			h.Bands[tag]++
			h.Minors++
		}
	}

	for _, h := range households {
		h.Monoparental = h.Adults == 1 && h.Minors >= 1
		h.Large = h.Size >= 5
	}
}

// buildTagPool expands a band histogram into a flat slice of band indices,
// one entry per individual, restricted to the given band index set.
func buildTagPool(bands ageband.Histogram, idxs []int) []int {
	var pool []int
	for _, idx := range idxs {
		for n := 0; n < bands[idx]; n++ {
			pool = append(pool, idx)
		}
	}
	return pool
}

// assignLivingStandard draws independent U(0,1) shares per household,
// normalises them to sum to 1, and divides by household size. The
// division by size matches the upstream data producer's definition of a
// per-capita figure.
func assignLivingStandard(tile tilerefine.RefinedTile, households []*Household, s *rng.Source) {
	if len(households) == 0 {
		return
	}
	parts := make([]float64, len(households))
	total := 0.0
	for i := range parts {
		parts[i] = s.Float64()
		total += parts[i]
	}
	if total == 0 {
		total = 1
	}
	for i, h := range households {
		share := tile.IndSNV * parts[i] / total
		if h.Size > 0 {
			h.LivingStandard = share / float64(h.Size)
		}
	}
}

// assertMarginals checks every marginal the synthesized list must
// reproduce. A failure here always indicates a refiner bug, never a
// recoverable synthesis problem.
func assertMarginals(tile tilerefine.RefinedTile, households []*Household) error {
	fail := func(format string, args ...any) error {
		return &SynthesisError{TileID: tile.ID.String(), Reason: fmt.Sprintf(format, args...)}
	}

	if len(households) != tile.Men {
		return fail("produced %d households, want men=%d", len(households), tile.Men)
	}

	sizeSum, size1, size5 := 0, 0, 0
	var bandSum ageband.Histogram
	for _, h := range households {
		sizeSum += h.Size
		if h.Size == 1 {
			size1++
		}
		if h.Size >= 5 {
			size5++
		}
		if h.Adults < 1 {
			return fail("household %s has zero adults", h.ID)
		}
		if h.Size == 1 && h.Minors != 0 {
			return fail("household %s is size-1 but has %d minors", h.ID, h.Minors)
		}
		if h.Monoparental != (h.Adults == 1 && h.Minors >= 1) {
			return fail("household %s monoparental flag inconsistent with adults=%d minors=%d", h.ID, h.Adults, h.Minors)
		}
		if h.Large != (h.Size >= 5) {
			return fail("household %s large flag inconsistent with size=%d", h.ID, h.Size)
		}
		for i, c := range h.Bands {
			bandSum[i] += c
		}
		if h.Bands.Sum() != h.Size {
			return fail("household %s band histogram sums to %d, want size=%d", h.ID, h.Bands.Sum(), h.Size)
		}
	}

	if sizeSum != tile.Ind {
		return fail("sum of sizes = %d, want ind = %d", sizeSum, tile.Ind)
	}
	if size1 != tile.Men1Ind {
		return fail("size-1 household count = %d, want men_1ind = %d", size1, tile.Men1Ind)
	}
	if size5 != tile.Men5Ind {
		return fail("size-5+ household count = %d, want men_5ind = %d", size5, tile.Men5Ind)
	}
	for i, c := range bandSum {
		if c != tile.Bands[i] {
			return fail("band %d total = %d, want tile count = %d", i, c, tile.Bands[i])
		}
	}
	return nil
}

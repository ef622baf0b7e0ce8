package tilerefine

import (
	"testing"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/rng"
)

func mkRaw(id string, ind, men, men1, men5, fmp float64, bands [ageband.NumBands]float64) RawTile {
	return RawTile{
		ID: id, Ind: ind, Men: men, Men1Ind: men1, Men5Ind: men5, MenFmp: fmp,
		Bands: bands,
	}
}

func TestRefineInvariantsHoldAcrossSeeds(t *testing.T) {
	var bands [ageband.NumBands]float64
	bands[4] = 1.3 // ind_18_24
	bands[5] = 1.4 // ind_25_39
	raw := mkRaw("CRS3035RES200mN2426000E3767600", 3.2, 1.7, 0.1, 0, 0, bands)

	for seed := int64(0); seed < 200; seed++ {
		s := rng.New(seed)
		refined, err := Refine(raw, s)
		if err != nil {
			t.Fatalf("seed %d: Refine returned error: %v", seed, err)
		}
		if err := validate(refined); err != nil {
			t.Fatalf("seed %d: invariant violated: %v", seed, err)
		}
	}
}

func TestRefineClampsZeroHouseholdTile(t *testing.T) {
	var bands [ageband.NumBands]float64
	raw := mkRaw("CRS3035RES200mN0E0", 0, 0, 0, 0, 0, bands)
	s := rng.New(1)
	refined, err := Refine(raw, s)
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined.Ind != 1 || refined.Men != 1 {
		t.Fatalf("expected degenerate tile to clamp to ind=1,men=1, got ind=%d men=%d", refined.Ind, refined.Men)
	}
	if refined.Bands.AdultSum() < 1 {
		t.Fatalf("expected at least one adult band count after clamp, got sum %d", refined.Bands.AdultSum())
	}
}

func TestRefineClampsMenExceedingInd(t *testing.T) {
	var bands [ageband.NumBands]float64
	bands[4] = 2
	raw := mkRaw("CRS3035RES200mN0E0", 2, 5, 3, 0, 0, bands)
	s := rng.New(1)
	refined, err := Refine(raw, s)
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined.Men > refined.Ind {
		t.Fatalf("men (%d) exceeds ind (%d) after clamp", refined.Men, refined.Ind)
	}
	if refined.Men1Ind > refined.Men {
		t.Fatalf("men_1ind (%d) exceeds men (%d) after clamp", refined.Men1Ind, refined.Men)
	}
}

func TestRefineIdempotentOnIntegerInput(t *testing.T) {
	var bands [ageband.NumBands]float64
	bands[4] = 3
	bands[5] = 2
	raw := mkRaw("CRS3035RES200mN0E0", 5, 2, 1, 0, 0, bands)

	for seed := int64(0); seed < 20; seed++ {
		refined, err := Refine(raw, rng.New(seed))
		if err != nil {
			t.Fatalf("seed %d: Refine returned error: %v", seed, err)
		}
		if refined.Ind != 5 || refined.Men != 2 {
			t.Fatalf("seed %d: integer input should round-trip exactly, got ind=%d men=%d", seed, refined.Ind, refined.Men)
		}
	}
}

func TestRefineMalformedID(t *testing.T) {
	raw := mkRaw("not-a-tile-id", 1, 1, 0, 0, 0, [ageband.NumBands]float64{})
	if _, err := Refine(raw, rng.New(1)); err == nil {
		t.Fatalf("expected error for malformed tile id")
	}
}

func TestRefineBoundsDerivedFromID(t *testing.T) {
	var bands [ageband.NumBands]float64
	bands[4] = 1
	raw := mkRaw("CRS3035RES200mN2426000E3767600", 1, 1, 0, 0, 0, bands)
	refined, err := Refine(raw, rng.New(1))
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined.Bounds.XSO != 3767600 || refined.Bounds.YSO != 2426000 {
		t.Fatalf("unexpected bounds: %+v", refined.Bounds)
	}
	if refined.Bounds.XNE != 3767800 || refined.Bounds.YNE != 2426200 {
		t.Fatalf("unexpected bounds: %+v", refined.Bounds)
	}
}

func TestRefineScenario2SizingFeasibility(t *testing.T) {
	// ind=10, men=4, men_1ind=2, men_5ind=1: feasible, men_24 = 1.
	var bands [ageband.NumBands]float64
	bands[4] = 4 // enough adults to cover men=4
	bands[0] = 6 // minors fill out ind=10
	raw := mkRaw("CRS3035RES200mN0E0", 10, 4, 2, 1, 0, bands)
	refined, err := Refine(raw, rng.New(5))
	if err != nil {
		t.Fatalf("Refine returned error: %v", err)
	}
	if refined.Men1Ind != 2 || refined.Men5Ind != 1 || refined.Men24 != 1 {
		t.Fatalf("expected men_1ind=2 men_5ind=1 men_24=1, got %d/%d/%d", refined.Men1Ind, refined.Men5Ind, refined.Men24)
	}
}

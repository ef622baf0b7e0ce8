package household

import (
	"testing"

	"github.com/geodemo/popsynth/pkg/ageband"
	"github.com/geodemo/popsynth/pkg/geo"
	"github.com/geodemo/popsynth/pkg/rng"
	"github.com/geodemo/popsynth/pkg/tilerefine"
)

func mkTile(ind, men, men1, men24, men5 int, bands ageband.Histogram) tilerefine.RefinedTile {
	tid, err := geo.ParseTileID("CRS3035RES200mN2426000E3767600")
	if err != nil {
		panic(err)
	}
	return tilerefine.RefinedTile{
		ID: tid, Bounds: tid.Bounds(),
		Ind: ind, Men: men, Men1Ind: men1, Men24: men24, Men5Ind: men5,
		Plus18: bands.AdultSum(), Moins18: bands.MinorSum(),
		Bands: bands,
	}
}

func TestSynthesizeScenario2Sizes(t *testing.T) {
	// ind=10, men=4, men_1ind=2, men_5ind=1, men_24=1: sizes must be
	// {1,1,5,3} up to order: men_24 = 1 and the single leftover seat can
	// only land on the size-2 household.
	var bands ageband.Histogram
	bands[4] = 4 // 4 adults, one per household minimum
	bands[0] = 6 // fill remaining ind with minors
	tile := mkTile(10, 4, 2, 1, 1, bands)

	hs, err := Synthesize(tile, rng.New(1))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	sizes := make(map[int]int)
	for _, h := range hs {
		sizes[h.Size]++
	}
	if sizes[1] != 2 {
		t.Fatalf("expected two size-1 households, got %v", sizes)
	}
	total := 0
	for size, n := range sizes {
		total += size * n
	}
	if total != 10 {
		t.Fatalf("sizes %v sum to %d, want 10", sizes, total)
	}
}

func TestSynthesizeEveryHouseholdHasAnAdult(t *testing.T) {
	var bands ageband.Histogram
	bands[4] = 3
	bands[0] = 2
	tile := mkTile(5, 3, 1, 2, 0, bands)

	for seed := int64(0); seed < 50; seed++ {
		hs, err := Synthesize(tile, rng.New(seed))
		if err != nil {
			t.Fatalf("seed %d: Synthesize returned error: %v", seed, err)
		}
		for _, h := range hs {
			if h.Adults < 1 {
				t.Fatalf("seed %d: household %s has no adult", seed, h.ID)
			}
			if h.Size == 1 && h.Minors != 0 {
				t.Fatalf("seed %d: size-1 household %s has minors", seed, h.ID)
			}
		}
	}
}

func TestSynthesizeSingleAdultHousehold(t *testing.T) {
	var bands ageband.Histogram
	bands[5] = 1 // ind_25_39
	tile := mkTile(1, 1, 1, 0, 0, bands)

	hs, err := Synthesize(tile, rng.New(3))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(hs) != 1 {
		t.Fatalf("expected exactly one household, got %d", len(hs))
	}
	h := hs[0]
	if h.Size != 1 || h.Adults != 1 || h.Minors != 0 {
		t.Fatalf("unexpected household shape: %+v", h)
	}
	if h.Bands[5] != 1 {
		t.Fatalf("expected the single adult tag in band ind_25_39, got %+v", h.Bands)
	}
}

func TestSynthesizeMarginalsMatchAcrossSeeds(t *testing.T) {
	var bands ageband.Histogram
	bands[0] = 3
	bands[4] = 5
	bands[5] = 2
	tile := mkTile(10, 4, 1, 2, 1, bands)

	for seed := int64(0); seed < 100; seed++ {
		hs, err := Synthesize(tile, rng.New(seed))
		if err != nil {
			t.Fatalf("seed %d: Synthesize returned error: %v", seed, err)
		}
		var bandSum ageband.Histogram
		sizeSum := 0
		for _, h := range hs {
			sizeSum += h.Size
			for i, c := range h.Bands {
				bandSum[i] += c
			}
		}
		if sizeSum != tile.Ind {
			t.Fatalf("seed %d: size sum %d != ind %d", seed, sizeSum, tile.Ind)
		}
		if bandSum != tile.Bands {
			t.Fatalf("seed %d: band sums %v != tile bands %v", seed, bandSum, tile.Bands)
		}
	}
}

func TestSynthesizeLivingStandardSharesTileIncome(t *testing.T) {
	var bands ageband.Histogram
	bands[4] = 2
	tile := mkTile(2, 2, 2, 0, 0, bands)
	tile.IndSNV = 1000

	hs, err := Synthesize(tile, rng.New(9))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	for _, h := range hs {
		if h.LivingStandard <= 0 {
			t.Fatalf("expected positive living standard, got %v", h.LivingStandard)
		}
	}
}

func TestSynthesizeMonoparentalFlag(t *testing.T) {
	var bands ageband.Histogram
	bands[4] = 1 // one adult
	bands[0] = 2 // two minors
	tile := mkTile(3, 1, 0, 0, 0, bands)
	tile.Men24 = 1

	hs, err := Synthesize(tile, rng.New(4))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(hs) != 1 {
		t.Fatalf("expected one household, got %d", len(hs))
	}
	if !hs[0].Monoparental {
		t.Fatalf("expected monoparental flag with adults=1 minors=2, got %+v", hs[0])
	}
}

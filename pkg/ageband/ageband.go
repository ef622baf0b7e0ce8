// Package ageband defines the eleven age bands shared by the tile
// refiner, household synthesizer and individual expander.
package ageband

// Band is one of the eleven age bands. Min/Max are inclusive, in years.
// The "unknown-adult" band (Name "ind_inc") has no natural age range in the
// source data and is treated as [18,80] for age-drawing purposes.
type Band struct {
	Name    string
	Min     int
	Max     int
	IsAdult bool
}

// Bands lists the eleven bands in the canonical emission order used by
// the individual expander: the four minor bands first, then the seven
// adult bands.
var Bands = [11]Band{
	{Name: "ind_0_3", Min: 0, Max: 3, IsAdult: false},
	{Name: "ind_4_5", Min: 4, Max: 5, IsAdult: false},
	{Name: "ind_6_10", Min: 6, Max: 10, IsAdult: false},
	{Name: "ind_11_17", Min: 11, Max: 17, IsAdult: false},
	{Name: "ind_18_24", Min: 18, Max: 24, IsAdult: true},
	{Name: "ind_25_39", Min: 25, Max: 39, IsAdult: true},
	{Name: "ind_40_54", Min: 40, Max: 54, IsAdult: true},
	{Name: "ind_55_64", Min: 55, Max: 64, IsAdult: true},
	{Name: "ind_65_79", Min: 65, Max: 79, IsAdult: true},
	{Name: "ind_80_105", Min: 80, Max: 105, IsAdult: true},
	{Name: "ind_inc", Min: 18, Max: 80, IsAdult: true},
}

// NumBands is the number of age bands (11).
const NumBands = len(Bands)

// MinorBandIndices lists the indices (into Bands/a Histogram) of the four
// minor bands, in canonical order.
var MinorBandIndices = [4]int{0, 1, 2, 3}

// AdultBandIndices lists the indices of the seven adult bands, in
// canonical order.
var AdultBandIndices = [7]int{4, 5, 6, 7, 8, 9, 10}

// Histogram is a per-band integer count, indexed the same way as Bands.
type Histogram [NumBands]int

// Sum returns the total across all eleven bands.
func (h Histogram) Sum() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

// AdultSum returns the total across the seven adult bands.
func (h Histogram) AdultSum() int {
	total := 0
	for _, i := range AdultBandIndices {
		total += h[i]
	}
	return total
}

// MinorSum returns the total across the four minor bands.
func (h Histogram) MinorSum() int {
	total := 0
	for _, i := range MinorBandIndices {
		total += h[i]
	}
	return total
}

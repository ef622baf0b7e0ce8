// Package geo holds the territory registry and tile-identifier codec shared
// by every stage of the population synthesis pipeline.
package geo

import "fmt"

// Territory describes the coordinate reference systems paired for one
// supported territory: one CRS for the address source, one for the tile
// grid. Metropolitan France and Martinique pair EPSG 2154 for addresses
// with EPSG 3035 for tiles; Réunion uses EPSG 2975 for both.
type Territory struct {
	Code       string
	AddressEPSG int
	TileEPSG    int
}

// Registry of supported territories. Any other code is a fatal input
// error.
var registry = map[string]Territory{
	"france": {Code: "france", AddressEPSG: 2154, TileEPSG: 3035},
	"METRO":  {Code: "france", AddressEPSG: 2154, TileEPSG: 3035},
	"974":    {Code: "974", AddressEPSG: 2975, TileEPSG: 2975},
	"972":    {Code: "972", AddressEPSG: 2154, TileEPSG: 3035},
}

// Lookup resolves a territory code to its CRS pairing. An unknown code is
// reported as an error rather than panicking: the caller is expected to
// wrap this into an input-shape error before aborting the run.
func Lookup(code string) (Territory, error) {
	t, ok := registry[code]
	if !ok {
		return Territory{}, fmt.Errorf("unknown territory code %q", code)
	}
	return t, nil
}

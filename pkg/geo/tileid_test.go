package geo

import "testing"

func TestParseTileIDRoundTrip(t *testing.T) {
	id := TileID{EPSG: 3035, North: 2426000, East: 3767600}
	s := id.String()
	if s != "CRS3035RES200mN2426000E3767600" {
		t.Fatalf("unexpected formatting: %s", s)
	}

	parsed, err := ParseTileID(s)
	if err != nil {
		t.Fatalf("ParseTileID returned error: %v", err)
	}
	if parsed != id {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", parsed, id)
	}
}

func TestParseTileIDMalformed(t *testing.T) {
	cases := []string{
		"",
		"CRS3035RES200m",
		"garbage",
		"CRS3035RES200mN2426000",
	}
	for _, c := range cases {
		if _, err := ParseTileID(c); err == nil {
			t.Fatalf("expected error for malformed id %q", c)
		}
	}
}

func TestBounds(t *testing.T) {
	id := TileID{EPSG: 3035, North: 2426000, East: 3767600}
	b := id.Bounds()
	if b.XSO != 3767600 || b.YSO != 2426000 {
		t.Fatalf("unexpected SW corner: %+v", b)
	}
	if b.XNE != 3767800 || b.YNE != 2426200 {
		t.Fatalf("unexpected NE corner: %+v", b)
	}
}

func TestTileIDForFloorsCoordinates(t *testing.T) {
	got := TileIDFor(3035, 3767650.5, 2426199.9)
	want := TileID{EPSG: 3035, North: 2426000, East: 3767600}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestTileIDForNegativeCoordinates(t *testing.T) {
	got := TileIDFor(3035, -50, -250)
	want := TileID{EPSG: 3035, North: -400, East: -200}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLookupKnownAndUnknownTerritories(t *testing.T) {
	for _, code := range []string{"france", "METRO", "974", "972"} {
		if _, err := Lookup(code); err != nil {
			t.Fatalf("expected %q to be a known territory, got error: %v", code, err)
		}
	}
	if _, err := Lookup("atlantis"); err == nil {
		t.Fatalf("expected error for unknown territory code")
	}
}

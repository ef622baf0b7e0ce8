package tilerefine

import "fmt"

// validate checks every invariant a refined tile must satisfy. It is the
// authoritative feasibility check: the household synthesizer assumes
// these already hold and aborts rather than repairing a violation.
func validate(t RefinedTile) error {
	fail := func(format string, args ...any) error {
		return &FeasibilityError{TileID: t.ID.String(), Reason: fmt.Sprintf(format, args...)}
	}

	if t.Ind < 1 {
		return fail("ind = %d, want >= 1", t.Ind)
	}
	if t.Men < 1 {
		return fail("men = %d, want >= 1", t.Men)
	}
	if t.Men > t.Ind {
		return fail("men = %d exceeds ind = %d", t.Men, t.Ind)
	}
	if sum := t.Bands.Sum(); sum != t.Ind {
		return fail("sum of age bands = %d, want ind = %d", sum, t.Ind)
	}
	if adults := t.Bands.AdultSum(); adults < t.Men {
		return fail("adult band sum = %d, want >= men = %d", adults, t.Men)
	}
	if t.Men1Ind+t.Men5Ind > t.Men {
		return fail("men_1ind(%d) + men_5ind(%d) exceeds men(%d)", t.Men1Ind, t.Men5Ind, t.Men)
	}
	if t.Men24 < 0 {
		return fail("men_24 = %d is negative", t.Men24)
	}
	if t.Men1Ind+2*t.Men24+5*t.Men5Ind > t.Ind {
		return fail("lower feasibility bound violated: men_1ind(%d)+2*men_24(%d)+5*men_5ind(%d) > ind(%d)",
			t.Men1Ind, t.Men24, t.Men5Ind, t.Ind)
	}
	if t.Men5Ind == 0 && t.Ind > t.Men1Ind+4*t.Men24 {
		return fail("upper feasibility bound violated: ind(%d) > men_1ind(%d)+4*men_24(%d) with men_5ind=0",
			t.Ind, t.Men1Ind, t.Men24)
	}
	return nil
}

package version

import "testing"

func TestParseOperators(t *testing.T) {
	cases := []struct {
		s        string
		matches  string
		excludes string
	}{
		{"==1.2.3", "1.2.3", "1.2.4"},
		{">=1.2.3", "1.2.3", "1.2.2"},
		{"<=1.2.3", "1.2.3", "1.2.4"},
		{">1.2.3", "1.2.4", "1.2.3"},
		{"<1.2.3", "1.2.2", "1.2.3"},
		{"*", "0.0.1", ""},
	}

	for _, c := range cases {
		cons, err := ParseConstraint(c.s)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", c.s, err)
		}
		if !cons.Matches(MustParse(c.matches)) {
			t.Errorf("%s should match %s", c.s, c.matches)
		}
		if c.excludes != "" && cons.Matches(MustParse(c.excludes)) {
			t.Errorf("%s should not match %s", c.s, c.excludes)
		}
	}
}

func TestTildeIsCompatibleWithMinor(t *testing.T) {
	cons, err := ParseConstraint("~>1.2.0")
	if err != nil {
		t.Fatal(err)
	}
	if !cons.Matches(MustParse("1.2.9")) {
		t.Error("~>1.2.0 should match 1.2.9")
	}
	if cons.Matches(MustParse("1.3.0")) {
		t.Error("~>1.2.0 should not match 1.3.0")
	}
	if cons.Matches(MustParse("1.1.9")) {
		t.Error("~>1.2.0 should not match 1.1.9")
	}
}

func TestTildeStringRoundTrips(t *testing.T) {
	cons, err := ParseConstraint("~>1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	s := cons.String()
	if s != "~>1.2.3" {
		t.Fatalf("expected String() to re-emit the tilde form, got %q", s)
	}

	reparsed, err := ParseConstraint(s)
	if err != nil {
		t.Fatalf("ParseConstraint(%q) (round trip of %s): %v", s, cons, err)
	}
	for _, v := range []string{"1.2.3", "1.2.9", "1.3.0", "1.1.9"} {
		pv := MustParse(v)
		if cons.Matches(pv) != reparsed.Matches(pv) {
			t.Errorf("round trip changed behavior at %s: original=%v reparsed=%v", v, cons.Matches(pv), reparsed.Matches(pv))
		}
	}
}

func TestIntersectDisjointIsEmpty(t *testing.T) {
	a, _ := ParseConstraint(">=2.0.0")
	b, _ := ParseConstraint("<1.0.0")
	got := a.Intersect(b)
	if got.Valid() {
		t.Errorf("intersection of %s and %s should be invalid, got %s", a, b, got)
	}
}

func TestIntersectOverlapping(t *testing.T) {
	a, _ := ParseConstraint(">=1.0.0")
	b, _ := ParseConstraint("<=2.0.0")
	got := a.Intersect(b)
	if !got.Valid() {
		t.Fatalf("intersection of %s and %s should be valid", a, b)
	}
	if !got.Matches(MustParse("1.5.0")) {
		t.Error("expected 1.5.0 to satisfy the intersection")
	}
	if got.Matches(MustParse("2.0.1")) {
		t.Error("did not expect 2.0.1 to satisfy the intersection")
	}
}

func TestIntersectIsAssociative(t *testing.T) {
	a, _ := ParseConstraint(">=1.0.0")
	b, _ := ParseConstraint("<=2.0.0")
	c, _ := ParseConstraint(">=0.5.0")

	left := a.Intersect(b).Intersect(c)
	right := a.Intersect(b.Intersect(c))

	for _, v := range []string{"0.4.0", "0.6.0", "1.5.0", "2.5.0"} {
		pv := MustParse(v)
		if left.Matches(pv) != right.Matches(pv) {
			t.Errorf("associativity violated at %s: left=%v right=%v", v, left.Matches(pv), right.Matches(pv))
		}
	}
}

func TestAnyIsIdentityForIntersect(t *testing.T) {
	a, _ := ParseConstraint(">=1.0.0")
	if a.Intersect(Any()).String() != a.String() {
		t.Errorf("Any() should be the identity element for Intersect, got %s", a.Intersect(Any()))
	}
}

func TestEmptyIsAbsorbing(t *testing.T) {
	a, _ := ParseConstraint(">=1.0.0")
	if a.Intersect(Empty()).Valid() {
		t.Error("Empty() should absorb any constraint under Intersect")
	}
}

package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fabricfw/modkeeper/version"
)

func mustParseVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	if err != nil {
		t.Fatalf("version.Parse(%q): %v", s, err)
	}
	return v
}

func TestReadWriteRoundTrip(t *testing.T) {
	in := `{
		"name": "app",
		"version": "0.0.1",
		"dependencies": {"libA": ">=1.0.0"},
		"unknown_key": "ignored"
	}`

	d, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if d.Name != "app" || d.Version.String() != "0.0.1" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if len(d.Dependencies) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(d.Dependencies))
	}

	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		t.Fatalf("Write: %v", err)
	}

	d2, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read round-trip: %v", err)
	}
	if d2.Name != d.Name || d2.Version.String() != d.Version.String() {
		t.Errorf("round-trip mismatch: got %+v, want %+v", d2, d)
	}
	if d2.Dependencies["libA"].String() != d.Dependencies["libA"].String() {
		t.Errorf("dependency constraint mismatch after round-trip")
	}
}

func TestReadWriteRoundTripTilde(t *testing.T) {
	in := `{"name": "app", "version": "0.0.1", "dependencies": {"libA": "~>1.2.3"}}`

	d, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		t.Fatalf("Write: %v", err)
	}

	d2, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read round-trip of a ~> dependency: %v", err)
	}
	if d2.Dependencies["libA"].String() != d.Dependencies["libA"].String() {
		t.Errorf("~> constraint did not round-trip: got %s, want %s",
			d2.Dependencies["libA"], d.Dependencies["libA"])
	}
	if !d2.Dependencies["libA"].Matches(mustParseVersion(t, "1.2.9")) {
		t.Error("round-tripped ~>1.2.3 should still match 1.2.9")
	}
	if d2.Dependencies["libA"].Matches(mustParseVersion(t, "1.3.0")) {
		t.Error("round-tripped ~>1.2.3 should not match 1.3.0")
	}
}

func TestReadMissingName(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": "1.0.0"}`))
	if err == nil {
		t.Error("expected an error for a manifest missing \"name\"")
	}
}

func TestReadMissingVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`{"name": "app"}`))
	if err == nil {
		t.Error("expected an error for a manifest missing \"version\"")
	}
}

func TestReadDefaultsToUniversalConstraint(t *testing.T) {
	d, err := Read(strings.NewReader(`{"name":"app","version":"1.0.0","dependencies":{"libA":"*"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Dependencies["libA"].Matches(d.Version) {
		t.Error("universal constraint should match any version")
	}
}

package vcssupplier

import (
	"testing"

	"github.com/fabricfw/modkeeper/version"
)

func TestBestTagForPicksHighestSatisfying(t *testing.T) {
	tags := []string{"v1.0.0", "v1.2.0", "v2.0.0", "not-a-version"}
	lower, _ := version.ParseConstraint(">=1.0.0")
	upper, _ := version.ParseConstraint("<2.0.0")
	constraint := lower.Intersect(upper)

	tag, v := bestTagFor(tags, constraint)
	if tag != "v1.2.0" {
		t.Fatalf("expected v1.2.0, got %q", tag)
	}
	if v.String() != "1.2.0" {
		t.Fatalf("expected version 1.2.0, got %s", v)
	}
}

func TestBestTagForNoMatchReturnsEmpty(t *testing.T) {
	tags := []string{"v1.0.0"}
	constraint, _ := version.ParseConstraint(">=2.0.0")

	tag, _ := bestTagFor(tags, constraint)
	if tag != "" {
		t.Fatalf("expected no match, got %q", tag)
	}
}

func TestBestTagForSkipsUnparsableTags(t *testing.T) {
	tags := []string{"release-candidate", "v1.5.0"}
	constraint, _ := version.ParseConstraint("*")

	tag, v := bestTagFor(tags, constraint)
	if tag != "v1.5.0" || v.String() != "1.5.0" {
		t.Fatalf("expected v1.5.0, got %q/%s", tag, v)
	}
}

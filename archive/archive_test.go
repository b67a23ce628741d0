package archive

import "testing"

func TestPrefixUsesUniqueManifestMember(t *testing.T) {
	members := []Member{
		{Path: "libA-1.2.0/package.json", Kind: File},
		{Path: "libA-1.2.0/source/main.d", Kind: File},
		{Path: "libA-1.2.0/source", Kind: Dir},
	}
	if got := Prefix(members); got != "libA-1.2.0" {
		t.Errorf("expected prefix libA-1.2.0, got %q", got)
	}
}

func TestPrefixNoManifestFallsBackToCommonAncestor(t *testing.T) {
	members := []Member{
		{Path: "libA-1.2.0/source/main.d", Kind: File},
		{Path: "libA-1.2.0/source/helper.d", Kind: File},
		{Path: "libA-1.2.0/views/index.d", Kind: File},
	}
	if got := Prefix(members); got != "libA-1.2.0" {
		t.Errorf("expected common ancestor libA-1.2.0, got %q", got)
	}
}

func TestPrefixMultipleManifestsFallsBackToCommonAncestor(t *testing.T) {
	members := []Member{
		{Path: "libA-1.2.0/package.json", Kind: File},
		{Path: "libA-1.2.0/vendor/other/package.json", Kind: File},
	}
	if got := Prefix(members); got != "libA-1.2.0" {
		t.Errorf("expected common ancestor libA-1.2.0, got %q", got)
	}
}

func TestPrefixTopLevelManifestIsEmptyPrefix(t *testing.T) {
	members := []Member{
		{Path: "package.json", Kind: File},
		{Path: "source/main.d", Kind: File},
	}
	if got := Prefix(members); got != "" {
		t.Errorf("expected empty prefix for a top-level manifest, got %q", got)
	}
}

func TestNormalizePathConvertsBackslashes(t *testing.T) {
	if got := NormalizePath(`libA\source\main.d`); got != "libA/source/main.d" {
		t.Errorf("got %q", got)
	}
}

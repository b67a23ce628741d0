package journal

import (
	"bytes"
	"testing"
)

func TestAppendIsIdempotentPerInstall(t *testing.T) {
	j := New()
	j.Append(Directory, "source")
	j.Append(Directory, "source")
	if len(j.Directories()) != 1 {
		t.Errorf("expected a single directory entry, got %d", len(j.Directories()))
	}
}

func TestSealAppendsSelfEntry(t *testing.T) {
	j := New()
	j.Append(RegularFile, "source/main.d")
	j.Seal()

	entries := j.Entries()
	last := entries[len(entries)-1]
	if last.Kind != RegularFile || last.Path != FileName {
		t.Errorf("expected journal to seal with {RegularFile, %q}, got %+v", FileName, last)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	j := New()
	j.Append(Directory, "source")
	j.Append(RegularFile, "source/main.d")
	j.Seal()

	var buf bytes.Buffer
	if err := Save(&buf, j); err != nil {
		t.Fatalf("Save: %v", err)
	}

	j2, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	e1, e2 := j.Entries(), j2.Entries()
	if len(e1) != len(e2) {
		t.Fatalf("round-trip entry count mismatch: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if e1[i] != e2[i] {
			t.Errorf("entry %d mismatch: %+v vs %+v", i, e1[i], e2[i])
		}
	}
}

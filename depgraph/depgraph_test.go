package depgraph

import (
	"testing"

	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/version"
)

func desc(name, ver string, deps map[string]string) *manifest.Descriptor {
	d := &manifest.Descriptor{
		Name:         name,
		Version:      version.MustParse(ver),
		Dependencies: make(map[string]version.Constraint),
	}
	for n, c := range deps {
		parsed, err := version.ParseConstraint(c)
		if err != nil {
			panic(err)
		}
		d.Dependencies[n] = parsed
	}
	return d
}

func TestInsertCreatesMissingDependencyNode(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": ">=1.0.0"}))

	m := g.Missing()
	if len(m) != 1 || m[0].Name != "libA" {
		t.Fatalf("expected libA missing, got %+v", m)
	}
}

func TestInsertResolvesMissingAndAppearsInNeeded(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": ">=1.0.0"}))
	g.Insert(desc("libA", "1.2.0", nil))

	if len(g.Missing()) != 0 {
		t.Fatalf("expected no missing names, got %+v", g.Missing())
	}
	needed := g.Needed()
	var found bool
	for _, n := range needed {
		if n.Name == "libA" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected libA in needed, got %+v", needed)
	}
}

func TestConflictedWhenConstraintsDisjoint(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": "*", "libC": "*"}))
	g.Insert(desc("libA", "1.0.0", map[string]string{"libB": ">=2.0.0"}))
	g.Insert(desc("libC", "1.0.0", map[string]string{"libB": "<2.0.0"}))

	conflicts := g.Conflicted()
	if len(conflicts) != 1 || conflicts[0].Name != "libB" {
		t.Fatalf("expected libB conflicted, got %+v", conflicts)
	}
	if len(conflicts[0].Issuers) != 2 {
		t.Fatalf("expected two issuers on libB's conflict, got %+v", conflicts[0].Issuers)
	}
}

func TestReinsertSameVersionIsNoop(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": "*"}))
	d1 := desc("libA", "1.0.0", map[string]string{"libB": ">=1.0.0"})
	g.Insert(d1)
	g.Insert(desc("libA", "1.0.0", nil)) // same version, different deps map

	// Because the second insert is treated as a no-op, libB's edge from
	// the first insert must still be present.
	m := g.Missing()
	var sawB bool
	for _, entry := range m {
		if entry.Name == "libB" {
			sawB = true
		}
	}
	if !sawB {
		t.Fatalf("expected libB still missing after no-op reinsert, got %+v", m)
	}
}

func TestReinsertDifferentVersionReplacesDescriptor(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": "*"}))
	g.Insert(desc("libA", "1.0.0", nil))
	g.Insert(desc("libA", "2.0.0", map[string]string{"libB": ">=1.0.0"}))

	for _, n := range g.Needed() {
		if n.Name == "libA" && n.Descriptor.Version.String() != "2.0.0" {
			t.Fatalf("expected libA to be replaced with 2.0.0, got %s", n.Descriptor.Version)
		}
	}
	m := g.Missing()
	if len(m) != 1 || m[0].Name != "libB" {
		t.Fatalf("expected libB missing after replacement edges asserted, got %+v", m)
	}
}

func TestClearUnusedRemovesUnreachableNodes(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": "*"}))
	g.Insert(desc("libA", "1.0.0", nil))
	// app no longer depends on libA.
	g.Insert(desc("app", "0.0.2", nil))
	g.ClearUnused()

	if len(g.Unused()) != 0 {
		t.Fatalf("expected no unused names after clearing, got %+v", g.Unused())
	}
	if _, ok := g.nodes["libA"]; ok {
		t.Fatalf("expected libA removed from node set")
	}
}

func TestClearUnusedIsIdempotent(t *testing.T) {
	g := New(desc("app", "0.0.1", nil))
	g.Insert(desc("libA", "1.0.0", nil))
	g.ClearUnused()
	before := len(g.nodes)
	g.ClearUnused()
	if len(g.nodes) != before {
		t.Fatalf("expected second ClearUnused to be a no-op, got %d vs %d nodes", len(g.nodes), before)
	}
}

func TestRootNeverRemovedByClearUnused(t *testing.T) {
	g := New(desc("app", "0.0.1", nil))
	g.ClearUnused()
	if len(g.Needed()) != 1 || g.Needed()[0].Name != "app" {
		t.Fatalf("expected root to survive ClearUnused, got %+v", g.Needed())
	}
}

// TestPartitionInvariant exercises spec invariant 1: missing ∪
// conflicted ∪ needed partitions all reachable names.
func TestPartitionInvariant(t *testing.T) {
	g := New(desc("app", "0.0.1", map[string]string{"libA": "*", "libC": "*", "libD": ">=1.0.0"}))
	g.Insert(desc("libA", "1.0.0", map[string]string{"libB": ">=2.0.0"}))
	g.Insert(desc("libC", "1.0.0", map[string]string{"libB": "<2.0.0"}))
	// libD stays missing; libB is conflicted.

	seen := map[string]int{}
	for _, m := range g.Missing() {
		seen[m.Name]++
	}
	for _, c := range g.Conflicted() {
		seen[c.Name]++
	}
	for _, n := range g.Needed() {
		seen[n.Name]++
	}

	for name, count := range seen {
		if count != 1 {
			t.Errorf("expected %s to appear in exactly one partition, appeared in %d", name, count)
		}
	}
	if seen["libD"] != 1 || seen["libB"] != 1 || seen["app"] != 1 {
		t.Fatalf("expected libD, libB, app each accounted for once, got %+v", seen)
	}
}

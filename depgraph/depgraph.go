// Package depgraph maintains the evolving resolution state for a single
// resolve call: one node per package name, with edges recorded as
// (issuer-name, Constraint) pairs inside the target node rather than as
// direct node-to-node references. Keying nodes by name, not pointer,
// keeps the naturally cyclic dependency graph trivial to mutate and prune
// (golang-dep's selection.go takes the same name-keyed approach for its
// own dependency bookkeeping).
//
// Graph exposes exactly insert, clearUnused, and the derived-view
// readers; every derived view is recomputed on each call, never cached,
// so the resolver's progress check always sees live state.
package depgraph

import (
	"sort"

	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/version"
)

// Edge is a single issuer's constraint on a dependency.
type Edge struct {
	Issuer     string
	Constraint version.Constraint
}

// Node is a single named package's resolution state: its descriptor, if
// one has been fetched, and the incoming edges contributed by every
// package that currently depends on it.
type Node struct {
	Name       string
	Descriptor *manifest.Descriptor
	Incoming   []Edge
}

// intersected returns the combined Constraint of every incoming edge.
func (n *Node) intersected() version.Constraint {
	c := version.Any()
	for _, e := range n.Incoming {
		c = c.Intersect(e.Constraint)
	}
	return c
}

func (n *Node) setEdge(issuer string, c version.Constraint) {
	for i := range n.Incoming {
		if n.Incoming[i].Issuer == issuer {
			n.Incoming[i].Constraint = c
			return
		}
	}
	n.Incoming = append(n.Incoming, Edge{Issuer: issuer, Constraint: c})
}

// Graph is the resolver's working dependency graph. The zero value is
// not usable; construct one with New, seeded with the root descriptor.
type Graph struct {
	root  string
	nodes map[string]*Node
}

// New returns a Graph seeded with root's descriptor already inserted and
// marked as the root: clearUnused will never remove it.
func New(root *manifest.Descriptor) *Graph {
	g := &Graph{root: root.Name, nodes: make(map[string]*Node)}
	g.Insert(root)
	return g
}

// Insert attaches a descriptor to the node of that name, creating the
// node if absent. Re-inserting the same (name, version) is a no-op.
// Inserting a different version replaces the descriptor and re-asserts
// the descriptor's own outgoing edges (on the dependency targets'
// incoming-edge lists, issued by this name).
func (g *Graph) Insert(d *manifest.Descriptor) {
	n, exists := g.nodes[d.Name]
	if !exists {
		n = &Node{Name: d.Name}
		g.nodes[d.Name] = n
	}
	if exists && n.Descriptor != nil && version.Equal(n.Descriptor.Version, d.Version) {
		return
	}
	n.Descriptor = d

	for depName, c := range d.Dependencies {
		target, exists := g.nodes[depName]
		if !exists {
			target = &Node{Name: depName}
			g.nodes[depName] = target
		}
		target.setEdge(d.Name, c)
	}
}

// ClearUnused removes every node unreachable from the root (and,
// implicitly, the edges those nodes contributed to their own
// dependencies, since the nodes themselves are discarded). The root
// node is never removed. Idempotent: a second call with no intervening
// Insert removes nothing further.
func (g *Graph) ClearUnused() {
	reachable := g.reachableFromRoot()
	for name := range g.nodes {
		if !reachable[name] {
			delete(g.nodes, name)
		}
	}
	// Drop edges issued by names no longer present, so a pruned node's
	// contribution to a survivor's incoming set disappears too.
	for _, n := range g.nodes {
		kept := n.Incoming[:0]
		for _, e := range n.Incoming {
			if _, ok := g.nodes[e.Issuer]; ok || e.Issuer == g.root {
				kept = append(kept, e)
			}
		}
		n.Incoming = kept
	}
}

func (g *Graph) reachableFromRoot() map[string]bool {
	seen := map[string]bool{g.root: true}
	queue := []string{g.root}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		n, ok := g.nodes[name]
		if !ok || n.Descriptor == nil {
			continue
		}
		for depName := range n.Descriptor.Dependencies {
			if !seen[depName] {
				seen[depName] = true
				queue = append(queue, depName)
			}
		}
	}
	return seen
}

// MissingEntry describes one name referenced by the graph but not yet
// resolved to a descriptor: the intersected Constraint of all its
// incoming edges, and the issuers that contributed them.
type MissingEntry struct {
	Name       string
	Constraint version.Constraint
	Issuers    []string
}

// Missing returns every reachable node with no attached descriptor whose
// incoming constraints still intersect to a valid constraint, sorted by
// name for deterministic iteration. A descriptor-less node whose
// constraints conflict is reported by Conflicted instead, so the two
// views never overlap.
func (g *Graph) Missing() []MissingEntry {
	reachable := g.reachableFromRoot()
	var out []MissingEntry
	for name, n := range g.nodes {
		if !reachable[name] || n.Descriptor != nil {
			continue
		}
		c := n.intersected()
		if !c.Valid() {
			continue
		}
		out = append(out, MissingEntry{
			Name:       name,
			Constraint: c,
			Issuers:    issuerNames(n.Incoming),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ConflictEntry describes a name whose incoming edges intersect to the
// empty constraint.
type ConflictEntry struct {
	Name    string
	Issuers []string
}

// Conflicted returns every reachable node whose incoming constraints
// have no common intersection, sorted by name.
func (g *Graph) Conflicted() []ConflictEntry {
	reachable := g.reachableFromRoot()
	var out []ConflictEntry
	for name, n := range g.nodes {
		if !reachable[name] || len(n.Incoming) == 0 {
			continue
		}
		if !n.intersected().Valid() {
			out = append(out, ConflictEntry{Name: name, Issuers: issuerNames(n.Incoming)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NeededEntry describes a resolved, satisfied dependency: a name
// reachable from the root whose descriptor's version satisfies the
// intersected constraint contributed by its issuers.
type NeededEntry struct {
	Name       string
	Descriptor *manifest.Descriptor
	Constraint version.Constraint
}

// Needed returns every reachable, resolved, non-conflicted node, sorted
// by name.
func (g *Graph) Needed() []NeededEntry {
	reachable := g.reachableFromRoot()
	var out []NeededEntry
	for name, n := range g.nodes {
		if !reachable[name] || n.Descriptor == nil {
			continue
		}
		c := n.intersected()
		if name == g.root {
			out = append(out, NeededEntry{Name: name, Descriptor: n.Descriptor, Constraint: c})
			continue
		}
		if c.Valid() && c.Matches(n.Descriptor.Version) {
			out = append(out, NeededEntry{Name: name, Descriptor: n.Descriptor, Constraint: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unused returns the names of nodes not reachable from the root, given
// the graph's current edge set. ClearUnused makes this always empty
// immediately after it runs; Unused is useful between resolver
// iterations, before pruning.
func (g *Graph) Unused() []string {
	reachable := g.reachableFromRoot()
	var out []string
	for name := range g.nodes {
		if !reachable[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func issuerNames(edges []Edge) []string {
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = e.Issuer
	}
	sort.Strings(names)
	return names
}

// Package planner diffs a resolved dependency graph against the
// application's currently installed modules and produces an ordered
// list of Actions for the installer to execute: uninstalls before
// installs, each group sorted by name for determinism.
package planner

import (
	"sort"

	"github.com/fabricfw/modkeeper/appview"
	"github.com/fabricfw/modkeeper/depgraph"
	"github.com/fabricfw/modkeeper/version"
)

// Kind identifies what an Action asks the installer/uninstaller to do.
type Kind string

// Recognized Action kinds.
const (
	InstallUpdate Kind = "InstallUpdate"
	Uninstall     Kind = "Uninstall"
	Conflict      Kind = "Conflict"
	Failure       Kind = "Failure"
)

// Action is a single planned step.
type Action struct {
	Kind       Kind
	Name       string
	Constraint version.Constraint
	// Issuers names each package that contributed a constraint on Name,
	// for diagnostic reporting on Conflict and Failure actions. Every
	// issuer maps to the intersection of all issuers' constraints (the
	// Empty constraint for a Conflict), not to its own individual
	// constraint.
	Issuers map[string]version.Constraint
}

// Plan applies the three ordered planning rules (gather-failed beats
// conflict beats install/uninstall diff) and returns the resulting
// Action list.
func Plan(graph *depgraph.Graph, app *appview.State, gatherFailed bool) []Action {
	if gatherFailed {
		return failureActions(graph)
	}
	if conflicts := graph.Conflicted(); len(conflicts) > 0 {
		return conflictActions(conflicts)
	}
	return diffActions(graph, app)
}

func failureActions(graph *depgraph.Graph) []Action {
	missing := graph.Missing()
	actions := make([]Action, len(missing))
	for i, m := range missing {
		actions[i] = Action{
			Kind:       Failure,
			Name:       m.Name,
			Constraint: m.Constraint,
			Issuers:    issuerConstraints(m.Issuers, m.Constraint),
		}
	}
	return actions
}

func conflictActions(conflicts []depgraph.ConflictEntry) []Action {
	actions := make([]Action, len(conflicts))
	for i, c := range conflicts {
		actions[i] = Action{
			Kind:    Conflict,
			Name:    c.Name,
			Issuers: issuerConstraints(c.Issuers, version.Empty()),
		}
	}
	return actions
}

// issuerConstraints is a best-effort diagnostic map: the graph's derived
// views report issuer names but not each issuer's individual constraint
// (only the intersection), so every issuer is recorded against the
// intersected constraint. This is sufficient for reporting "who is
// involved", the documented purpose of Action.Issuers.
func issuerConstraints(issuers []string, intersected version.Constraint) map[string]version.Constraint {
	m := make(map[string]version.Constraint, len(issuers))
	for _, name := range issuers {
		m[name] = intersected
	}
	return m
}

// diffActions computes install_set and uninstall_set. A stale installed
// version counts as both: its directory must be uninstalled before the
// satisfying version can be installed in its place, since the installer
// refuses to materialize over an existing module directory.
func diffActions(graph *depgraph.Graph, app *appview.State) []Action {
	needed := graph.Needed()
	neededByName := make(map[string]depgraph.NeededEntry, len(needed))
	for _, n := range needed {
		neededByName[n.Name] = n
	}

	var installNames, uninstallNames []string

	for name, n := range neededByName {
		if name == app.Main.Name {
			continue
		}
		installed, ok := app.Installed[name]
		if !ok || !n.Constraint.Matches(installed.Version) {
			installNames = append(installNames, name)
		}
	}

	for name, installed := range app.Installed {
		if name == app.Main.Name {
			continue
		}
		n, stillNeeded := neededByName[name]
		if !stillNeeded || !n.Constraint.Matches(installed.Version) {
			uninstallNames = append(uninstallNames, name)
		}
	}

	sort.Strings(installNames)
	sort.Strings(uninstallNames)

	actions := make([]Action, 0, len(installNames)+len(uninstallNames))
	for _, name := range uninstallNames {
		actions = append(actions, Action{Kind: Uninstall, Name: name})
	}
	for _, name := range installNames {
		n := neededByName[name]
		actions = append(actions, Action{Kind: InstallUpdate, Name: name, Constraint: n.Constraint})
	}
	return actions
}

// Package resolver implements the resolver loop (spec's dependency
// resolution core): starting from the application's main descriptor, it
// interleaves depgraph constraint propagation with supplier fetches
// until the graph reaches a fixpoint, either because nothing is missing
// or because two consecutive iterations made no progress.
//
// The loop's shape mirrors golang-dep's own solver.Solve iteration
// (queue missing, fetch, insert, re-check) but without that solver's
// backtracking: this resolver is deliberately first-fit, per the
// no-backtracking design note.
package resolver

import (
	"github.com/sirupsen/logrus"

	"github.com/fabricfw/modkeeper/depgraph"
	"github.com/fabricfw/modkeeper/manifest"
	"github.com/fabricfw/modkeeper/supplier"
)

// Result is the resolver's output: the graph at fixpoint, plus whether
// the loop gave up due to stalled progress on the missing set.
type Result struct {
	Graph        *depgraph.Graph
	GatherFailed bool
}

// Resolve seeds a graph with main and iterates the resolver loop against
// src until fixpoint. log defaults to the standard logger if nil.
func Resolve(main *manifest.Descriptor, src supplier.Supplier, log *logrus.Logger) *Result {
	if log == nil {
		log = logrus.StandardLogger()
	}

	g := depgraph.New(main)
	prevMissing := map[string]string{} // name -> constraint string, for the stall check

	for {
		missing := g.Missing()
		if len(missing) == 0 {
			log.Debug("resolver: missing set empty, resolution complete")
			break
		}

		if stalled(missing, prevMissing) {
			log.WithField("missing", missingNames(missing)).
				Warn("resolver: no progress across two consecutive iterations, giving up")
			return &Result{Graph: g, GatherFailed: true}
		}
		prevMissing = snapshot(missing)

		for _, m := range missing {
			if !m.Constraint.Valid() {
				log.WithFields(logrus.Fields{"name": m.Name, "constraint": m.Constraint}).
					Warn("resolver: skipping fetch for name with invalid intersected constraint")
				continue
			}

			desc, err := src.Manifest(m.Name, m.Constraint)
			if err != nil {
				log.WithFields(logrus.Fields{"name": m.Name, "error": err}).
					Warn("resolver: supplier failed to produce a manifest, will retry next iteration")
				continue
			}
			g.Insert(desc)
		}

		g.ClearUnused()
	}

	return &Result{Graph: g, GatherFailed: false}
}

func stalled(missing []depgraph.MissingEntry, prev map[string]string) bool {
	if len(prev) == 0 {
		return false
	}
	if len(missing) != len(prev) {
		return false
	}
	for _, m := range missing {
		c, ok := prev[m.Name]
		if !ok || c != m.Constraint.String() {
			return false
		}
	}
	return true
}

func snapshot(missing []depgraph.MissingEntry) map[string]string {
	snap := make(map[string]string, len(missing))
	for _, m := range missing {
		snap[m.Name] = m.Constraint.String()
	}
	return snap
}

func missingNames(missing []depgraph.MissingEntry) []string {
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = m.Name
	}
	return names
}

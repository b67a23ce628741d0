package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fabricfw/modkeeper/appctx"
	"github.com/fabricfw/modkeeper/appview"
	"github.com/fabricfw/modkeeper/archive/ziparchive"
	"github.com/fabricfw/modkeeper/installer"
	"github.com/fabricfw/modkeeper/planner"
	"github.com/fabricfw/modkeeper/resolver"
	"github.com/fabricfw/modkeeper/supplier"
)

const updateShortHelp = `Resolve and apply dependency changes for the application`
const updateLongHelp = `
Reads the application manifest and currently installed modules, resolves
the full dependency set against the configured supplier, and applies the
resulting uninstalls and installs. Finishes by re-emitting deps.txt.
`

type updateCommand struct {
	root     string
	cacheDir string
}

func (c *updateCommand) Name() string      { return "update" }
func (c *updateCommand) Args() string      { return "" }
func (c *updateCommand) ShortHelp() string { return updateShortHelp }
func (c *updateCommand) LongHelp() string  { return updateLongHelp }

func (c *updateCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.root, "root", "", "application root (default: "+appctx.RootEnvVar+" or cwd)")
	fs.StringVar(&c.cacheDir, "cache-dir", "", "supplier cache directory (default: "+appctx.CacheDirEnvVar+")")
}

// Run wires the core components together: Run itself performs no
// resolution logic, only composition, matching the spec's framing of
// the CLI as an external collaborator over the core.
func (c *updateCommand) Run(args []string, log *logrus.Logger) error {
	ctx, err := appctx.New(c.root, c.cacheDir)
	if err != nil {
		return err
	}

	state, err := appview.Load(ctx.Root, log)
	if err != nil {
		return err
	}

	src, closeSrc, err := buildSupplier(ctx, log)
	if err != nil {
		return err
	}
	defer closeSrc()

	result := resolver.Resolve(state.Main, src, log)
	actions := planner.Plan(result.Graph, state, result.GatherFailed)

	in := &installer.Installer{Root: ctx.Root, Src: src, Open: ziparchive.OpenAsDriver, Log: log}
	un := &installer.Uninstaller{Root: ctx.Root, Log: log}

	var failed int
	for _, a := range actions {
		switch a.Kind {
		case planner.Failure:
			log.WithField("name", a.Name).Error("update: resolution could not find a manifest for this name")
			failed++
		case planner.Conflict:
			log.WithField("name", a.Name).Error("update: conflicting constraints, no automatic resolution")
			failed++
		case planner.Uninstall:
			if err := un.Uninstall(a.Name); err != nil {
				log.WithFields(logrus.Fields{"name": a.Name, "error": err}).Error("update: uninstall failed")
				return err
			}
		case planner.InstallUpdate:
			if err := in.Install(a.Name, a.Constraint); err != nil {
				log.WithFields(logrus.Fields{"name": a.Name, "error": err}).Error("update: install failed")
				return err
			}
		}
	}

	if failed > 0 {
		return errors.Errorf("update: %d action(s) could not be satisfied", failed)
	}

	// The action loop above just mutated the modules directory; re-scan
	// it so deps.txt reflects what's actually installed now, not the
	// pre-update snapshot state was loaded from.
	finalState, err := appview.Load(ctx.Root, log)
	if err != nil {
		return err
	}
	return writeDepsFile(finalState)
}

func writeDepsFile(state *appview.State) error {
	f, err := os.Create(filepath.Join(state.Root, "deps.txt"))
	if err != nil {
		return errors.Wrap(err, "update: failed to write deps.txt")
	}
	defer f.Close()
	return appview.WriteDepsFile(f, state.IncludePaths(appview.SourceDir), state.IncludePaths(appview.ViewsDir))
}

// buildSupplier is a placeholder composition point: a real deployment
// supplies its own registry-backed or VCS-backed Supplier here. Without
// one configured, update fails fast rather than silently resolving
// nothing.
func buildSupplier(ctx *appctx.Context, log *logrus.Logger) (supplier.Supplier, func() error, error) {
	return nil, nil, fmt.Errorf("update: no supplier configured; wire a registry or VCS supplier in buildSupplier")
}

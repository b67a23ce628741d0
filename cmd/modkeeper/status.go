package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/fabricfw/modkeeper/appctx"
	"github.com/fabricfw/modkeeper/appview"
)

const statusShortHelp = `Report the application's currently installed modules`
const statusLongHelp = `
Prints every module installed beneath <root>/modules, its resolved
version, and the constraint declared against it in the application
manifest, if any.
`

type statusCommand struct {
	root string
}

func (c *statusCommand) Name() string      { return "status" }
func (c *statusCommand) Args() string      { return "" }
func (c *statusCommand) ShortHelp() string { return statusShortHelp }
func (c *statusCommand) LongHelp() string  { return statusLongHelp }

func (c *statusCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.root, "root", "", "application root (default: "+appctx.RootEnvVar+" or cwd)")
}

func (c *statusCommand) Run(args []string, log *logrus.Logger) error {
	ctx, err := appctx.New(c.root, "")
	if err != nil {
		return err
	}

	state, err := appview.Load(ctx.Root, log)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tVERSION\tCONSTRAINT")
	for name, mod := range state.Installed {
		constraint := "*"
		if c, ok := state.Main.Dependencies[name]; ok {
			constraint = c.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, mod.Version, constraint)
	}
	return w.Flush()
}

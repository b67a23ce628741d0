// Command modkeeper is a thin CLI surface over the core: it wires
// appctx -> appview -> resolver -> planner -> installer/uninstaller and
// reports the resulting action list. The command surface itself is an
// external collaborator to the core (out of scope per the core's own
// design); this binary exists only to make the core runnable end to
// end.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
)

var verbose = flag.Bool("v", false, "enable verbose logging")

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Run(args []string, log *logrus.Logger) error
}

func main() {
	commands := []command{
		&updateCommand{},
		&statusCommand{},
	}

	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage: modkeeper <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr)
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
		}
		w.Flush()
	}

	if len(os.Args) <= 1 || strings.ToLower(os.Args[1]) == "-h" || strings.ToLower(os.Args[1]) == "help" {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.Name() != os.Args[1] {
			continue
		}

		fs := flag.NewFlagSet(c.Name(), flag.ExitOnError)
		fs.BoolVar(verbose, "v", false, "enable verbose logging")
		c.Register(fs)
		resetUsage(fs, c.Name(), c.Args(), c.LongHelp())

		if err := fs.Parse(os.Args[2:]); err != nil {
			fs.Usage()
			os.Exit(1)
		}

		log := logrus.New()
		if *verbose {
			log.SetLevel(logrus.DebugLevel)
		}

		if err := c.Run(fs.Args(), log); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "%s: no such command\n", os.Args[1])
	usage()
	os.Exit(1)
}

func resetUsage(fs *flag.FlagSet, name, args, longHelp string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: modkeeper %s %s\n\n%s\n", name, args, strings.TrimSpace(longHelp))
	}
}

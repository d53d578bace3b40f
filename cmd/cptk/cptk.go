// Command cptk is a toolkit for inspecting and editing the archive,
// save, and object-system formats of the reverse-engineered game this
// module targets: list and extract RADR archives, verify their digests,
// walk the merged virtual tree they form, and load/diff/save CSAV
// containers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/pixelrick/cptk"
)

var (
	debug = flag.Bool("debug", false, "format error messages with additional detail")
	color = flag.String("color", "auto", "colorize output: auto, always, or never")
)

type verb struct {
	fn   func(ctx context.Context, args []string) error
	help string
}

func funcmain() error {
	flag.Parse()

	verbs := map[string]verb{
		"archive": {cmdArchive, "inspect RADR archives: ls, extract, verify"},
		"tree":    {cmdTree, "inspect the merged virtual file tree: build, ls, stat"},
		"csav":    {cmdCSAV, "inspect and edit CSAV save containers: load, save, diff"},
		"names":   {cmdNames, "resolve hashed names against the JSON name databases"},
	}

	args := flag.Args()
	if len(args) == 0 {
		usage(verbs)
		os.Exit(2)
	}
	verbName, rest := args[0], args[1:]
	if verbName == "help" {
		if len(rest) == 0 {
			usage(verbs)
			return nil
		}
		verbName = rest[0]
		rest = []string{"-help"}
	}
	v, ok := verbs[verbName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verbName)
		usage(verbs)
		os.Exit(2)
	}

	ctx, canc := cptk.InterruptibleContext()
	defer canc()
	if err := v.fn(ctx, rest); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verbName, err)
		}
		return fmt.Errorf("%s: %v", verbName, err)
	}
	return cptk.RunAtExit()
}

func usage(verbs map[string]verb) {
	fmt.Fprintf(os.Stderr, "cptk [-flags] <command> [-flags] <args>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	for _, name := range []string{"archive", "tree", "csav", "names"} {
		fmt.Fprintf(os.Stderr, "\t%-8s %s\n", name, verbs[name].help)
	}
	fmt.Fprintf(os.Stderr, "\nRun cptk help <command> for command-specific flags.\n")
}

// colorEnabled resolves the -color flag (auto, always or never) against
// whether stdout is a terminal. Only archive ls consults it, to highlight
// file IDs.
func colorEnabled() bool {
	switch *color {
	case "always":
		return true
	case "never":
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pixelrick/cptk/internal/ardb"
	"github.com/pixelrick/cptk/internal/respath"
	"github.com/pixelrick/cptk/internal/treefs"
)

func cmdTree(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cptk tree <build|ls|stat> [-flags] <args>")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "ls":
		return treeLs(rest)
	case "stat":
		return treeStat(rest)
	case "build":
		return treeBuild(rest)
	default:
		return fmt.Errorf("unknown tree subcommand %q", sub)
	}
}

// mountAll builds a TreeFS out of every .archive file given on the command
// line, each paired with a same-named .ardb file when one exists next to
// it on disk.
func mountAll(archivePaths []string) (*treefs.TreeFS, error) {
	t := treefs.New()
	for _, path := range archivePaths {
		var db *ardb.DB
		ardbPath := strings.TrimSuffix(path, ".archive") + ".ardb"
		if b, err := os.ReadFile(ardbPath); err == nil {
			parsed, err := ardb.Parse(b)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", ardbPath, err)
			}
			db = parsed
		}
		if err := t.LoadArchive(path, db); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func treeBuild(args []string) error {
	fset := flag.NewFlagSet("tree build", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() == 0 {
		return fmt.Errorf("usage: cptk tree build <archive>...")
	}
	t, err := mountAll(fset.Args())
	if err != nil {
		return err
	}
	fmt.Printf("mounted %d archive(s): %s\n", len(t.Mounts()), strings.Join(t.Mounts(), ", "))
	return nil
}

func treeLs(args []string) error {
	fset := flag.NewFlagSet("tree ls", flag.ExitOnError)
	dir := fset.String("dir", "", "directory path to list (default: root)")
	recursive := fset.Bool("r", false, "recurse into subdirectories")
	fset.Parse(args)
	if fset.NArg() == 0 {
		return fmt.Errorf("usage: cptk tree ls [-dir path] [-r] <archive>...")
	}
	t, err := mountAll(fset.Args())
	if err != nil {
		return err
	}

	pathID := respath.Root.ID()
	if *dir != "" {
		p, err := respath.New(*dir)
		if err != nil {
			return err
		}
		pathID = p.ID()
	}

	if *recursive {
		it, ok := t.NewRecursiveDirectoryIterator(pathID)
		if !ok {
			return fmt.Errorf("no such directory")
		}
		for e, ok := it.Next(); ok; e, ok = it.Next() {
			fmt.Printf("%-9s %s\n", e.Kind, e.Name)
		}
		return nil
	}
	it, ok := t.NewDirectoryIterator(pathID)
	if !ok {
		return fmt.Errorf("no such directory")
	}
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		fmt.Printf("%-9s %s\n", e.Kind, e.Name)
	}
	return nil
}

func treeStat(args []string) error {
	fset := flag.NewFlagSet("tree stat", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() < 2 {
		return fmt.Errorf("usage: cptk tree stat <path> <archive>...")
	}
	p, err := respath.New(fset.Arg(0))
	if err != nil {
		return err
	}
	t, err := mountAll(fset.Args()[1:])
	if err != nil {
		return err
	}
	st, ok := t.Stat(p.ID())
	if !ok {
		return fmt.Errorf("%s: not found", p)
	}
	fmt.Printf("%+v\n", st)
	return nil
}

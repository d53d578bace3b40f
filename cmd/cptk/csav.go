package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pixelrick/cptk/internal/csavtree"
)

func cmdCSAV(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cptk csav <load|save|diff> [-flags] <args>")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "load":
		return csavLoad(rest)
	case "save":
		return csavSave(rest)
	case "diff":
		return csavDiff(rest)
	default:
		return fmt.Errorf("unknown csav subcommand %q", sub)
	}
}

func loadCSAVFile(path string) (*csavtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csavtree.Load(f)
}

func csavLoad(args []string) error {
	fset := flag.NewFlagSet("csav load", flag.ExitOnError)
	progress := fset.Bool("progress", false, "print load progress checkpoints to stderr")
	fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("usage: cptk csav load [-progress] <save>")
	}

	f, err := os.Open(fset.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	var tree *csavtree.Tree
	if *progress {
		tree, err = csavtree.LoadWithProgress(f, func(frac float64) {
			fmt.Fprintf(os.Stderr, "loading: %3.0f%%\n", frac*100)
		})
	} else {
		tree, err = csavtree.Load(f)
	}
	if err != nil {
		return err
	}

	fmt.Printf("version: v1=%d v2=%d v3=%d suk=%q\n", tree.Version.V1, tree.Version.V2, tree.Version.V3, tree.Version.Suk)
	var count int
	tree.Root.Walk(func(*csavtree.Node) { count++ })
	fmt.Printf("%d node(s)\n", count)
	tree.Root.Walk(func(n *csavtree.Node) {
		fmt.Printf("%s (%d bytes)\n", n.Name, len(n.Data))
	})
	return nil
}

func csavSave(args []string) error {
	fset := flag.NewFlagSet("csav save", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: cptk csav save <in-save> <out-save>")
	}

	tree, err := loadCSAVFile(fset.Arg(0))
	if err != nil {
		return err
	}
	return csavtree.SaveToFile(tree, fset.Arg(1))
}

func csavDiff(args []string) error {
	fset := flag.NewFlagSet("csav diff", flag.ExitOnError)
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: cptk csav diff <save-a> <save-b>")
	}

	a, err := loadCSAVFile(fset.Arg(0))
	if err != nil {
		return fmt.Errorf("%s: %w", fset.Arg(0), err)
	}
	b, err := loadCSAVFile(fset.Arg(1))
	if err != nil {
		return fmt.Errorf("%s: %w", fset.Arg(1), err)
	}

	namesA := map[string][]byte{}
	a.Root.Walk(func(n *csavtree.Node) { namesA[n.Name] = n.Data })
	namesB := map[string][]byte{}
	b.Root.Walk(func(n *csavtree.Node) { namesB[n.Name] = n.Data })

	var diffs int
	for name, da := range namesA {
		db, ok := namesB[name]
		if !ok {
			fmt.Printf("- %s (only in %s)\n", name, fset.Arg(0))
			diffs++
			continue
		}
		if !bytes.Equal(da, db) {
			fmt.Printf("~ %s (%d bytes -> %d bytes)\n", name, len(da), len(db))
			diffs++
		}
	}
	for name := range namesB {
		if _, ok := namesA[name]; !ok {
			fmt.Printf("+ %s (only in %s)\n", name, fset.Arg(1))
			diffs++
		}
	}
	if diffs == 0 {
		fmt.Println("no differences")
	}
	return nil
}


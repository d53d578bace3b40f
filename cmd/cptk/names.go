package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/pixelrick/cptk/internal/names"
)

func cmdNames(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cptk names resolve [-db dir] <kind> <hash>")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "resolve":
		return namesResolve(rest)
	default:
		return fmt.Errorf("unknown names subcommand %q", sub)
	}
}

func namesResolve(args []string) error {
	fset := flag.NewFlagSet("names resolve", flag.ExitOnError)
	dbDir := fset.String("db", "db", "directory holding TweakDBIDs.json, CNames.json, CEnums.json, CFacts.json")
	fset.Parse(args)
	if fset.NArg() != 2 {
		return fmt.Errorf("usage: cptk names resolve [-db dir] <cname|tweakdbid> <hash>")
	}
	kind, hashStr := fset.Arg(0), fset.Arg(1)

	if _, err := names.LoadDatabases(*dbDir); err != nil {
		return err
	}
	hash, err := strconv.ParseUint(hashStr, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid hash %q: %w", hashStr, err)
	}

	switch kind {
	case "cname":
		if name, ok := names.LookupCName(hash); ok {
			fmt.Println(name)
		} else {
			fmt.Printf("<cname:%016x>\n", hash)
		}
	case "tweakdbid":
		id := names.TweakDBIDFromU64(hash)
		fmt.Println(id.Name())
	default:
		return fmt.Errorf("unknown name kind %q (want cname or tweakdbid)", kind)
	}
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"escabot/pkg/escalator"
	"escabot/pkg/store"
)

// openStore opens the state database, creating it on first use.
func openStore() (*store.Store, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(paths.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return store.OpenStore(paths.DBPath)
}

// parseTargets expands escalator arguments ("4-2", "7/9", "all") into the
// escalators they name, de-duplicated and in registry order.
func parseTargets(args []string) ([]escalator.Floors, error) {
	reg := escalator.Default()
	seen := make(map[escalator.Floors]bool)
	var out []escalator.Floors
	for _, arg := range args {
		in, err := escalator.ParseInput(arg, reg)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", arg, err)
		}
		for _, f := range in.Targets(reg) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	reg.Sort(out)
	return out, nil
}

func floorNames(floors []escalator.Floors) []string {
	out := make([]string, len(floors))
	for i, f := range floors {
		out[i] = f.String()
	}
	return out
}

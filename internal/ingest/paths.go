package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExpandPaths turns the arguments of a command line into input files.
// Directories expand to the *.json files they contain, glob patterns to their
// matches; anything else is passed through so that a missing file is reported
// by the pipeline rather than here.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", arg, err)
			}
			sort.Strings(matches)
			paths = append(paths, matches...)

		case err != nil && hasMeta(arg):
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", arg, err)
			}
			sort.Strings(matches)
			paths = append(paths, matches...)

		default:
			paths = append(paths, arg)
		}
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

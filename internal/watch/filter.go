package treewatch

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FilterOptions defines criteria for including/excluding files and directories.
type FilterOptions struct {
	Pattern       string   // Glob pattern for matching file base names
	IgnorePattern string   // Glob pattern for base names to skip (files and dirs)
	ExcludeDir    []string // Directory base-name patterns to exclude
	IncludeHidden bool     // Whether to include dot-files and dot-directories
	MinSize       int64    // Minimum file size in bytes
	MaxSize       int64    // Maximum file size in bytes
}

// PatternFilter builds a FilterFunc from opts. Directories are only
// subject to ExcludeDir, IgnorePattern and hidden-name checks so that files
// below them can still match Pattern. Names are compared in Unicode NFC.
func PatternFilter(opts FilterOptions) (FilterFunc, error) {
	patterns := append([]string{opts.Pattern, opts.IgnorePattern}, opts.ExcludeDir...)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	return func(_ context.Context, rel string, meta Metadata) (bool, error) {
		name := norm.NFC.String(path.Base(rel))

		if !opts.IncludeHidden && isHidden(name) {
			return false, nil
		}
		if opts.IgnorePattern != "" && match(opts.IgnorePattern, name) {
			return false, nil
		}
		if meta.IsDir() {
			for _, exclude := range opts.ExcludeDir {
				if match(exclude, name) {
					return false, nil
				}
			}
			return true, nil
		}

		if opts.Pattern != "" && !match(opts.Pattern, name) {
			return false, nil
		}
		if opts.MinSize > 0 && meta.Size < opts.MinSize {
			return false, nil
		}
		if opts.MaxSize > 0 && meta.Size > opts.MaxSize {
			return false, nil
		}
		return true, nil
	}, nil
}

func match(pattern, name string) bool {
	ok, _ := path.Match(norm.NFC.String(pattern), name)
	return ok
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

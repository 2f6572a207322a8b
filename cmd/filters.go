package cmd

import (
	"fmt"
	"strings"

	"github.com/TFMV/treewatch/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addFilterFlags registers the path filter flags on cmd and binds them under
// the prefix key, e.g. "watch.pattern".
func addFilterFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("pattern", "", "File pattern to match (e.g., *.go)")
	cmd.Flags().String("ignore", "", "File or directory pattern to ignore")
	cmd.Flags().StringSlice("exclude-dir", []string{}, "Directories to exclude (comma-separated)")
	cmd.Flags().Bool("include-hidden", false, "Include hidden files and directories")
	cmd.Flags().String("min-size", "", "Minimum file size (e.g. 10KB, 1MB)")
	cmd.Flags().String("max-size", "", "Maximum file size (e.g. 10KB, 1MB)")

	for _, name := range []string{"pattern", "ignore", "exclude-dir", "include-hidden", "min-size", "max-size"} {
		viper.BindPFlag(prefix+"."+name, cmd.Flags().Lookup(name))
	}
}

// filterFromFlags builds the path filter from the flags bound under prefix.
func filterFromFlags(prefix string) (watch.FilterFunc, error) {
	opts := watch.FilterOptions{
		Pattern:       viper.GetString(prefix + ".pattern"),
		IgnorePattern: viper.GetString(prefix + ".ignore"),
		ExcludeDir:    viper.GetStringSlice(prefix + ".exclude-dir"),
		IncludeHidden: viper.GetBool(prefix + ".include-hidden"),
	}

	if s := viper.GetString(prefix + ".min-size"); s != "" {
		size, err := parseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid min-size value: %w", err)
		}
		opts.MinSize = size
	}
	if s := viper.GetString(prefix + ".max-size"); s != "" {
		size, err := parseSize(s)
		if err != nil {
			return nil, fmt.Errorf("invalid max-size value: %w", err)
		}
		opts.MaxSize = size
	}

	return watch.PatternFilter(opts)
}

// parseSize parses a size string with support for KB, MB, GB, TB
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"KB", 1 << 10},
		{"MB", 1 << 20},
		{"GB", 1 << 30},
		{"TB", 1 << 40},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			s = strings.TrimSuffix(s, unit.suffix)
			break
		}
	}
	s = strings.TrimSuffix(s, "B")

	var value float64
	if _, err := fmt.Sscanf(s, "%f", &value); err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	return int64(value * float64(multiplier)), nil
}

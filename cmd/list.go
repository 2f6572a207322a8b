package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/TFMV/treewatch/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "Print the tree snapshot once",
	Long: `Build the snapshot of a directory tree without watching it and print it.

Examples:
  treewatch list /path/to/tree
  treewatch list --pattern="*.go" --exclude-dir=vendor .
  treewatch list --output=json /path/to/tree`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := targetDir(args)
		if err != nil {
			return err
		}
		return runList(cmd.Context(), cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("output", "text", "Output format (text|json)")
	listCmd.Flags().Int("concurrency", watch.DefaultConcurrentWalks, "Maximum concurrent directory walks")
	addFilterFlags(listCmd, "list")

	viper.BindPFlag("list.output", listCmd.Flags().Lookup("output"))
	viper.BindPFlag("list.concurrency", listCmd.Flags().Lookup("concurrency"))
}

// listEntry is one path of the snapshot as printed by list.
type listEntry struct {
	Path    string    `json:"path"`
	Kind    string    `json:"kind"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"last_modified"`
}

func runList(ctx context.Context, out io.Writer, dir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	output := viper.GetString("list.output")
	if output != "text" && output != "json" {
		return fmt.Errorf("invalid output format: %s", output)
	}

	logger := newLogger()
	defer logger.Sync()

	filter, err := filterFromFlags("list")
	if err != nil {
		return err
	}

	w, err := watch.New(dir,
		watch.WithWatch(false),
		watch.WithFilter(filter),
		watch.WithConcurrency(viper.GetInt("list.concurrency")),
		watch.WithLogger(logger),
		watch.WithErrorHandler(func(err error) {
			logger.Warn("list error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}
	if err := w.Init(ctx); err != nil {
		return err
	}
	defer w.Close()

	return writeSnapshot(out, output, w.Paths())
}

// writeSnapshot prints paths in sorted order.
func writeSnapshot(out io.Writer, output string, paths map[string]watch.Metadata) error {
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	if output == "json" {
		entries := make([]listEntry, 0, len(keys))
		for _, p := range keys {
			m := paths[p]
			entries = append(entries, listEntry{
				Path:    p,
				Kind:    m.Kind.String(),
				Size:    m.Size,
				Mode:    m.Mode.String(),
				ModTime: m.ModTime,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, p := range keys {
		m := paths[p]
		switch m.Kind {
		case watch.KindDirectory:
			fmt.Fprintf(out, "%s/\n", p)
		default:
			fmt.Fprintf(out, "%s (%d bytes)\n", p, m.Size)
		}
	}
	return nil
}

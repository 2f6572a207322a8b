package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/TFMV/treewatch/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a directory tree for changes",
	Long: `Watch a directory tree and report every settled change to it.

Events are debounced per path: a burst of writes to one file is reported once.
Deleting a directory reports a delete for everything that was under it.

Examples:
  treewatch watch /path/to/watch
  treewatch watch --pattern="*.go" --format="{base} was {event} at {time}" /path/to/watch
  treewatch watch --exec="echo Changed: {}" --debounce=100ms /path/to/watch
  treewatch watch --exclude-dir=node_modules,.git --timeout=1h /path/to/watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := targetDir(args)
		if err != nil {
			return err
		}
		return runWatch(cmd.Context(), cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed path is reported")
	watchCmd.Flags().Int("concurrency", watch.DefaultConcurrentWalks, "Maximum concurrent directory walks")
	watchCmd.Flags().String("exec", "", "Command to execute when an event occurs")
	watchCmd.Flags().String("format", "", "Format string for output")
	watchCmd.Flags().Bool("json", false, "Print events as JSON lines")
	watchCmd.Flags().Duration("timeout", 0, "Duration to watch before exiting (e.g., 1h, 30m)")
	addFilterFlags(watchCmd, "watch")

	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))
	viper.BindPFlag("watch.concurrency", watchCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("watch.exec", watchCmd.Flags().Lookup("exec"))
	viper.BindPFlag("watch.format", watchCmd.Flags().Lookup("format"))
	viper.BindPFlag("watch.json", watchCmd.Flags().Lookup("json"))
	viper.BindPFlag("watch.timeout", watchCmd.Flags().Lookup("timeout"))
}

func runWatch(ctx context.Context, out io.Writer, dir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := viper.GetDuration("watch.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := newLogger()
	defer logger.Sync()

	filter, err := filterFromFlags("watch")
	if err != nil {
		return err
	}

	w, err := watch.New(dir,
		watch.WithFilter(filter),
		watch.WithDebounce(viper.GetDuration("watch.debounce")),
		watch.WithConcurrency(viper.GetInt("watch.concurrency")),
		watch.WithLogger(logger),
		watch.WithErrorHandler(func(err error) {
			logger.Warn("watch error", zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	events := make(chan watch.Event, 256)
	w.OnEvent(func(ev watch.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})

	if err := w.Init(ctx); err != nil {
		return fmt.Errorf("error watching directory: %w", err)
	}
	defer w.Close()

	if !viper.GetBool("silent") {
		fmt.Fprintf(os.Stderr, "Watching %s (%d paths) for changes...\n", w.Root(), w.Len())
		fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit.")
	}

	report := eventPrinter(ctx, out, logger, w.Root())
	for {
		select {
		case <-ctx.Done():
			s := w.Stats()
			logger.Info("watch stopped",
				zap.Int64("raw_events", s.RawEvents),
				zap.Int64("changes", s.Changes),
				zap.Int64("deletes", s.Deletes),
				zap.Int64("errors", s.Errors))
			return nil
		case ev := <-events:
			report(ev)
		}
	}
}

// eventPrinter picks the output mode from the flags: --exec, --format,
// --json, or a plain "event path" line.
func eventPrinter(ctx context.Context, out io.Writer, logger *zap.Logger, root string) func(watch.Event) {
	execCmd := viper.GetString("watch.exec")
	format := viper.GetString("watch.format")
	asJSON := viper.GetBool("watch.json")
	enc := json.NewEncoder(out)

	return func(ev watch.Event) {
		msg := newEventMessage(root, ev)
		switch {
		case execCmd != "":
			if err := executeCommand(ctx, out, execCmd, msg); err != nil {
				logger.Warn("command failed", zap.String("path", msg.Path), zap.Error(err))
			}
		case format != "":
			fmt.Fprintln(out, formatCommand(format, msg))
		case asJSON:
			if err := enc.Encode(msg); err != nil {
				logger.Error("encode event", zap.Error(err))
			}
		default:
			fmt.Fprintf(out, "%-6s %s\n", msg.Event, msg.Path)
		}
	}
}

// targetDir returns the directory argument or the working directory.
func targetDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("error getting current directory: %w", err)
	}
	return dir, nil
}

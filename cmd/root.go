package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/TFMV/treewatch/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile string
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "treewatch",
	Short: "Recursive, debounced directory tree watching",
	Long: `treewatch keeps an in-memory mirror of a directory tree and reports
settled changes to it. It can list the tree once or keep watching it,
printing or executing a command for each change.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.treewatch.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("silent", false, "Disable all output except errors")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().Int("log-max-size", 10, "Maximum size in megabytes of the log file before rotation")
	rootCmd.PersistentFlags().Int("log-max-backups", 3, "Number of rotated log files to keep")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("silent", rootCmd.PersistentFlags().Lookup("silent"))
	viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log-max-size", rootCmd.PersistentFlags().Lookup("log-max-size"))
	viper.BindPFlag("log-max-backups", rootCmd.PersistentFlags().Lookup("log-max-backups"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".treewatch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".treewatch")
	}

	viper.SetEnvPrefix("treewatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// logLevel picks the verbosity from the --verbose and --silent flags.
func logLevel() watch.LogLevel {
	switch {
	case viper.GetBool("verbose"):
		return watch.LogLevelDebug
	case viper.GetBool("silent"):
		return watch.LogLevelError
	default:
		return watch.LogLevelWarn
	}
}

// newLogger builds the command logger. With --log-file set, JSON logs are
// also written to a size-rotated file.
func newLogger() *zap.Logger {
	level := logLevel()
	logger := watch.NewLogger(level)

	path := viper.GetString("log-file")
	if path == "" {
		return logger
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    viper.GetInt("log-max-size"),
		MaxBackups: viper.GetInt("log-max-backups"),
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotator),
		zap.NewAtomicLevelAt(zapLevel(level)),
	)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}

func zapLevel(l watch.LogLevel) zapcore.Level {
	switch l {
	case watch.LogLevelDebug:
		return zap.DebugLevel
	case watch.LogLevelError:
		return zap.ErrorLevel
	case watch.LogLevelInfo:
		return zap.InfoLevel
	default:
		return zap.WarnLevel
	}
}

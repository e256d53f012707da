package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	version = "0.1.0"
	verbose bool

	// logger is replaced before any command runs.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "imgvariants",
	Short: "Responsive WebP variants for web images",
	Long: `imgvariants turns source images (local files, glob patterns or http(s) URLs)
into resized WebP variants with deterministic names, ready for srcset.

Two modes, combinable:
  widths   <baseName>-<width>.webp for every configured width
  scales   <baseName><suffix>.webp at round(originalWidth × factor)

Settings come from imgvariants.yaml, IMGV_* environment variables and flags,
in increasing priority.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger = newLogger(cmd.ErrOrStderr(), verbose)
	},
}

// Execute runs the CLI until ctx is cancelled.
func Execute(ctx context.Context) error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgvariants %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// newLogger builds the console logger on w: info by default, debug with
// --verbose.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)
	return zap.New(core).Named("imgvariants")
}

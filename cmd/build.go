package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/encoder"
	"github.com/AnyUserName/imgvariants-cli/internal/manifest"
	"github.com/AnyUserName/imgvariants-cli/internal/metrics"
	"github.com/AnyUserName/imgvariants-cli/internal/pipeline"
)

const (
	flagManifest    = "manifest"
	flagMetricsFile = "metrics-file"
	flagStrict      = "strict"
)

// newEncoder is swapped in tests that must not depend on cwebp.
var newEncoder = func() encoder.Encoder { return &encoder.WebPEncoder{} }

var buildCmd = &cobra.Command{
	Use:   "build [inputs...]",
	Short: "Generate WebP variants for every configured input",
	Long: `Collects inputs (config inputPaths, --input, positional arguments and the
matches of every glob pattern), drops duplicates, and writes one WebP file per
target into the output directory:

  widths mode   <outputDir>/<baseName>-<width>.webp
  scales mode   <outputDir>/<baseName><suffix>.webp

A failing input or target is reported and skipped; the exit status is 0
unless --strict is set. A manifest with sizes and xxhash digests is written
next to the variants.`,
	Args: cobra.ArbitraryArgs,
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd.Flags())
	rootCmd.AddCommand(buildCmd)
}

func addBuildFlags(f *pflag.FlagSet) {
	addGenerationFlags(f)
	f.String(flagManifest, manifest.FileName, "manifest file name inside the output directory (empty to skip)")
	f.String(flagMetricsFile, "", "write Prometheus text metrics of the run to this file")
	f.Bool(flagStrict, false, "exit non-zero if any input or target failed")
}

func runBuild(cmd *cobra.Command, args []string) error {
	return executeBuild(cmd.Context(), afero.NewOsFs(), cmd.Flags(), args, cmd.OutOrStdout())
}

func executeBuild(ctx context.Context, fs afero.Fs, f *pflag.FlagSet, args []string, out io.Writer) error {
	dir, err := workDir(f)
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	gen, err := loadConfig(fs, f, dir, args)
	if err != nil {
		return err
	}

	enc := newEncoder()
	if !enc.Available() {
		return fmt.Errorf("%s encoder unavailable: cwebp not found in PATH; install with: brew install webp / apt install webp", enc.Format())
	}

	logger.Debug("configuration",
		zap.String("workdir", dir),
		zap.String("output_dir", gen.OutputDir),
		zap.Any("modes", gen.Modes),
		zap.Ints("widths", gen.Widths),
		zap.Int("quality", gen.Quality),
		zap.String("upscale", string(gen.Upscale)))

	metricsFile, _ := f.GetString(flagMetricsFile)
	var rec metrics.Recorder = metrics.Nop{}
	var inst *metrics.Instance
	if metricsFile != "" {
		inst = metrics.New(metrics.Options{})
		rec = inst
	}

	p := pipeline.New(pipeline.Config{
		Gen:     gen,
		WorkDir: dir,
		Fs:      fs,
		Codec:   encoder.NewImageCodec(enc, gen.Upscale == config.UpscaleAllow),
	}, pipeline.WithLogger(logger), pipeline.WithMetrics(rec))

	report, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	m := manifest.FromReport(report, gen)
	manifestName, _ := f.GetString(flagManifest)
	if manifestName != "" {
		path := filepath.Join(absOutputDir(dir, gen.OutputDir), manifestName)
		if err := manifest.WriteJSON(fs, m, path); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
		logger.Debug("manifest written", zap.String("path", path))
	}

	if inst != nil {
		if !filepath.IsAbs(metricsFile) {
			metricsFile = filepath.Join(dir, metricsFile)
		}
		if err := inst.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	printBuildReport(out, m, report, manifestName)

	if strict, _ := f.GetBool(flagStrict); strict && len(report.Failures) > 0 {
		return fmt.Errorf("%d failure(s): %w", len(report.Failures), report.Err())
	}
	return nil
}

func absOutputDir(workDir, outputDir string) string {
	if filepath.IsAbs(outputDir) {
		return outputDir
	}
	return filepath.Join(workDir, outputDir)
}

func printBuildReport(w io.Writer, m *manifest.Manifest, r *pipeline.Report, manifestName string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║           imgvariants build complete             ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	stats := m.Stats
	fmt.Fprintf(w, "  Run:         %s\n", m.RunID)
	fmt.Fprintf(w, "  Inputs:      %d (%d failed)\n", len(r.Inputs), r.FailedInputs())
	fmt.Fprintf(w, "  Variants:    %d\n", stats.TotalVariants)
	fmt.Fprintf(w, "  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Fprintf(w, "  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	if stats.TotalInputBytes > 0 {
		ratio := float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
		fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	}
	fmt.Fprintf(w, "  Time:        %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintln(w)

	// Top 10 heaviest assets.
	if len(m.Assets) > 0 {
		type assetSize struct {
			key        string
			inputSize  int64
			outputSize int64
		}
		var items []assetSize
		for key, a := range m.Assets {
			var outSum int64
			for _, v := range a.Variants {
				outSum += v.Size
			}
			items = append(items, assetSize{key, a.Original.Size, outSum})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].inputSize != items[j].inputSize {
				return items[i].inputSize > items[j].inputSize
			}
			return items[i].key < items[j].key
		})
		n := len(items)
		if n > 10 {
			n = 10
		}
		fmt.Fprintf(w, "  Top %d heaviest (original → all variants):\n", n)
		for _, it := range items[:n] {
			fmt.Fprintf(w, "    %-40s %8s → %8s\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
			)
		}
		fmt.Fprintln(w)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "  Failures (%d):\n", len(r.Failures))
		for _, fl := range r.Failures {
			fmt.Fprintf(w, "    ✗ %s\n", fl.Error())
		}
		fmt.Fprintln(w)
	}

	if manifestName != "" {
		fmt.Fprintf(w, "  Manifest:    %s\n", filepath.Join(m.OutputDir, manifestName))
		fmt.Fprintln(w)
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}

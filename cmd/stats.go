package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgvariants-cli/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a built output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	m, _, err := manifest.ReadJSON(afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), m)
	return nil
}

func printStats(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Manifest version: %d\n", m.Version)
	fmt.Fprintf(w, "  Run:              %s\n", m.RunID)
	fmt.Fprintf(w, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(w, "  Output dir:       %s\n", m.OutputDir)
	if b := m.BuildInfo; b != nil {
		fmt.Fprintf(w, "  Modes:            %v\n", b.Modes)
		fmt.Fprintf(w, "  Quality:          %d\n", b.Quality)
		fmt.Fprintf(w, "  Upscale:          %s\n", b.Upscale)
		fmt.Fprintf(w, "  Duration:         %d ms\n", b.DurationMS)
	}
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Total assets:     %d\n", s.TotalAssets)
	fmt.Fprintf(w, "  Total variants:   %d\n", s.TotalVariants)
	fmt.Fprintf(w, "  Failures:         %d\n", s.TotalFailures)
	fmt.Fprintf(w, "  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Fprintf(w, "  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Fprintln(w)

	// Per-suffix breakdown, widths first by width, then scales by name.
	type suffixStat struct {
		mode   string
		suffix string
		width  int
		count  int
		bytes  int64
	}
	bySuffix := map[string]*suffixStat{}
	for _, a := range m.Assets {
		for _, v := range a.Variants {
			st, ok := bySuffix[v.Suffix]
			if !ok {
				st = &suffixStat{mode: v.Mode, suffix: v.Suffix, width: v.Width}
				bySuffix[v.Suffix] = st
			}
			st.count++
			st.bytes += v.Size
		}
	}
	rows := make([]*suffixStat, 0, len(bySuffix))
	for _, st := range bySuffix {
		rows = append(rows, st)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].mode != rows[j].mode {
			return rows[i].mode > rows[j].mode // widths before scales
		}
		if rows[i].mode == "widths" && rows[i].width != rows[j].width {
			return rows[i].width < rows[j].width
		}
		return rows[i].suffix < rows[j].suffix
	})
	fmt.Fprintln(w, "  Suffix breakdown:")
	for _, st := range rows {
		fmt.Fprintf(w, "    %-10s %-7s %4d files  %s\n", st.suffix, st.mode, st.count, formatBytes(st.bytes))
	}
	fmt.Fprintln(w)

	// Warnings.
	var warnings []string
	keys := make([]string, 0, len(m.Assets))
	for k := range m.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if len(m.Assets[key].Variants) == 0 {
			warnings = append(warnings, fmt.Sprintf("asset %q has no variants", key))
		}
	}
	for _, f := range m.Failures {
		if f.Suffix != "" {
			warnings = append(warnings, fmt.Sprintf("%s [%s]: %s failed: %s", f.Source, f.Suffix, f.Stage, f.Error))
		} else {
			warnings = append(warnings, fmt.Sprintf("%s: %s failed: %s", f.Source, f.Stage, f.Error))
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintf(w, "  Warnings (%d):\n", len(warnings))
		for _, msg := range warnings {
			fmt.Fprintf(w, "    ⚠ %s\n", msg)
		}
		fmt.Fprintln(w)
	}
}

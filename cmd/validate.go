package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgvariants-cli/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_or_out_dir>",
	Short: "Validate a manifest and check every variant file against it",
	Long: `Checks the manifest's schema version, names and stats, then verifies that
each variant file exists next to the manifest with the recorded size and
xxhash digest.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()
	m, path, err := manifest.ReadJSON(fs, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errs := manifest.Validate(fs, m, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Fprintln(out, "  ✓ Manifest is valid")
		fmt.Fprintf(out, "  ✓ %d assets, %d variants, all files present and matching\n",
			m.Stats.TotalAssets, m.Stats.TotalVariants)
		return nil
	}

	fmt.Fprintf(out, "  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

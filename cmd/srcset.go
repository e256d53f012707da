package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/srcset"
)

const (
	flagAlt  = "alt"
	flagHTML = "html"
)

var srcsetCmd = &cobra.Command{
	Use:   "srcset <baseName>",
	Short: "Print the srcset (or <picture> markup) for generated variants",
	Long: `Prints "<basePath>/<baseName>-<w>.webp <w>w" entries joined by ", " for the
configured widths. basePath is the output directory rooted at "/" when the
environment mode is prod, and /public/images otherwise. ENV_MODE overrides
the configured envMode.`,
	Args: cobra.ExactArgs(1),
	RunE: runSrcset,
}

func init() {
	addSrcsetFlags(srcsetCmd.Flags())
	rootCmd.AddCommand(srcsetCmd)
}

func addSrcsetFlags(f *pflag.FlagSet) {
	f.String(flagConfig, "", "config file (default: imgvariants.yaml in the working directory)")
	f.String(flagWorkDir, "", "directory holding the config file (default: current directory)")
	f.IntSlice(config.KeyWidths, nil, "widths to list (default: configured widths)")
	f.StringP(config.KeyOutputDir, "o", "", "output directory the variants were written to")
	f.String(config.KeyEnvMode, "", "environment mode: development or prod")
	f.String(flagAlt, "", "alt text for --html")
	f.Bool(flagHTML, false, "print a <picture> element instead of the srcset value")
}

func runSrcset(cmd *cobra.Command, args []string) error {
	return executeSrcset(afero.NewOsFs(), cmd.Flags(), args[0], cmd.OutOrStdout())
}

func executeSrcset(fs afero.Fs, f *pflag.FlagSet, baseName string, out io.Writer) error {
	dir, err := workDir(f)
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	gen, err := loadConfig(fs, f, dir, nil)
	if err != nil {
		return err
	}

	if !gen.HasMode(config.ModeWidths) {
		logger.Warn("widths mode is not enabled, listed variants may not exist")
	}

	alt, _ := f.GetString(flagAlt)
	img := srcset.Image{
		BasePath: srcset.BasePath(srcset.EnvMode(gen.EnvMode), gen.OutputDir),
		BaseName: baseName,
		Widths:   gen.Widths,
		Alt:      alt,
	}

	var text string
	if asHTML, _ := f.GetBool(flagHTML); asHTML {
		text, err = img.HTML()
	} else {
		text, err = img.Srcset()
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	return nil
}

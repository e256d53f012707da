package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the imgvariants.yaml config file",
	Long: `Config file: imgvariants.yaml (or imgvariants.yml) in the working directory.

Subcommands:
  init    write a config file with the default settings
  show    print the effective settings after env vars and flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default settings to imgvariants.yaml in the working directory,
or to --config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().String(flagConfig, "", "path of the file to write")
	configInitCmd.Flags().String(flagWorkDir, "", "directory to write imgvariants.yaml into")
	addGenerationFlags(configShowCmd.Flags())

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	fs := afero.NewOsFs()
	dir, err := workDir(cmd.Flags())
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	loader := config.NewLoader(fs, dir)
	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		loader = config.NewLoaderWithPath(fs, path)
	}
	if err := loader.Init(config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config file written: %s\n", loader.Path())
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	fs := afero.NewOsFs()
	dir, err := workDir(cmd.Flags())
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}
	gen, err := loadConfig(fs, cmd.Flags(), dir, nil)
	if err != nil {
		return err
	}

	data, err := config.Marshal(*gen)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

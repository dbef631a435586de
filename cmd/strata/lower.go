package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"strata/internal/diagfmt"
	"strata/internal/driver"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] file.sir",
	Short: "Lower structured control flow to basic-block branches",
	Long:  `Lower parses a textual IR file, rewrites every conditional and loop construct into plain branches, and prints the lowered module`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().Int("jobs", 0, "max concurrent functions (0 = NumCPU)")
	lowerCmd.Flags().Bool("verify", true, "validate the module after lowering")
	lowerCmd.Flags().Bool("cache", false, "reuse lowered artifacts from the disk cache")
}

func runLower(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	opts, err := resolveLowerOptions(cmd, filepath.Dir(filePath))
	if err != nil {
		return err
	}

	result, lowerErr := driver.LowerFile(cmd.Context(), filePath, maxDiagnostics, opts)

	if result != nil && result.Bag != nil && (result.Bag.HasErrors() || result.Bag.HasWarnings()) {
		result.Bag.Sort()
		diagfmt.Pretty(os.Stderr, result.Bag, result.FileSet, diagfmt.PrettyOpts{
			Color: useColor(cmd, os.Stderr),
		})
	}
	if lowerErr != nil {
		return fmt.Errorf("lowering failed: %w", lowerErr)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), result.Text)
	return err
}

// resolveLowerOptions merges strata.toml defaults under explicit flags.
func resolveLowerOptions(cmd *cobra.Command, startDir string) (driver.Options, error) {
	cfg := defaultLowerConfig()
	if manifest, ok, err := loadProjectManifest(startDir); err != nil {
		return driver.Options{}, err
	} else if ok {
		cfg = manifest.Config.Lower
	}

	opts := driver.Options{Jobs: cfg.Jobs, Verify: cfg.Verify, Cache: cfg.Cache}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs, _ = cmd.Flags().GetInt("jobs")
	}
	if cmd.Flags().Changed("verify") {
		opts.Verify, _ = cmd.Flags().GetBool("verify")
	}
	if cmd.Flags().Changed("cache") {
		opts.Cache, _ = cmd.Flags().GetBool("cache")
	}
	return opts, nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/version"
)

var (
	versionShowHash bool
	versionShowDate bool
	versionShowFull bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "show every recorded bit of build metadata")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show strata build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderVersion(cmd.OutOrStdout(),
			versionShowHash || versionShowFull,
			versionShowDate || versionShowFull)
		return nil
	},
}

func renderVersion(out io.Writer, showHash, showDate bool) {
	fmt.Fprintf(out, "strata %s\n", valueOrUnknown(strings.TrimSpace(version.Version)))
	if showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(strings.TrimSpace(version.GitCommit)))
	}
	if showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(strings.TrimSpace(version.BuildDate)))
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

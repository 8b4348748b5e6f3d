package cmd

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

var versionShort bool

// newVersionCmd prints the release version and, unless --short is given,
// the toolchain and VCS revision embedded by the Go linker.
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of xplorer",
		Long: `Print the xplorer release version together with the Go toolchain
and source revision it was built from.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), rootCmd.Version, versionShort)
		},
	}
	cmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	return cmd
}

func printVersion(w io.Writer, version string, short bool) {
	fmt.Fprintf(w, "xplorer version %s\n", version)
	if short {
		return
	}

	info, ok := readBuildInfo()
	if !ok {
		return
	}
	fmt.Fprintf(w, "  go:       %s\n", info.GoVersion)
	fmt.Fprintf(w, "  module:   %s\n", info.Main.Path)

	var revision, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if modified == "true" {
			revision += " (modified)"
		}
		fmt.Fprintf(w, "  revision: %s\n", revision)
	}
}

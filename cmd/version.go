package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/killallgit/depthtrack-api/api/types"
	apiversion "github.com/killallgit/depthtrack-api/api/version"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/killallgit/depthtrack-api/cmd.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Display the build stamped into this binary.

--json prints the same document the running server serves on /version.`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "print just the version number")
	versionCmd.Flags().Bool("json", false, "print build information as JSON")
}

func buildInfo() types.BuildInfo {
	return types.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := apiversion.NewInfo(buildInfo())

	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Fprintf(out, "v%s\n", info.Version)
		return nil
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, info.Name)
	fmt.Fprintf(w, "Version:\tv%s\n", info.Version)
	fmt.Fprintf(w, "Git Commit:\t%s\n", info.GitCommit)
	fmt.Fprintf(w, "Build Time:\t%s\n", info.BuildTime)
	fmt.Fprintf(w, "Go Version:\t%s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch:\t%s/%s\n", runtime.GOOS, runtime.GOARCH)
	return w.Flush()
}

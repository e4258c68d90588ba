package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pkgsweep",
	Short: "Delete stale packages from the GitHub Packages registry",
	Long: `pkgsweep lists the packages published by the authenticated GitHub user and
deletes every package whose name contains a keyword.

Examples:
	# Show available commands
	pkgsweep --help

	# Preview what would be deleted
	pkgsweep clean --keyword com.acme.decoder --dry-run

	# Delete, deriving the keyword from the author and project directory
	pkgsweep clean --author acme --project-dir ./compose-decoder

	# List the type/visibility pairs a run pages through
	pkgsweep keys

	# Print build info
	pkgsweep version

Output:
	Results go to stdout; logs and diagnostics go to stderr.`,
	SilenceErrors: true,
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// Execute runs the root command. An interrupt cancels the run; packages
// already deleted stay deleted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

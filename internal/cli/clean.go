package cli

import (
	"context"
	"fmt"
	"log/slog"

	"pkgsweep/internal/config"
	"pkgsweep/internal/engine"
	"pkgsweep/internal/flags"
	gh "pkgsweep/internal/github"
	"pkgsweep/internal/logging"
	"pkgsweep/internal/metrics"
	"pkgsweep/internal/registry"

	"github.com/spf13/cobra"
)

const cleanHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  pkgsweep authenticates to GitHub Packages with a bearer token.

  Sources (in order):
  1) --token
  2) github.token in the properties file (--properties, default local.properties)
  3) GITHUB_TOKEN environment variable
  4) GitHub CLI (gh) authentication via gh auth token (disable with --no-gh)

  The token needs read:packages and delete:packages.

  Overrides (flags win):
    PKGSWEEP_KEYWORD, PKGSWEEP_AUTHOR, PKGSWEEP_API_URL,
    PKGSWEEP_CONCURRENCY, PKGSWEEP_TIMEOUT, PKGSWEEP_LOG_LEVEL
`

func newCleanCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete packages whose name contains a keyword",
		Long: `Delete the authenticated user's packages whose name contains a keyword.

pkgsweep pages through GET /user/packages for every package type and
visibility, merges the listings, keeps the packages whose name contains the
keyword (case-sensitive), then deletes them. Every listing finishes before the
first delete is sent.

A failed page or a failed delete is logged and reported; it does not stop the
other requests and does not change the exit code.

Output:
	Console output is controlled by --console-format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown summary
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits lifecycle Events with a "type" field (run.started,
	fetch.finished, delete.result, run.finished).

Exit codes:
	0 = run completed (including partial failures)
	1 = invalid configuration or setup failure

Examples:
  # Preview
  pkgsweep clean --keyword com.acme.decoder --dry-run

  # Delete only Maven packages
  pkgsweep clean --keyword com.acme.decoder --types maven

  # Machine-readable events
  pkgsweep clean --author acme --no-console --emit ndjson
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, cfg)
		},
	}
	cmd.SetHelpTemplate(cleanHelpTemplate)

	// MAINTAINER NOTE: keep in sync with config.Config and config.ApplyEnv.

	// Targeting
	cmd.Flags().StringSliceVar(&cfg.Targeting.PackageTypes, flags.FlagTypes, cfg.Targeting.PackageTypes, "Package types to page through (repeatable; comma-separated accepted)")
	cmd.Flags().StringSliceVar(&cfg.Targeting.Visibilities, flags.FlagVisibility, cfg.Targeting.Visibilities, "Visibilities to page through (repeatable; comma-separated accepted)")
	cmd.Flags().StringVar(&cfg.Targeting.Keyword, flags.FlagKeyword, "", "Delete packages whose name contains this text (case-sensitive)")
	cmd.Flags().StringVar(&cfg.Targeting.Author, flags.FlagAuthor, "", "Publishing account; with --project-dir derives the keyword com.<author>.<project>")
	cmd.Flags().StringVar(&cfg.Targeting.ProjectDir, flags.FlagProjectDir, cfg.Targeting.ProjectDir, "Project directory whose name is used to derive the keyword")
	cmd.Flags().BoolVar(&cfg.Targeting.DryRun, flags.FlagDryRun, false, "List matching packages without deleting them")

	// Auth
	cmd.Flags().StringVar(&cfg.Auth.Token, flags.FlagToken, "", "GitHub token (prefer local.properties or GITHUB_TOKEN)")
	cmd.Flags().StringVar(&cfg.Auth.PropertiesFile, flags.FlagProperties, cfg.Auth.PropertiesFile, "Properties file holding github.token")
	cmd.Flags().BoolVar(&cfg.Auth.NoGitHubCLI, flags.FlagNoGH, false, "Do not fall back to gh auth token")
	cmd.Flags().StringVar(&cfg.Auth.APIURL, flags.FlagAPIURL, "", "GitHub REST API root (GitHub Enterprise Server)")

	// Output
	cmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	cmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Only print results with these statuses: DELETED|FAILED|PLANNED (repeatable; comma-separated accepted)")
	cmd.Flags().StringVar(&cfg.Output.Report, flags.FlagReport, "", "Write a Markdown report to this path")
	cmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	cmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	cmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	cmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out/--report)")
	cmd.Flags().StringVar(&cfg.Output.MetricsFile, flags.FlagMetricsFile, "", "Write run metrics in Prometheus text format to this path")

	// Runtime
	cmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Worker pool size shared by listing and deleting")
	cmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
	cmd.Flags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Log every GitHub API call (implies --log-level debug)")
	cmd.Flags().StringVar(&cfg.Runtime.LogLevel, flags.FlagLogLevel, cfg.Runtime.LogLevel, "Log level: debug|info|warn|error")
	cmd.Flags().StringVar(&cfg.Runtime.LogFormat, flags.FlagLogFormat, cfg.Runtime.LogFormat, "Log format: text|json")

	return cmd
}

func runClean(cmd *cobra.Command, cfg *config.Config) error {
	if err := config.ApplyEnv(cfg, cmd.Flags().Changed); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	// Past validation, errors are not usage errors.
	cmd.SilenceUsage = true

	level := cfg.Runtime.LogLevel
	if cfg.Runtime.Verbose {
		level = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level, Format: cfg.Runtime.LogFormat})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	token, source, err := gh.ResolveAuthToken(ctx, gh.TokenSources{
		Explicit:         cfg.Auth.Token,
		PropertiesFile:   cfg.Auth.PropertiesFile,
		DisableGitHubCLI: cfg.Auth.NoGitHubCLI,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve GitHub auth token: %w", err)
	}
	if token == "" {
		logger.Warn("no GitHub token found, requests will be unauthenticated",
			"hint", "set github.token in "+cfg.Auth.PropertiesFile+" or GITHUB_TOKEN, or run 'gh auth login'")
	} else {
		logger.Debug("resolved GitHub token", "source", string(source))
	}

	m := metrics.New()
	client, err := gh.NewClient(ctx, token,
		gh.WithBaseURL(cfg.Auth.APIURL),
		gh.WithVerbose(cfg.Runtime.Verbose, logger),
		gh.WithTransport(m.InstrumentTransport),
	)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	rate := registry.NewRateObserver()
	reg, err := registry.New(client, registry.WithLogger(logger), registry.WithRateObserver(rate))
	if err != nil {
		return err
	}

	eng := engine.NewEngine(reg)
	eng.Rate = rate
	eng.Metrics = m
	eng.Logger = logger
	eng.Stdout = cmd.OutOrStdout()

	if _, err := eng.Run(ctx, cfg); err != nil {
		return err
	}

	writeMetrics(logger, m, cfg.Output.MetricsFile)
	return nil
}

func writeMetrics(logger *slog.Logger, m *metrics.Metrics, path string) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Error("writing metrics file", "path", path, "err", err)
		return
	}
	logger.Debug("wrote metrics file", "path", path)
}

func init() {
	rootCmd.AddCommand(newCleanCmd(config.New()))
}

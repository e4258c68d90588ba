package flags

// Package flags defines canonical CLI flag names shared across the CLI and config.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. environment overrides, which
// must not clobber a flag the user set explicitly).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Targeting.Keyword, flags.FlagKeyword, "", "...")
//	arg := "--" + flags.FlagKeyword
const (
	// Targeting
	FlagTypes      = "types"
	FlagVisibility = "visibility"
	FlagKeyword    = "keyword"
	FlagAuthor     = "author"
	FlagProjectDir = "project-dir"
	FlagDryRun     = "dry-run"

	// Auth
	FlagToken      = "token"
	FlagProperties = "properties"
	FlagNoGH       = "no-gh"
	FlagAPIURL     = "api-url"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagReport              = "report"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"
	FlagMetricsFile         = "metrics-file"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"
	FlagLogLevel    = "log-level"
	FlagLogFormat   = "log-format"
)

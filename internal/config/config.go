package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"pkgsweep/internal/registry"
)

var knownConsoleStatuses = []string{
	string(registry.DeleteStatusDeleted),
	string(registry.DeleteStatusFailed),
	string(registry.DeleteStatusPlanned),
}

// knownPackageTypes are the package_type values accepted by GET /user/packages.
var knownPackageTypes = []string{"npm", "maven", "rubygems", "docker", "nuget", "container"}

var knownVisibilities = []string{"public", "private", "internal"}

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/clean.go
	// - environment overrides in env.go
	Targeting Targeting
	Auth      Auth
	Output    Output
	Runtime   Runtime
}

type Targeting struct {
	// PackageTypes are the package types to page through (see --types).
	PackageTypes []string

	// Visibilities are the visibilities to page through (see --visibility).
	Visibilities []string

	// Keyword selects packages for deletion by case-sensitive substring match
	// on the package name (see --keyword). When empty it is derived from
	// Author and ProjectDir.
	Keyword string

	// Author is the publishing account used to derive the keyword (see --author).
	Author string

	// ProjectDir is the project root whose directory name is used to derive
	// the keyword (see --project-dir).
	ProjectDir string

	// DryRun lists the packages that would be deleted without deleting them (see --dry-run).
	DryRun bool
}

type Auth struct {
	// Token is an explicit bearer token (see --token). Prefer local.properties
	// or GITHUB_TOKEN; flags end up in shell history.
	Token string

	// PropertiesFile is read for github.token (see --properties).
	PropertiesFile string

	// NoGitHubCLI disables the `gh auth token` fallback (see --no-gh).
	NoGitHubCLI bool

	// APIURL overrides the REST API root (see --api-url).
	APIURL string
}

type Output struct {
	// ConsoleFormat controls the console sink (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus limits console result lines to these delete
	// statuses (see --console-filter-status). Allowed values: DELETED,
	// FAILED, PLANNED. Empty shows every result.
	ConsoleFilterStatus []string

	// Report writes a Markdown report to this path (see --report).
	Report string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured event stream to stdout (see --emit).
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool

	// MetricsFile writes run metrics in Prometheus text format (see --metrics-file).
	MetricsFile string
}

type Runtime struct {
	// Concurrency is the size of the worker pool shared by the fetch and
	// delete phases (see --concurrency). Must be >= 1.
	Concurrency int

	// Timeout bounds the whole run (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose logs every registry request and response (see --verbose).
	Verbose bool

	// LogLevel is one of debug, info, warn, error (see --log-level).
	LogLevel string

	// LogFormat is text or json (see --log-format).
	LogFormat string
}

func New() *Config {
	return &Config{
		Targeting: Targeting{
			PackageTypes: slices.Clone(registry.DefaultPackageTypes),
			Visibilities: slices.Clone(registry.DefaultVisibilities),
			ProjectDir:   ".",
		},
		Auth: Auth{
			PropertiesFile: "local.properties",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 10,
			Timeout:     30 * time.Minute,
			LogLevel:    "info",
			LogFormat:   "text",
		},
	}
}

func (c *Config) Validate() error {
	if err := c.ValidateTargets(); err != nil {
		return err
	}
	c.Output.Emit = normalizeEnumList(c.Output.Emit)

	// The keyword is matched case-sensitively, so it is only trimmed.
	c.Targeting.Keyword = strings.TrimSpace(c.Targeting.Keyword)
	c.Targeting.Author = strings.TrimSpace(c.Targeting.Author)
	if c.Targeting.Keyword == "" {
		if c.Targeting.Author == "" {
			return errors.New("one of --keyword or --author must be provided")
		}
		kw, err := DeriveKeyword(c.Targeting.Author, c.Targeting.ProjectDir)
		if err != nil {
			return fmt.Errorf("derive keyword: %w", err)
		}
		c.Targeting.Keyword = kw
	}

	// Auth validation
	c.Auth.APIURL = strings.TrimSpace(c.Auth.APIURL)
	if c.Auth.APIURL != "" {
		u, err := url.Parse(c.Auth.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --api-url value: %q", c.Auth.APIURL)
		}
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	var statuses []string
	for _, st := range splitCommaList(c.Output.ConsoleFilterStatus) {
		st = strings.ToUpper(st)
		if !slices.Contains(knownConsoleStatuses, st) {
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: %s)", st, strings.Join(knownConsoleStatuses, ", "))
		}
		if !slices.Contains(statuses, st) {
			statuses = append(statuses, st)
		}
	}
	c.Output.ConsoleFilterStatus = statuses

	for _, emit := range c.Output.Emit {
		if emit != "json" && emit != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	c.Runtime.LogLevel = normalizeEnumValue(c.Runtime.LogLevel)
	switch c.Runtime.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported --log-level: %s (must be one of: debug, info, warn, error)", c.Runtime.LogLevel)
	}
	c.Runtime.LogFormat = normalizeEnumValue(c.Runtime.LogFormat)
	if c.Runtime.LogFormat != "text" && c.Runtime.LogFormat != "json" {
		return fmt.Errorf("unsupported --log-format: %s (must be one of: text, json)", c.Runtime.LogFormat)
	}

	return nil
}

// ValidateTargets normalizes and checks the package types and visibilities
// that make up the fetch keys.
func (c *Config) ValidateTargets() error {
	c.Targeting.PackageTypes = normalizeEnumList(c.Targeting.PackageTypes)
	c.Targeting.Visibilities = normalizeEnumList(c.Targeting.Visibilities)

	if len(c.Targeting.PackageTypes) == 0 {
		return errors.New("--types must name at least one package type")
	}
	for _, t := range c.Targeting.PackageTypes {
		if !slices.Contains(knownPackageTypes, t) {
			return fmt.Errorf("unsupported package type: %s (must be one of: %s)", t, strings.Join(knownPackageTypes, ", "))
		}
	}
	if len(c.Targeting.Visibilities) == 0 {
		return errors.New("--visibility must name at least one visibility")
	}
	for _, v := range c.Targeting.Visibilities {
		if !slices.Contains(knownVisibilities, v) {
			return fmt.Errorf("unsupported visibility: %s (must be one of: %s)", v, strings.Join(knownVisibilities, ", "))
		}
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeEnumList splits comma lists, lowercases, and drops empties and
// duplicates while keeping first-seen order.
func normalizeEnumList(values []string) []string {
	var out []string
	for _, v := range splitCommaList(values) {
		v = normalizeEnumValue(v)
		if slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

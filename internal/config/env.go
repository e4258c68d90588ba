package config

import (
	"fmt"
	"time"

	"pkgsweep/internal/flags"

	"github.com/caarlos0/env/v11"
)

// Environment variable names read by ApplyEnv.
const (
	EnvKeyword     = "PKGSWEEP_KEYWORD"
	EnvAuthor      = "PKGSWEEP_AUTHOR"
	EnvAPIURL      = "PKGSWEEP_API_URL"
	EnvConcurrency = "PKGSWEEP_CONCURRENCY"
	EnvTimeout     = "PKGSWEEP_TIMEOUT"
	EnvLogLevel    = "PKGSWEEP_LOG_LEVEL"
)

type envOverrides struct {
	Keyword     string        `env:"PKGSWEEP_KEYWORD"`
	Author      string        `env:"PKGSWEEP_AUTHOR"`
	APIURL      string        `env:"PKGSWEEP_API_URL"`
	Concurrency int           `env:"PKGSWEEP_CONCURRENCY"`
	Timeout     time.Duration `env:"PKGSWEEP_TIMEOUT"`
	LogLevel    string        `env:"PKGSWEEP_LOG_LEVEL"`
}

// ApplyEnv copies set PKGSWEEP_* variables into c. explicit reports whether
// the matching flag was given on the command line; flags win over the
// environment. A nil explicit treats every flag as unset.
func ApplyEnv(c *Config, explicit func(flag string) bool) error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	isSet := func(flag string) bool {
		return explicit != nil && explicit(flag)
	}

	if e.Keyword != "" && !isSet(flags.FlagKeyword) {
		c.Targeting.Keyword = e.Keyword
	}
	if e.Author != "" && !isSet(flags.FlagAuthor) {
		c.Targeting.Author = e.Author
	}
	if e.APIURL != "" && !isSet(flags.FlagAPIURL) {
		c.Auth.APIURL = e.APIURL
	}
	if e.Concurrency != 0 && !isSet(flags.FlagConcurrency) {
		c.Runtime.Concurrency = e.Concurrency
	}
	if e.Timeout != 0 && !isSet(flags.FlagTimeout) {
		c.Runtime.Timeout = e.Timeout
	}
	if e.LogLevel != "" && !isSet(flags.FlagLogLevel) {
		c.Runtime.LogLevel = e.LogLevel
	}
	return nil
}

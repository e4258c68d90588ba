package github

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/magiconair/properties"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit   AuthTokenSource = "explicit"
	AuthTokenSourceProperties AuthTokenSource = "properties:github.token"
	AuthTokenSourceEnv        AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL   AuthTokenSource = "gh"
)

// PropertiesTokenKey is the key read from local.properties.
const PropertiesTokenKey = "github.token"

type TokenSources struct {
	// Explicit is a token passed on the command line.
	Explicit string

	// PropertiesFile is a Java-style properties file (typically the Gradle
	// project's local.properties). A missing file is not an error.
	PropertiesFile string

	// DisableGitHubCLI skips the `gh auth token` fallback.
	DisableGitHubCLI bool
}

type tokenEnv struct {
	Token string `env:"GITHUB_TOKEN"`
}

// ResolveAuthToken resolves a GitHub access token.
//
// Precedence:
//  1. explicit (if non-empty)
//  2. github.token from the properties file
//  3. GITHUB_TOKEN env var
//  4. GitHub CLI: `gh auth token -h github.com`
//
// An empty token with an empty source and nil error means nothing was found.
// It never prints the token.
func ResolveAuthToken(ctx context.Context, src TokenSources) (token string, source AuthTokenSource, err error) {
	if tok := strings.TrimSpace(src.Explicit); tok != "" {
		return tok, AuthTokenSourceExplicit, nil
	}

	if src.PropertiesFile != "" {
		tok, err := tokenFromProperties(src.PropertiesFile)
		if err != nil {
			return "", "", err
		}
		if tok != "" {
			return tok, AuthTokenSourceProperties, nil
		}
	}

	var e tokenEnv
	if err := env.Parse(&e); err != nil {
		return "", "", fmt.Errorf("parse env: %w", err)
	}
	if tok := strings.TrimSpace(e.Token); tok != "" {
		return tok, AuthTokenSourceEnv, nil
	}

	if src.DisableGitHubCLI {
		return "", "", nil
	}
	tok, ok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, AuthTokenSourceGitHubCL, nil
	}
	return "", "", nil
}

func tokenFromProperties(path string) (string, error) {
	loader := properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
		IgnoreMissing:    true,
	}
	p, err := loader.LoadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	v, _ := p.Get(PropertiesTokenKey)
	return strings.TrimSpace(v), nil
}

func tokenFromGitHubCLI(ctx context.Context) (token string, ok bool, err error) {
	_, lookErr := exec.LookPath("gh")
	if lookErr != nil {
		return "", false, nil
	}

	// Keep this bounded so a broken gh config or credential helper
	// doesn't hang the run.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	env := os.Environ()
	filteredEnv := env[:0]
	for _, entry := range env {
		if strings.HasPrefix(entry, "GH_PAGER=") {
			continue
		}
		filteredEnv = append(filteredEnv, entry)
	}
	cmd.Env = append(filteredEnv, "GH_PAGER=cat")
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if cmdCtx.Err() != nil {
			return "", false, cmdCtx.Err()
		}
		// gh present but not logged in: treat as "no token" and don't surface its output.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}

	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}

	return tok, true, nil
}

package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeGHStub(t *testing.T, script string) string {
	t.Helper()
	tmp := t.TempDir()
	ghPath := filepath.Join(tmp, "gh")
	if err := os.WriteFile(ghPath, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile gh stub failed: %v", err)
	}
	return tmp
}

func writeProperties(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.properties")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile properties failed: %v", err)
	}
	return path
}

func TestResolveAuthToken(t *testing.T) {
	t.Run("explicit token wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())
		props := writeProperties(t, "github.token=props-token\n")

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{Explicit: " explicit ", PropertiesFile: props})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "explicit" {
			t.Fatalf("want explicit, got %q", tok)
		}
		if src != AuthTokenSourceExplicit {
			t.Fatalf("want %q, got %q", AuthTokenSourceExplicit, src)
		}
	})

	t.Run("properties token beats env", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())
		props := writeProperties(t, "sdk.dir=/opt/android\ngithub.token = props-token\n")

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{PropertiesFile: props})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "props-token" {
			t.Fatalf("want props-token, got %q", tok)
		}
		if src != AuthTokenSourceProperties {
			t.Fatalf("want %q, got %q", AuthTokenSourceProperties, src)
		}
	})

	t.Run("empty properties value falls through to env", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())
		props := writeProperties(t, "github.token=\n")

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{PropertiesFile: props})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "env-token" || src != AuthTokenSourceEnv {
			t.Fatalf("want env-token from env, got %q from %q", tok, src)
		}
	})

	t.Run("missing properties file is not an error", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{PropertiesFile: filepath.Join(t.TempDir(), "nope.properties")})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "env-token" || src != AuthTokenSourceEnv {
			t.Fatalf("want env-token from env, got %q from %q", tok, src)
		}
	})

	t.Run("gh token used when env empty", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("test uses a shell script gh stub")
		}

		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "#!/bin/sh\necho gh-token\n"))

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "gh-token" {
			t.Fatalf("want gh-token, got %q", tok)
		}
		if src != AuthTokenSourceGitHubCL {
			t.Fatalf("want %q, got %q", AuthTokenSourceGitHubCL, src)
		}
	})

	t.Run("gh disabled", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("test uses a shell script gh stub")
		}

		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "#!/bin/sh\necho gh-token\n"))

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{DisableGitHubCLI: true})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" || src != "" {
			t.Fatalf("want no token, got %q from %q", tok, src)
		}
	})

	t.Run("empty when nothing configured", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), TokenSources{})
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" {
			t.Fatalf("want empty token, got %q", tok)
		}
		if src != "" {
			t.Fatalf("want empty source, got %q", src)
		}
	})

	t.Run("gh invalid token output returns error", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("test uses a shell script gh stub")
		}

		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "#!/bin/sh\nprintf 'line1\\nline2\\n'\n"))

		_, _, err := ResolveAuthToken(context.Background(), TokenSources{})
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("context canceled propagates error when using gh", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("test uses a shell script gh stub")
		}

		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "#!/bin/sh\necho gh-token\n"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := ResolveAuthToken(ctx, TokenSources{})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

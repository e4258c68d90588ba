package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// projectNameStrip lists the fragments removed from the project directory
// name before it becomes the last segment of the Maven group.
var projectNameStrip = []string{"compose_", "compose-", "compose", "_ffmpeg"}

// DeriveKeyword returns the Maven group the project publishes under,
// com.<author>.<project>. The author is trimmed but keeps its case; project
// is the lowercased directory name of projectDir with the projectNameStrip
// fragments removed.
func DeriveKeyword(author, projectDir string) (string, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		return "", errors.New("author is empty")
	}
	if strings.ContainsAny(author, "./ ") {
		return "", fmt.Errorf("invalid author %q", author)
	}

	if projectDir == "" {
		projectDir = "."
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	name := ProjectName(filepath.Base(abs))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("cannot derive project name from %q", projectDir)
	}
	return "com." + author + "." + name, nil
}

// ProjectName normalizes a project directory name.
func ProjectName(dirName string) string {
	name := strings.ToLower(dirName)
	for _, frag := range projectNameStrip {
		name = strings.ReplaceAll(name, frag, "")
	}
	return name
}

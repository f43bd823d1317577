package renderer

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets/template.html
var builtinTemplate []byte

// EnsureTemplate materializes the built-in scene template under dir and
// returns its path. An existing file is rewritten only when its content has
// drifted from the embedded copy.
func EnsureTemplate(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create template directory: %w", err)
	}
	path := filepath.Join(dir, "template.html")
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, builtinTemplate) {
		return path, nil
	}
	if err := os.WriteFile(path, builtinTemplate, 0o644); err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}
	return path, nil
}

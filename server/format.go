package server

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Format is the syntax of a configuration document.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatFromPath returns the Format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", errors.Errorf("unsupported file extension %q (expected .toml, .yaml, or .yml)", ext)
	}
}

func (f Format) String() string {
	return string(f)
}

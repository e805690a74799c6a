package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vixscript/vixpip/internal/branding"
)

// Permission constants.
const (
	DirPermNormal  os.FileMode = 0755
	FilePermNormal os.FileMode = 0644
)

// GetHomeRoot returns the path to the tool's dot-directory (~/.vixscript).
func GetHomeRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// GetExtensionsRoot returns the path to the extension root.
// It checks the VIXPIP_EXTENSIONS environment variable first,
// then falls back to ~/.vixscript/extensions.
func GetExtensionsRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("EXTENSIONS")); v != "" {
		return v, nil
	}
	root, err := GetHomeRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, branding.ExtensionsDir()), nil
}

// EnsureDir creates dir and any missing parents. An existing directory is fine.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, DirPermNormal); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

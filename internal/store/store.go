// Package store manages the extension root: a flat directory in which every
// installed package is a subdirectory named after the package. Nothing else
// is recorded; a package is installed exactly when its directory exists.
//
// No locking is done. Two processes installing or removing the same name at
// once race, and the last writer wins file by file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vixscript/vixpip/internal/userdata"
)

var (
	ErrNotInstalled = errors.New("is not installed")
	ErrInvalidName  = errors.New("invalid package name")
)

// Store is the on-disk package directory rooted at a single extension root.
type Store struct {
	root string
}

// New returns a Store rooted at root. The directory is created lazily.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the extension root.
func (s *Store) Root() string { return s.root }

// Ensure creates the extension root if it is missing.
func (s *Store) Ensure() error {
	return userdata.EnsureDir(s.root)
}

// ValidateName rejects names that are not a single path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// PackageDir returns the directory a package is installed into.
func (s *Store) PackageDir(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// ArchivePath returns the transient download location for a package.
func (s *Store) ArchivePath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.root, name+".zip"), nil
}

// Installed reports whether a directory for name exists.
func (s *Store) Installed(name string) (bool, error) {
	dir, err := s.PackageDir(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", dir, err)
	}
	return info.IsDir(), nil
}

// List returns the names of the immediate subdirectories of the root,
// creating the root first. Order follows the directory read and is not
// part of the contract. Symlinks to directories count as packages.
func (s *Store) List() ([]string, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading extension root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(s.root, entry.Name()))
			isDir = err == nil && info.IsDir()
		}
		if isDir {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Uninstall recursively deletes the package directory. The removal is not
// atomic; a crash part-way leaves a partial tree behind.
func (s *Store) Uninstall(name string) error {
	dir, err := s.PackageDir(name)
	if err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s %w", name, ErrNotInstalled)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	return nil
}

// Leftovers returns the package names whose transient archive is still in
// the root, i.e. a download or extraction that did not finish.
func (s *Store) Leftovers() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading extension root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ".zip") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".zip"))
		}
	}
	return names, nil
}

// RemoveArchive deletes the transient archive for name, if present.
func (s *Store) RemoveArchive(name string) error {
	path, err := s.ArchivePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

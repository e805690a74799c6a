// Package archive extracts downloaded zip archives into a package
// directory, flattening a single common top-level folder.
//
// The top folder is guessed from the FIRST entry only: if its name
// contains "/", everything before the first "/" is the top folder.
// Every entry whose name starts with that string has it (plus one
// separator byte) removed; other entries are extracted unchanged. Archives
// whose entries do not share the first entry's top folder therefore end up
// partially nested. This matches the behavior packages already rely on.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vixscript/vixpip/internal/userdata"
)

var (
	ErrEmptyArchive = errors.New("archive has no entries")
	ErrUnsafePath   = errors.New("archive entry escapes target directory")
)

// Stats counts what an extraction produced.
type Stats struct {
	Files   int
	Dirs    int
	Skipped int
}

// TopFolder returns the common top folder implied by the first entry
// name, or "" when the first name has no "/".
func TopFolder(names []string) string {
	if len(names) == 0 {
		return ""
	}
	first := names[0]
	if i := strings.Index(first, "/"); i >= 0 {
		return first[:i]
	}
	return ""
}

// StripTop removes top and the byte after it from name when top is set and
// name starts with it. The check is a plain string prefix, so with top
// "pkg" the name "pkgextra/a" becomes "xtra/a".
func StripTop(name, top string) string {
	if top == "" || !strings.HasPrefix(name, top) {
		return name
	}
	if len(name) <= len(top)+1 {
		return ""
	}
	return name[len(top)+1:]
}

// Extract unpacks the zip at zipPath into targetDir. Files already written
// stay on disk when a later entry fails.
func Extract(zipPath, targetDir string) (*Stats, error) {
	// Insecure names are checked per entry by safeJoin.
	r, err := zip.OpenReader(zipPath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("opening zip archive: %w", err)
	}
	defer r.Close()

	if len(r.File) == 0 {
		return nil, ErrEmptyArchive
	}

	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	top := TopFolder(names)

	stats := &Stats{}
	for _, f := range r.File {
		rel := StripTop(f.Name, top)
		if rel == "" {
			stats.Skipped++
			continue
		}

		dest, err := safeJoin(targetDir, rel)
		if err != nil {
			return stats, err
		}

		if strings.HasSuffix(f.Name, "/") {
			if err := userdata.EnsureDir(dest); err != nil {
				return stats, err
			}
			stats.Dirs++
			continue
		}

		if err := userdata.EnsureDir(filepath.Dir(dest)); err != nil {
			return stats, err
		}
		if err := writeEntry(f, dest); err != nil {
			return stats, err
		}
		stats.Files++
	}

	return stats, nil
}

// writeEntry copies the decompressed bytes of f to dest verbatim.
func writeEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, userdata.FilePermNormal)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}

// safeJoin joins rel onto root and rejects results outside root.
func safeJoin(root, rel string) (string, error) {
	root = filepath.Clean(root)
	dest := filepath.Join(root, filepath.FromSlash(rel))
	if dest != root && !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return dest, nil
}

// Package installer runs the install pipeline: look the package up in the
// index, download its archive next to the package directory, extract it
// with top-folder flattening, and delete the archive.
//
// Nothing is rolled back. A failed download leaves the partial archive; a
// failed extraction leaves both the archive and every file written so far.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vixscript/vixpip/internal/archive"
	"github.com/vixscript/vixpip/internal/index"
	"github.com/vixscript/vixpip/internal/store"
)

var (
	ErrDownload = errors.New("download failed")
	ErrExtract  = errors.New("failed to extract")
)

// Lookuper resolves a package name to its index entry.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (index.Entry, error)
}

// Downloader saves the resource at url to destPath.
type Downloader interface {
	Download(ctx context.Context, url, destPath string) (int64, error)
}

// Installer installs packages into a Store.
type Installer struct {
	lookup     Lookuper
	downloader Downloader
	store      *store.Store
	out        io.Writer
	logger     *log.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithOutput sets where progress messages are printed.
func WithOutput(w io.Writer) Option {
	return func(i *Installer) {
		i.out = w
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// New creates an Installer.
func New(lookup Lookuper, downloader Downloader, st *store.Store, opts ...Option) *Installer {
	i := &Installer{
		lookup:     lookup,
		downloader: downloader,
		store:      st,
		out:        io.Discard,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = log.New(io.Discard)
	}
	return i
}

// Install installs name. A package missing from the index and an index
// that could not be fetched both return an error matching index.ErrNotFound;
// in the latter case the fetch failure is printed first.
func (i *Installer) Install(ctx context.Context, name string) error {
	targetDir, err := i.store.PackageDir(name)
	if err != nil {
		return err
	}
	zipPath, err := i.store.ArchivePath(name)
	if err != nil {
		return err
	}

	entry, err := i.lookup.Lookup(ctx, name)
	if err != nil {
		var nf *index.NotFoundError
		if errors.As(err, &nf) && nf.FetchErr != nil {
			fmt.Fprintf(i.out, "failed to fetch package index: %v\n", nf.FetchErr)
		}
		return err
	}
	i.logger.Debug("resolved package", "name", name, "url", entry.URL)

	if err := i.store.Ensure(); err != nil {
		return err
	}

	fmt.Fprintf(i.out, "downloading %s...\n", name)
	n, err := i.downloader.Download(ctx, entry.URL, zipPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	i.logger.Debug("downloaded archive", "path", zipPath, "bytes", n)

	stats, err := archive.Extract(zipPath, targetDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}
	i.logger.Debug("extracted archive", "target", targetDir, "files", stats.Files, "dirs", stats.Dirs, "skipped", stats.Skipped)

	if err := os.Remove(zipPath); err != nil {
		return fmt.Errorf("%w: removing archive: %w", ErrExtract, err)
	}

	fmt.Fprintf(i.out, "%s installed successfully!\n", name)
	return nil
}

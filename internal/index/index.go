package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
)

var (
	// ErrNotFound matches a NotFoundError.
	ErrNotFound = errors.New("package not found in index")
	// ErrInvalidEntry is returned when an index entry fails schema validation.
	ErrInvalidEntry = errors.New("invalid index entry")
)

// Getter fetches a URL and returns the response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Index maps package names to their raw JSON metadata.
type Index map[string]json.RawMessage

// Result is the outcome of loading the index. A failed load carries an
// empty Index and the cause in Err, so "empty index" and "fetch failed"
// stay distinguishable even though install treats them the same.
type Result struct {
	Index Index
	Err   error
}

// Entry is the decoded metadata of one package.
type Entry struct {
	Name        string
	URL         string
	Version     string
	Description string
	Author      string
}

// NotFoundError reports a package missing from the index. FetchErr is set
// when the index itself could not be loaded.
type NotFoundError struct {
	Name     string
	FetchErr error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %s not found in index", e.Name)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.FetchErr }

// Fetcher loads the index from a fixed URL.
type Fetcher struct {
	url    string
	client Getter
	logger *log.Logger
}

// NewFetcher returns a Fetcher for the index at url. A nil logger discards output.
func NewFetcher(url string, client Getter, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{url: url, client: client, logger: logger}
}

// URL returns the index location.
func (f *Fetcher) URL() string { return f.url }

// Load performs a single GET of the index and parses it. It never panics;
// any failure is returned in Result.Err alongside an empty index.
func (f *Fetcher) Load(ctx context.Context) Result {
	body, err := f.client.Get(ctx, f.url)
	if err != nil {
		return Result{Index: Index{}, Err: err}
	}

	idx, err := Parse(body)
	if err != nil {
		return Result{Index: Index{}, Err: err}
	}
	f.logger.Debug("loaded package index", "url", f.url, "packages", len(idx))
	return Result{Index: idx}
}

// Lookup loads the index and returns the entry for name. A missing name
// or a failed load both yield a *NotFoundError.
func (f *Fetcher) Lookup(ctx context.Context, name string) (Entry, error) {
	res := f.Load(ctx)
	if !res.Index.Has(name) {
		return Entry{}, &NotFoundError{Name: name, FetchErr: res.Err}
	}
	return res.Index.Entry(name)
}

// Parse decodes an index document. The body must be UTF-8 JSON whose top
// level is an object; a JSON null yields an empty index.
func Parse(body []byte) (Index, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("decoding index: invalid UTF-8")
	}
	var idx Index
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("parsing index JSON: %w", err)
	}
	if idx == nil {
		idx = Index{}
	}
	return idx, nil
}

// Has reports whether name is in the index.
func (idx Index) Has(name string) bool {
	_, ok := idx[name]
	return ok
}

// Names returns the package names in sorted order.
func (idx Index) Names() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Entry validates and decodes the metadata for name.
func (idx Index) Entry(name string) (Entry, error) {
	raw, ok := idx[name]
	if !ok {
		return Entry{}, &NotFoundError{Name: name}
	}

	issues, err := validateEntry(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("validating %s: %w", name, err)
	}
	if len(issues) > 0 {
		return Entry{}, fmt.Errorf("%w %q: %s", ErrInvalidEntry, name, strings.Join(issues, "; "))
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, fmt.Errorf("decoding entry %q: %w", name, err)
	}
	return Entry{
		Name:        name,
		URL:         fields["url"].(string),
		Version:     stringField(fields, "version"),
		Description: stringField(fields, "description"),
		Author:      stringField(fields, "author"),
	}, nil
}

// DisplayVersion returns the version normalized to semver form when it
// parses, the raw value otherwise, or "-" when absent.
func (e Entry) DisplayVersion() string {
	if e.Version == "" {
		return "-"
	}
	v, err := semver.NewVersion(strings.TrimPrefix(e.Version, "v"))
	if err != nil {
		return e.Version
	}
	return v.String()
}

// stringField returns a metadata field as text. Non-string scalars are
// formatted; missing fields and containers yield "".
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

//go:build integration

package integration_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/vixscript/vixpip/internal/config"
	"github.com/vixscript/vixpip/internal/fetch"
	"github.com/vixscript/vixpip/internal/index"
	"github.com/vixscript/vixpip/internal/installer"
	"github.com/vixscript/vixpip/internal/store"
)

// testEnv holds an isolated extension root and a fake package registry.
type testEnv struct {
	Root     string
	Registry *registry
	Out      *bytes.Buffer
}

// registry serves extensions.json and the archives it points at.
type registry struct {
	server *httptest.Server

	mu       sync.Mutex
	archives map[string][]byte
	extra    map[string]string // raw index entries keyed by name
	down     bool
}

// setupTestEnv sandboxes config and the extension root and starts a registry.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	reg := &registry{archives: map[string][]byte{}, extra: map[string]string{}}
	reg.server = httptest.NewServer(http.HandlerFunc(reg.serve))
	t.Cleanup(reg.server.Close)

	env := &testEnv{
		Root:     filepath.Join(dir, "extensions"),
		Registry: reg,
		Out:      &bytes.Buffer{},
	}

	t.Setenv("VIXPIP_CONFIG", filepath.Join(dir, "vixpip.yaml"))
	t.Setenv("VIXPIP_EXTENSIONS", env.Root)
	t.Setenv("VIXPIP_INDEX_URL", reg.server.URL+"/extensions.json")
	t.Setenv("VIXPIP_TIMEOUT", "5s")
	return env
}

func (r *registry) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.down {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
		return
	}
	if req.URL.Path == "/extensions.json" {
		var parts []string
		for name := range r.archives {
			parts = append(parts, fmt.Sprintf("%q: {\"url\": %q}", name, r.server.URL+"/pkg/"+name+".zip"))
		}
		for name, raw := range r.extra {
			parts = append(parts, fmt.Sprintf("%q: %s", name, raw))
		}
		sort.Strings(parts)
		fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
		return
	}
	name, ok := strings.CutPrefix(req.URL.Path, "/pkg/")
	if !ok {
		http.NotFound(w, req)
		return
	}
	data, ok := r.archives[strings.TrimSuffix(name, ".zip")]
	if !ok {
		http.NotFound(w, req)
		return
	}
	_, _ = w.Write(data)
}

// publish adds a package whose archive contains entries in order. Names
// ending in "/" become directory entries.
func (r *registry) publish(t *testing.T, name string, entries ...string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		w, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", entry, err)
		}
		if !strings.HasSuffix(entry, "/") {
			fmt.Fprintf(w, "%s:%s", name, entry)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}

	r.mu.Lock()
	r.archives[name] = buf.Bytes()
	r.mu.Unlock()
}

// publishRaw adds an index entry verbatim.
func (r *registry) publishRaw(name, raw string) {
	r.mu.Lock()
	r.extra[name] = raw
	r.mu.Unlock()
}

func (r *registry) setDown(down bool) {
	r.mu.Lock()
	r.down = down
	r.mu.Unlock()
}

// newInstaller wires the components from the sandboxed settings, the same
// way the CLI does.
func newInstaller(t *testing.T, env *testEnv) (*installer.Installer, *store.Store) {
	t.Helper()

	settings, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if settings.ExtensionsRoot != env.Root {
		t.Fatalf("extension root = %s, want %s", settings.ExtensionsRoot, env.Root)
	}

	client := fetch.New(fetch.WithTimeout(settings.Timeout), fetch.WithRetries(settings.Retries))
	st := store.New(settings.ExtensionsRoot)
	inst := installer.New(index.NewFetcher(settings.IndexURL, client, nil), client, st,
		installer.WithOutput(env.Out))
	return inst, st
}

// snapshot returns every path under root, relative and slash-separated.
func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." {
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return paths
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(data) != want {
		t.Errorf("%s = %q, want %q", path, data, want)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s not to exist (err=%v)", path, err)
	}
}

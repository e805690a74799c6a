//go:build integration

package integration_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vixscript/vixpip/internal/index"
	"github.com/vixscript/vixpip/internal/installer"
)

// TestInstallListUninstallFlow covers install -> list -> uninstall -> list.
func TestInstallListUninstallFlow(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publish(t, "colors", "colors-1.0/", "colors-1.0/init.vix", "colors-1.0/lib/", "colors-1.0/lib/rgb.vix")
	env.Registry.publish(t, "strings", "strings-main/mod.vix")

	inst, st := newInstaller(t, env)
	ctx := context.Background()

	for _, name := range []string{"colors", "strings"} {
		if err := inst.Install(ctx, name); err != nil {
			t.Fatalf("Install(%s): %v", name, err)
		}
	}

	names, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !slices.Equal(names, []string{"colors", "strings"}) {
		t.Errorf("List = %v", names)
	}

	assertFileContent(t, filepath.Join(env.Root, "colors", "init.vix"), "colors:colors-1.0/init.vix")
	assertFileContent(t, filepath.Join(env.Root, "colors", "lib", "rgb.vix"), "colors:colors-1.0/lib/rgb.vix")
	assertFileContent(t, filepath.Join(env.Root, "strings", "mod.vix"), "strings:strings-main/mod.vix")
	assertNotExists(t, filepath.Join(env.Root, "colors.zip"))

	if err := st.Uninstall("colors"); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	names, _ = st.List()
	if !slices.Equal(names, []string{"strings"}) {
		t.Errorf("List after uninstall = %v", names)
	}

	want := "downloading colors...\ncolors installed successfully!\ndownloading strings...\nstrings installed successfully!\n"
	if env.Out.String() != want {
		t.Errorf("output = %q, want %q", env.Out.String(), want)
	}
}

// TestInstallFlatArchive keeps the layout when the first entry has no folder.
func TestInstallFlatArchive(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publish(t, "flat", "init.vix", "docs/readme.md")

	inst, _ := newInstaller(t, env)
	if err := inst.Install(context.Background(), "flat"); err != nil {
		t.Fatalf("Install: %v", err)
	}

	got := snapshot(t, filepath.Join(env.Root, "flat"))
	want := []string{"docs", "docs/readme.md", "init.vix"}
	if !slices.Equal(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
}

// TestReinstallOverlays leaves files from the previous install in place.
func TestReinstallOverlays(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publish(t, "colors", "colors/old.vix", "colors/init.vix")

	inst, _ := newInstaller(t, env)
	ctx := context.Background()
	if err := inst.Install(ctx, "colors"); err != nil {
		t.Fatalf("first Install: %v", err)
	}

	env.Registry.publish(t, "colors", "colors/init.vix")
	if err := inst.Install(ctx, "colors"); err != nil {
		t.Fatalf("second Install: %v", err)
	}

	got := snapshot(t, filepath.Join(env.Root, "colors"))
	if !slices.Equal(got, []string{"init.vix", "old.vix"}) {
		t.Errorf("tree = %v", got)
	}
}

// TestUnknownPackageLeavesStoreUnchanged installs a name the index lacks.
func TestUnknownPackageLeavesStoreUnchanged(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publish(t, "colors", "colors/init.vix")

	inst, _ := newInstaller(t, env)
	ctx := context.Background()
	if err := inst.Install(ctx, "colors"); err != nil {
		t.Fatalf("Install: %v", err)
	}
	before := snapshot(t, env.Root)

	err := inst.Install(ctx, "ghost")
	if !errors.Is(err, index.ErrNotFound) {
		t.Fatalf("Install(ghost) error = %v, want ErrNotFound", err)
	}
	if err.Error() != "package ghost not found in index" {
		t.Errorf("message = %q", err.Error())
	}

	if after := snapshot(t, env.Root); !slices.Equal(before, after) {
		t.Errorf("store changed: before %v, after %v", before, after)
	}
}

// TestIndexDownWritesNothing covers an index fetch failure.
func TestIndexDownWritesNothing(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publish(t, "colors", "colors/init.vix")
	env.Registry.setDown(true)

	inst, _ := newInstaller(t, env)
	err := inst.Install(context.Background(), "colors")
	if !errors.Is(err, index.ErrNotFound) {
		t.Fatalf("Install error = %v, want ErrNotFound", err)
	}
	if !strings.HasPrefix(env.Out.String(), "failed to fetch package index: ") {
		t.Errorf("output = %q", env.Out.String())
	}
	assertNotExists(t, filepath.Join(env.Root, "colors"))
	assertNotExists(t, filepath.Join(env.Root, "colors.zip"))
}

// TestEntryWithoutURL is rejected before any download.
func TestEntryWithoutURL(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publishRaw("broken", `{"version": "1.0.0"}`)

	inst, _ := newInstaller(t, env)
	err := inst.Install(context.Background(), "broken")
	if !errors.Is(err, index.ErrInvalidEntry) {
		t.Fatalf("Install error = %v, want ErrInvalidEntry", err)
	}
	assertNotExists(t, filepath.Join(env.Root, "broken"))
}

// TestDownloadFailureStops reports the failure and leaves no package dir.
func TestDownloadFailureStops(t *testing.T) {
	env := setupTestEnv(t)
	env.Registry.publishRaw("missing", `{"url": "`+env.Registry.server.URL+`/pkg/nothing.zip"}`)

	inst, _ := newInstaller(t, env)
	err := inst.Install(context.Background(), "missing")
	if !errors.Is(err, installer.ErrDownload) {
		t.Fatalf("Install error = %v, want ErrDownload", err)
	}
	if !strings.HasPrefix(err.Error(), "download failed: ") {
		t.Errorf("message = %q", err.Error())
	}
	assertNotExists(t, filepath.Join(env.Root, "missing"))
}

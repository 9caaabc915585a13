package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mj1618/browser-host/internal/config"
	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/messaging"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/platform/headless"
	"github.com/mj1618/browser-host/internal/window"
)

func newTestApp(t *testing.T) (*App, *headless.Engine) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.ExtensionsDir = filepath.Join(cfg.DataDir, "extensions")
	cfg.AppPath = "/app"

	e := headless.New()
	a, err := New(cfg, e.Provider(), nil, WithScheduler(window.NewManualScheduler()))
	if err != nil {
		t.Fatal(err)
	}
	return a, e
}

func TestNew_LoadsExtensions(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.ExtensionsDir = filepath.Join(cfg.DataDir, "extensions")
	for _, name := range []string{"alpha", "beta"} {
		if err := os.MkdirAll(filepath.Join(cfg.ExtensionsDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(cfg.ExtensionsDir, "README"), []byte("not an extension"), 0o644)

	e := headless.New()
	a, err := New(cfg, e.Provider(), nil)
	if err != nil {
		t.Fatal(err)
	}

	paths := a.Messaging().ExtensionPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 extensions, got %v", paths)
	}
	if paths["alpha"] != filepath.Join(cfg.ExtensionsDir, "alpha") {
		t.Errorf("alpha path: %s", paths["alpha"])
	}
}

func TestNew_MissingExtensionsDir(t *testing.T) {
	a, _ := newTestApp(t)
	if n := len(a.Messaging().ExtensionPaths()); n != 0 {
		t.Errorf("expected no extensions, got %d", n)
	}
}

func TestNewWindow_RegistersAndFocuses(t *testing.T) {
	a, _ := newTestApp(t)
	w, err := a.NewWindow(false)
	if err != nil {
		t.Fatal(err)
	}

	if cur := a.Windows().Current(); cur == nil || cur.ID() != w.ID() {
		t.Errorf("new window should be current, got %v", cur)
	}
	if got, ok := a.Window(w.ID()); !ok || got != w {
		t.Error("window lookup failed")
	}
	for _, ch := range []string{
		window.Scoped(window.ChannelClose, w.ID()),
		window.Scoped(window.ChannelToggleMaximize, w.ID()),
	} {
		found := false
		for _, registered := range a.Bus().Channels() {
			if registered == ch {
				found = true
			}
		}
		if !found {
			t.Errorf("channel %s not registered", ch)
		}
	}
}

func TestBackgroundPageCreatesTabInFocusedWindow(t *testing.T) {
	a, e := newTestApp(t)
	w, err := a.NewWindow(false)
	if err != nil {
		t.Fatal(err)
	}
	bg, err := e.SpawnView(platform.SpawnOptions{Type: platform.ViewBackgroundPage})
	if err != nil {
		t.Fatal(err)
	}

	got, err := a.Bus().Invoke(context.Background(), bg, messaging.ChannelTabsCreate,
		ipc.MustArgs(model.CreateProperties{URL: "https://example.com/"}))
	if err != nil {
		t.Fatal(err)
	}
	tab := got.(*model.Tab)
	if tab == nil {
		t.Fatal("expected tab in focused window")
	}
	if tab.WindowID != w.Native().WebContents().ID() {
		t.Errorf("tab windowId %d, want ui view %d", tab.WindowID, w.Native().WebContents().ID())
	}
}

func TestClose_PersistsAndEmptiesRegistry(t *testing.T) {
	a, e := newTestApp(t)
	w1, _ := a.NewWindow(false)
	w2, _ := a.NewWindow(true)
	e.Window(w1.ID()).Resize(model.Bounds{Width: 1024, Height: 768})
	e.Window(w2.ID()).Resize(model.Bounds{Width: 800, Height: 600})

	a.Close()

	if n := len(a.Windows().All()); n != 0 {
		t.Errorf("windows left: %d", n)
	}
	if w1.State() != window.StateDestroyed || w2.State() != window.StateDestroyed {
		t.Error("every window should be destroyed")
	}
	// Windows share one record; the last one closed wins.
	if got := a.Placement().Load(); got.Bounds == nil || got.Bounds.Width != 800 {
		t.Errorf("placement should be saved on close, got %+v", got.Bounds)
	}
	if clears := e.CacheClears(); len(clears) != 1 {
		t.Errorf("cache clears: %v", clears)
	}
}

func TestClosedWindowTabsLeaveQuery(t *testing.T) {
	a, e := newTestApp(t)
	keep, _ := a.NewWindow(false)
	closing, _ := a.NewWindow(false)
	bg, err := e.SpawnView(platform.SpawnOptions{Type: platform.ViewBackgroundPage})
	if err != nil {
		t.Fatal(err)
	}

	got, err := a.Bus().Invoke(context.Background(), bg, messaging.ChannelTabsCreate,
		ipc.MustArgs(model.CreateProperties{URL: "https://example.com/"}))
	if err != nil {
		t.Fatal(err)
	}
	tab := got.(*model.Tab)
	if tab == nil || tab.WindowID != closing.Native().WebContents().ID() {
		t.Fatalf("tab should land in the focused window: %+v", tab)
	}

	closing.Close()

	for _, v := range a.Messaging().QueryTabs(bg) {
		if v.ID == tab.ID {
			t.Errorf("tab %d of closed window %d still returned", tab.ID, closing.ID())
		}
	}
	if id, ok := bg.Session().LastFocusedWindow(); ok && id == closing.ID() {
		t.Error("closed window should not stay last focused")
	}

	// With no focused window left, a background page has no target.
	got, err = a.Bus().Invoke(context.Background(), bg, messaging.ChannelTabsCreate,
		ipc.MustArgs(model.CreateProperties{URL: "https://example.com/"}))
	if err != nil {
		t.Fatal(err)
	}
	if got.(*model.Tab) != nil {
		t.Errorf("expected no target window, got %+v", got)
	}
	if keep.State() != window.StateActive {
		t.Errorf("other window state: %s", keep.State())
	}
}

package window

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/placement"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/platform/headless"
	"github.com/mj1618/browser-host/internal/registry"
)

type harness struct {
	engine *headless.Engine
	bus    *ipc.Bus
	reg    *registry.Registry
	store  *placement.Store
	sched  *ManualScheduler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		engine: headless.New(),
		bus:    ipc.NewBus(nil),
		reg:    registry.New(),
		store:  placement.NewStore(filepath.Join(t.TempDir(), "window-data.json"), nil),
		sched:  NewManualScheduler(),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Windows:   h.engine,
		Overlays:  h.engine,
		Sessions:  h.engine,
		Bus:       h.bus,
		Registry:  h.reg,
		Placement: h.store,
		Scheduler: h.sched,
	}
}

func (h *harness) open(t *testing.T, opts Options) (*AppWindow, *headless.Window) {
	t.Helper()
	if opts.AppPath == "" {
		opts.AppPath = "/app"
	}
	if opts.RelayoutDelay == 0 {
		opts.RelayoutDelay = 500 * time.Millisecond
	}
	w, err := New(opts, h.deps())
	if err != nil {
		t.Fatal(err)
	}
	h.reg.Register(w)
	return w, h.engine.Window(w.ID())
}

func indexOf(ops []string, op string) int {
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	return -1
}

func TestNew_NativeOptions(t *testing.T) {
	h := newHarness(t)
	_, nw := h.open(t, Options{AppPath: "/opt/browser"})

	opts := nw.Options()
	if opts.Frame || opts.MinWidth != 400 || opts.MinHeight != 450 || opts.Width != 900 || opts.Height != 700 {
		t.Errorf("geometry options: %+v", opts)
	}
	if opts.TitleBarStyle != "hiddenInset" || opts.BackgroundColor != "#ffffff" {
		t.Errorf("style options: %+v", opts)
	}
	if opts.Icon != filepath.Join("/opt/browser", "static", "app-icons", "icon.png") {
		t.Errorf("icon: %s", opts.Icon)
	}
	wp := opts.WebPreferences
	if !wp.Plugins || !wp.NodeIntegration || wp.ContextIsolation || !wp.JavaScript {
		t.Errorf("web preferences: %+v", wp)
	}
	if nw.URL() != "file:///opt/browser/build/app.html" {
		t.Errorf("ui url: %s", nw.URL())
	}
}

func TestNew_DevMode(t *testing.T) {
	h := newHarness(t)
	_, nw := h.open(t, Options{DevMode: true, DevServerURL: "http://localhost:4444/app.html"})

	ops := nw.Ops()
	dev := indexOf(ops, "openDevTools:detach")
	load := indexOf(ops, "loadURL:http://localhost:4444/app.html")
	if dev < 0 || load < 0 || dev > load {
		t.Errorf("expected devtools then dev server load, got %v", ops)
	}
}

func TestNew_AppliesPlacementBeforeLoad(t *testing.T) {
	h := newHarness(t)
	want := model.Bounds{X: 5, Y: 6, Width: 1200, Height: 900}
	if err := h.store.Save(model.Placement{Bounds: &want, Maximized: true}); err != nil {
		t.Fatal(err)
	}

	w, nw := h.open(t, Options{})
	ops := nw.Ops()
	setBounds := indexOf(ops, "setBounds")
	maximize := indexOf(ops, "maximize")
	load := indexOf(ops, "loadURL:"+UIURL(Options{AppPath: "/app"}))
	if setBounds < 0 || maximize < 0 || load < 0 {
		t.Fatalf("missing ops: %v", ops)
	}
	if !(setBounds < maximize && maximize < load) {
		t.Errorf("placement must be applied before load, got %v", ops)
	}
	if nw.Bounds() != want {
		t.Errorf("bounds: got %+v, want %+v", nw.Bounds(), want)
	}
	if indexOf(ops, "setFullScreen:true") >= 0 {
		t.Error("fullscreen was not requested")
	}
	if w.State() != StateActive {
		t.Errorf("state: %s", w.State())
	}
}

func TestNew_MissingPlacementWritesEmptyRecord(t *testing.T) {
	h := newHarness(t)
	_, nw := h.open(t, Options{})

	data, err := os.ReadFile(h.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("placement file: %q", data)
	}
	if indexOf(nw.Ops(), "setBounds") >= 0 {
		t.Error("no bounds should be applied without a record")
	}
}

func TestResize_PolicyAndBounds(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})

	b := model.Bounds{X: 1, Y: 2, Width: 800, Height: 600}
	nw.Resize(b)

	for _, role := range Roles {
		r, hides, _ := h.engine.DialogFor(w.ID(), role).Counts()
		switch role {
		case platform.DialogMenu:
			if r != 0 || hides != 1 {
				t.Errorf("menu: rearranges=%d hides=%d", r, hides)
			}
		case platform.DialogPreview:
			if r != 0 || hides != 0 {
				t.Errorf("preview should be untouched: rearranges=%d hides=%d", r, hides)
			}
		default:
			if r != 1 || hides != 0 {
				t.Errorf("%s: rearranges=%d hides=%d", role, r, hides)
			}
		}
	}
	if got := w.Placement().Bounds; got == nil || *got != b {
		t.Errorf("recorded bounds: %+v", got)
	}
}

func TestMove_IgnoredWhileMaximized(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})

	nw.Move(model.Bounds{X: 10, Y: 10, Width: 900, Height: 700})
	nw.Maximize()
	nw.Move(model.Bounds{X: 0, Y: 0, Width: 1920, Height: 1080})

	got := w.Placement().Bounds
	if got == nil || got.X != 10 || got.Width != 900 {
		t.Errorf("maximized move should not be recorded: %+v", got)
	}
}

func TestMaximize_SchedulesRelayout(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{RelayoutDelay: 500 * time.Millisecond})
	vm := h.engine.ViewManagerFor(w.ID())

	nw.Emit(platform.EventMaximize)
	if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 1 {
		t.Fatalf("expected immediate tabs-resize, got %d", n)
	}
	if vm.Fixes() != 0 {
		t.Error("fixBounds should be deferred")
	}

	h.sched.Advance(0)
	if vm.Fixes() != 1 {
		t.Errorf("fixBounds after zero delay: %d", vm.Fixes())
	}
	if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 1 {
		t.Errorf("second tabs-resize fired early: %d", n)
	}

	h.sched.Advance(500 * time.Millisecond)
	if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 2 {
		t.Errorf("expected delayed tabs-resize, got %d", n)
	}
}

func TestRestoreAndUnmaximize_Relayout(t *testing.T) {
	for _, ev := range []platform.WindowEvent{platform.EventRestore, platform.EventUnmaximize} {
		h := newHarness(t)
		_, nw := h.open(t, Options{})
		nw.Emit(ev)
		h.sched.Advance(time.Second)
		if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 2 {
			t.Errorf("%s: expected 2 tabs-resize, got %d", ev, n)
		}
	}
}

func TestClose_CancelsPendingRelayout(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})
	nw.Emit(platform.EventMaximize)
	w.Close()

	if h.sched.Pending() != 0 {
		t.Errorf("pending timers after close: %d", h.sched.Pending())
	}
}

func TestFullScreenEvents(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})
	vm := h.engine.ViewManagerFor(w.ID())

	nw.Emit(platform.EventEnterFullScreen)
	nw.Emit(platform.EventLeaveFullScreen)

	msgs := nw.UI().MessagesOn(ChannelFullscreen)
	if len(msgs) != 2 || msgs[0].Args[0] != true || msgs[1].Args[0] != false {
		t.Errorf("fullscreen messages: %+v", msgs)
	}
	if vm.Fixes() != 2 {
		t.Errorf("fixBounds: %d", vm.Fixes())
	}

	nw.Emit(platform.EventEnterHTMLFullScreen)
	if !vm.Fullscreen() {
		t.Error("view manager should be in html fullscreen")
	}
	nw.Emit(platform.EventLeaveHTMLFullScreen)
	if vm.Fullscreen() {
		t.Error("view manager should leave html fullscreen")
	}
	html := nw.UI().MessagesOn(ChannelHTMLFullscreen)
	if len(html) != 2 || html[0].Args[0] != true || html[1].Args[0] != false {
		t.Errorf("html-fullscreen messages: %+v", html)
	}
}

func TestScrollTouch(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})

	nw.Emit(platform.EventScrollTouchEnd)
	if len(nw.UI().MessagesOn(ChannelScrollTouchEnd)) != 1 {
		t.Error("ui should get scroll-touch-end without a selected view")
	}

	id, err := h.engine.CreateTab(context.Background(), model.CreateProperties{WindowID: w.ID()})
	if err != nil {
		t.Fatal(err)
	}
	tab := h.engine.View(id)

	nw.Emit(platform.EventScrollTouchBegin)
	nw.Emit(platform.EventScrollTouchEnd)
	if len(nw.UI().MessagesOn(ChannelScrollTouchBegin)) != 1 {
		t.Error("ui should get scroll-touch-begin")
	}
	if len(tab.MessagesOn(ChannelScrollTouchBegin)) != 0 {
		t.Error("selected view should not get scroll-touch-begin")
	}
	if len(tab.MessagesOn(ChannelScrollTouchEnd)) != 1 {
		t.Error("selected view should get scroll-touch-end")
	}
	if len(nw.UI().MessagesOn(ChannelScrollTouchEnd)) != 2 {
		t.Error("ui should get every scroll-touch-end")
	}
}

func TestFocus_UpdatesRegistryAndSessions(t *testing.T) {
	h := newHarness(t)
	a, _ := h.open(t, Options{})
	b, nb := h.open(t, Options{Incognito: true})

	nb.Emit(platform.EventFocus)
	if cur := h.reg.Current(); cur == nil || cur.ID() != b.ID() {
		t.Errorf("current: %v", cur)
	}
	if id, ok := h.engine.Session(headless.PartitionIncognito).LastFocusedWindow(); !ok || id != b.ID() {
		t.Errorf("incognito last focused: %d %v", id, ok)
	}
	if _, ok := h.engine.Session(headless.PartitionDefault).LastFocusedWindow(); ok {
		t.Error("default session should not see an incognito focus")
	}

	if err := a.Focus(); err != nil {
		t.Fatal(err)
	}
	if h.reg.Current().ID() != a.ID() {
		t.Error("Focus should move the current window")
	}
	if !a.Info().Focused || b.Info().Focused {
		t.Error("Info should reflect focus")
	}
}

func TestClose_Order(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})
	vm := h.engine.ViewManagerFor(w.ID())
	nw.Resize(model.Bounds{X: 3, Y: 4, Width: 1000, Height: 750})
	nw.SetFullScreen(true)
	channel := Scoped(ChannelMinimize, w.ID())

	w.Close()

	if w.State() != StateDestroyed {
		t.Errorf("state: %s", w.State())
	}
	var saved model.Placement
	data, _ := os.ReadFile(h.store.Path())
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Bounds == nil || saved.Bounds.Width != 1000 || !saved.Fullscreen || saved.Maximized {
		t.Errorf("saved placement: %s", data)
	}
	if indexOf(nw.Ops(), "setContentView:nil") < 0 {
		t.Error("content view should be detached")
	}
	for _, role := range Roles {
		if _, _, d := h.engine.DialogFor(w.ID(), role).Counts(); d != 1 {
			t.Errorf("%s destroyed %d times", role, d)
		}
	}
	if w.Dialogs().Get(platform.DialogMenu) != nil {
		t.Error("arena should be empty after close")
	}
	if !vm.Cleared() {
		t.Error("view manager should be cleared")
	}
	if err := h.bus.Emit(nil, channel, nil); !errors.Is(err, ipc.ErrNoHandler) {
		t.Errorf("scoped handler should be removed, got %v", err)
	}
	if _, ok := h.reg.Get(w.ID()); ok {
		t.Error("window should be unregistered")
	}
	if len(h.engine.CacheClears()) != 0 {
		t.Error("regular window must not clear the incognito cache")
	}
}

func TestClose_Twice(t *testing.T) {
	h := newHarness(t)
	w, _ := h.open(t, Options{Incognito: true})
	w.Close()
	w.Close()

	if got := len(h.engine.CacheClears()); got != 1 {
		t.Errorf("cache clears: %d", got)
	}
	if _, _, d := h.engine.DialogFor(w.ID(), platform.DialogFind).Counts(); d != 1 {
		t.Errorf("dialog destroyed %d times", d)
	}
	if err := w.Minimize(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestClose_LastIncognitoCleansUp(t *testing.T) {
	h := newHarness(t)
	first, _ := h.open(t, Options{Incognito: true})
	second, _ := h.open(t, Options{Incognito: true})
	normal, _ := h.open(t, Options{})

	first.Close()
	if len(h.engine.CacheClears()) != 0 || h.engine.Unloads() != 0 {
		t.Fatal("non-last incognito window must not clean up")
	}

	normal.Close()
	if len(h.engine.CacheClears()) != 0 {
		t.Fatal("regular window must not clean up")
	}

	second.Close()
	clears := h.engine.CacheClears()
	if len(clears) != 1 || clears[0] != IncognitoPartition {
		t.Errorf("cache clears: %v", clears)
	}
	if h.engine.Unloads() != 1 {
		t.Errorf("unloads: %d", h.engine.Unloads())
	}
}

func TestScopedChannels(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})

	h.bus.Emit(nil, Scoped(ChannelToggleMaximize, w.ID()), nil)
	if !nw.IsMaximized() {
		t.Error("toggle should maximize")
	}
	h.bus.Emit(nil, Scoped(ChannelToggleMaximize, w.ID()), nil)
	if nw.IsMaximized() {
		t.Error("second toggle should unmaximize")
	}

	h.bus.Emit(nil, Scoped(ChannelMinimize, w.ID()), nil)
	if !nw.IsMinimized() {
		t.Error("minimize channel")
	}

	h.bus.Emit(nil, Scoped(ChannelFocus, w.ID()), nil)
	if h.reg.Current() == nil || h.reg.Current().ID() != w.ID() {
		t.Error("focus channel")
	}

	h.bus.Emit(nil, Scoped(ChannelClose, w.ID()), nil)
	if !nw.Closed() || w.State() != StateDestroyed {
		t.Error("close channel")
	}
}

func TestNativeCloseTearsDown(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})
	nw.Close()
	if w.State() != StateDestroyed {
		t.Errorf("native close should tear down, state %s", w.State())
	}
}

func TestToggleMaximizeChannel_Relayouts(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})
	vm := h.engine.ViewManagerFor(w.ID())

	h.bus.Emit(nil, Scoped(ChannelToggleMaximize, w.ID()), nil)
	h.sched.Advance(time.Second)
	if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 2 {
		t.Errorf("maximize: expected 2 tabs-resize, got %d", n)
	}

	h.bus.Emit(nil, Scoped(ChannelToggleMaximize, w.ID()), nil)
	h.sched.Advance(time.Second)
	if n := len(nw.UI().MessagesOn(ChannelTabsResize)); n != 4 {
		t.Errorf("unmaximize: expected 4 tabs-resize, got %d", n)
	}
	if vm.Fixes() != 2 {
		t.Errorf("fixBounds: %d", vm.Fixes())
	}
}

func TestRelayout_FiredTimersReleased(t *testing.T) {
	h := newHarness(t)
	w, nw := h.open(t, Options{})

	for i := 0; i < 100; i++ {
		nw.Emit(platform.EventMaximize)
		h.sched.Advance(time.Second)
	}
	if n := w.pendingTimers(); n != 0 {
		t.Errorf("timers retained after fired relayouts: %d", n)
	}

	nw.Emit(platform.EventMaximize)
	if n := w.pendingTimers(); n != 2 {
		t.Errorf("pending timers: %d, want 2", n)
	}
}

func TestNew_LoadFailureLeavesOtherWindowsAlone(t *testing.T) {
	h := newHarness(t)
	other, _ := h.open(t, Options{Incognito: true})
	saved := model.Bounds{X: 1, Y: 2, Width: 1111, Height: 777}
	if err := h.store.Save(model.Placement{Bounds: &saved}); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(h.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	channels := len(h.bus.Channels())

	h.engine.SetLoadError(errors.New("no ui bundle"))
	if _, err := New(Options{AppPath: "/app", Incognito: true}, h.deps()); err == nil {
		t.Fatal("expected load failure")
	}

	after, _ := os.ReadFile(h.store.Path())
	if string(after) != string(before) {
		t.Errorf("placement overwritten: %s", after)
	}
	if len(h.engine.CacheClears()) != 0 || h.engine.Unloads() != 0 {
		t.Error("failed window must not run incognito cleanup")
	}
	if got := len(h.bus.Channels()); got != channels {
		t.Errorf("channels: %d, want %d", got, channels)
	}
	if other.State() != StateActive {
		t.Errorf("other window state: %s", other.State())
	}
}

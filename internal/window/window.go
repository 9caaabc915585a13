// Package window implements the application window: native window setup,
// placement persistence, event wiring to dialogs and tabs, and teardown.
package window

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/placement"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/registry"
	"go.uber.org/zap"
)

// ErrClosed is returned by operations on a window that has been closed.
var ErrClosed = errors.New("window closed")

// Renderer channels sent to the UI.
const (
	ChannelTabsResize       = "tabs-resize"
	ChannelFullscreen       = "fullscreen"
	ChannelHTMLFullscreen   = "html-fullscreen"
	ChannelScrollTouchBegin = "scroll-touch-begin"
	ChannelScrollTouchEnd   = "scroll-touch-end"
)

// IncognitoPartition is the session partition cleared when the last
// incognito window closes.
const IncognitoPartition = "incognito"

// State is the window lifecycle stage.
type State int

const (
	StateCreated State = iota
	StateActive
	StateClosing
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options are the per-window settings.
type Options struct {
	Incognito     bool
	AppPath       string
	DevMode       bool
	DevServerURL  string
	RelayoutDelay time.Duration
}

// Deps are the collaborators a window is built from.
type Deps struct {
	Windows   platform.WindowFactory
	Overlays  platform.Overlays
	Sessions  platform.SessionManager
	Bus       *ipc.Bus
	Registry  *registry.Registry
	Placement *placement.Store
	Scheduler Scheduler
	Log       *zap.Logger
}

// NativeOptions returns the fixed native window options for an app rooted
// at appPath.
func NativeOptions(appPath string) platform.WindowOptions {
	return platform.WindowOptions{
		Frame:           false,
		MinWidth:        400,
		MinHeight:       450,
		Width:           900,
		Height:          700,
		TitleBarStyle:   "hiddenInset",
		BackgroundColor: "#ffffff",
		Icon:            filepath.Join(appPath, "static", "app-icons", "icon.png"),
		WebPreferences: platform.WebPreferences{
			Plugins:          true,
			NodeIntegration:  true,
			ContextIsolation: false,
			JavaScript:       true,
		},
	}
}

// UIURL returns the address the window loads its UI from.
func UIURL(opts Options) string {
	if opts.DevMode {
		return opts.DevServerURL
	}
	return "file://" + filepath.ToSlash(filepath.Join(opts.AppPath, "build", "app.html"))
}

// AppWindow is one browser window.
type AppWindow struct {
	opts    Options
	deps    Deps
	native  platform.NativeWindow
	views   platform.ViewManager
	dialogs *Dialogs
	log     *zap.Logger

	mu       sync.Mutex
	state    State
	record   model.Placement
	timers   map[*pendingTimer]struct{}
	channels []string
}

// New builds and shows a window.
func New(opts Options, deps Deps) (*AppWindow, error) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = TimerScheduler{}
	}

	native, err := deps.Windows.NewWindow(NativeOptions(opts.AppPath))
	if err != nil {
		return nil, fmt.Errorf("create native window: %w", err)
	}

	w := &AppWindow{
		opts:   opts,
		deps:   deps,
		native: native,
		timers: make(map[*pendingTimer]struct{}),
		log:    deps.Log.With(zap.Int("window", native.ID()), zap.Bool("incognito", opts.Incognito)),
	}
	w.views = deps.Overlays.NewViewManager(native, opts.Incognito)
	w.dialogs = NewDialogs(deps.Overlays, native, Roles)
	w.registerChannels()

	w.record = deps.Placement.Load()
	if w.record.Bounds != nil {
		native.SetBounds(*w.record.Bounds)
	}
	if w.record.Maximized {
		native.Maximize()
	}
	if w.record.Fullscreen {
		native.SetFullScreen(true)
	}

	w.subscribe()

	url := UIURL(opts)
	if opts.DevMode {
		native.OpenDevTools(platform.DevToolsDetach)
	}
	if err := native.LoadURL(url); err != nil {
		w.abort()
		return nil, fmt.Errorf("load ui: %w", err)
	}

	w.mu.Lock()
	w.state = StateActive
	w.mu.Unlock()
	w.log.Debug("window created", zap.String("url", url))
	return w, nil
}

func (w *AppWindow) ID() int         { return w.native.ID() }
func (w *AppWindow) Incognito() bool { return w.opts.Incognito }

// Native returns the underlying engine window.
func (w *AppWindow) Native() platform.NativeWindow { return w.native }

// ViewManager returns the window's tab view manager.
func (w *AppWindow) ViewManager() platform.ViewManager { return w.views }

// Dialogs returns the window's dialog arena.
func (w *AppWindow) Dialogs() *Dialogs { return w.dialogs }

// State returns the lifecycle stage.
func (w *AppWindow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Placement returns the in-memory placement record.
func (w *AppWindow) Placement() model.Placement {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.record
	if p.Bounds != nil {
		b := *p.Bounds
		p.Bounds = &b
	}
	return p
}

// Info summarizes the window.
func (w *AppWindow) Info() model.Window {
	focused := false
	if cur := w.deps.Registry.Current(); cur != nil && cur.ID() == w.ID() {
		focused = true
	}
	return model.Window{
		ID:         w.ID(),
		Title:      w.native.WebContents().Title(),
		Incognito:  w.opts.Incognito,
		Focused:    focused,
		Maximized:  w.native.IsMaximized(),
		Fullscreen: w.native.IsFullScreen(),
		Bounds:     w.native.Bounds(),
	}
}

func (w *AppWindow) active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == StateActive
}

func (w *AppWindow) send(channel string, args ...interface{}) {
	if err := w.native.WebContents().Send(channel, args...); err != nil {
		w.log.Debug("ui send failed", zap.String("channel", channel), zap.Error(err))
	}
}

func (w *AppWindow) recordBounds() {
	if w.native.IsMaximized() {
		return
	}
	b := w.native.Bounds()
	w.mu.Lock()
	w.record.Bounds = &b
	w.mu.Unlock()
}

type pendingTimer struct {
	timer Timer
}

// schedule runs fn after d unless the window closes first. Fired timers are
// forgotten.
func (w *AppWindow) schedule(d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state >= StateClosing {
		return
	}
	p := &pendingTimer{}
	p.timer = w.deps.Scheduler.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, p)
		w.mu.Unlock()
		if w.active() {
			fn()
		}
	})
	w.timers[p] = struct{}{}
}

func (w *AppWindow) pendingTimers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

func (w *AppWindow) relayout() {
	w.schedule(0, w.views.FixBounds)
	w.schedule(w.opts.RelayoutDelay, func() { w.send(ChannelTabsResize) })
	w.send(ChannelTabsResize)
}

func (w *AppWindow) subscribe() {
	n := w.native

	n.On(platform.EventResize, func() {
		w.recordBounds()
		w.dialogs.Rearrange()
	})
	n.On(platform.EventMove, w.recordBounds)

	n.On(platform.EventMaximize, w.relayout)
	n.On(platform.EventRestore, w.relayout)
	n.On(platform.EventUnmaximize, w.relayout)

	n.On(platform.EventEnterFullScreen, func() {
		w.send(ChannelFullscreen, true)
		w.views.FixBounds()
	})
	n.On(platform.EventLeaveFullScreen, func() {
		w.send(ChannelFullscreen, false)
		w.views.FixBounds()
	})

	n.On(platform.EventEnterHTMLFullScreen, func() {
		w.views.SetFullscreen(true)
		w.send(ChannelHTMLFullscreen, true)
	})
	n.On(platform.EventLeaveHTMLFullScreen, func() {
		w.views.SetFullscreen(false)
		w.send(ChannelHTMLFullscreen, false)
	})

	n.On(platform.EventScrollTouchBegin, func() {
		w.send(ChannelScrollTouchBegin)
	})
	n.On(platform.EventScrollTouchEnd, func() {
		if sel := w.views.Selected(); sel != nil {
			if err := sel.Send(ChannelScrollTouchEnd); err != nil {
				w.log.Debug("selected view send failed", zap.Int("view", sel.ID()), zap.Error(err))
			}
		}
		w.send(ChannelScrollTouchEnd)
	})

	n.On(platform.EventFocus, w.focus)
	n.On(platform.EventClose, w.teardown)
}

type lastFocusedSetter interface {
	SetLastFocusedWindow(id int)
}

func (w *AppWindow) focus() {
	w.deps.Registry.SetFocused(w)
	for _, s := range w.deps.Sessions.Sessions() {
		if s.Incognito() != w.opts.Incognito {
			continue
		}
		if setter, ok := s.(lastFocusedSetter); ok {
			setter.SetLastFocusedWindow(w.ID())
		}
	}
}

// Focus marks the window as the focused one.
func (w *AppWindow) Focus() error {
	if !w.active() {
		return ErrClosed
	}
	w.focus()
	return nil
}

// ToggleMaximize maximizes the window, or unmaximizes it when maximized.
func (w *AppWindow) ToggleMaximize() error {
	if !w.active() {
		return ErrClosed
	}
	if w.native.IsMaximized() {
		w.native.Unmaximize()
	} else {
		w.native.Maximize()
	}
	return nil
}

// Minimize minimizes the window.
func (w *AppWindow) Minimize() error {
	if !w.active() {
		return ErrClosed
	}
	w.native.Minimize()
	return nil
}

// Close closes the native window and tears the app window down. Closing a
// closed window does nothing.
func (w *AppWindow) Close() {
	w.native.Close()
	w.teardown()
}

// abort undoes a failed New. The window was never registered, so placement
// and incognito state belong to other windows and are left alone.
func (w *AppWindow) abort() {
	w.mu.Lock()
	w.state = StateDestroyed
	timers := w.timers
	w.timers = make(map[*pendingTimer]struct{})
	w.mu.Unlock()

	for p := range timers {
		p.timer.Stop()
	}
	w.dialogs.DestroyAll()
	w.views.Clear()
	w.unregisterChannels()
	w.native.Close()
}

func (w *AppWindow) teardown() {
	w.mu.Lock()
	if w.state >= StateClosing {
		w.mu.Unlock()
		return
	}
	w.state = StateClosing
	timers := w.timers
	w.timers = make(map[*pendingTimer]struct{})
	w.mu.Unlock()

	for p := range timers {
		p.timer.Stop()
	}

	w.mu.Lock()
	w.record.Maximized = w.native.IsMaximized()
	w.record.Fullscreen = w.native.IsFullScreen()
	p := w.record
	w.mu.Unlock()
	if err := w.deps.Placement.Save(p); err != nil {
		w.log.Warn("failed to save placement", zap.Error(err))
	}

	w.native.SetContentView(nil)
	w.dialogs.DestroyAll()
	w.views.Clear()
	w.unregisterChannels()

	if w.opts.Incognito && w.deps.Registry.CountIncognito() == 1 {
		ctx := context.Background()
		if err := w.deps.Sessions.ClearCache(ctx, IncognitoPartition); err != nil {
			w.log.Warn("failed to clear incognito cache", zap.Error(err))
		}
		if err := w.deps.Sessions.UnloadIncognitoExtensions(ctx); err != nil {
			w.log.Warn("failed to unload incognito extensions", zap.Error(err))
		}
	}

	w.deps.Registry.Unregister(w.ID())

	w.mu.Lock()
	w.state = StateDestroyed
	w.mu.Unlock()
	w.log.Debug("window closed")
}

package headless

import (
	"fmt"
	"sync"

	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
)

// Window is an in-memory native window. State-changing calls are appended to
// an operation log. Maximize, Unmaximize and SetFullScreen fire their events
// when the state changes; other events fire through Emit or the simulation
// helpers.
type Window struct {
	id     int
	engine *Engine
	ui     *View

	mu         sync.Mutex
	opts       platform.WindowOptions
	bounds     model.Bounds
	maximized  bool
	minimized  bool
	fullscreen bool
	url        string
	devtools   platform.DevToolsMode
	content    platform.ContentView
	handlers   map[platform.WindowEvent][]func()
	ops        []string
	closed     bool
}

func (w *Window) ID() int { return w.id }

func (w *Window) record(op string) {
	w.ops = append(w.ops, op)
}

// Ops returns the operation log.
func (w *Window) Ops() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.ops...)
}

// Options returns the options the window was created with.
func (w *Window) Options() platform.WindowOptions {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opts
}

func (w *Window) Bounds() model.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *Window) SetBounds(b model.Bounds) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bounds = b
	w.record("setBounds")
}

func (w *Window) Maximize() {
	w.mu.Lock()
	changed := !w.maximized
	w.maximized = true
	w.minimized = false
	w.record("maximize")
	w.mu.Unlock()
	if changed {
		w.Emit(platform.EventMaximize)
	}
}

func (w *Window) Unmaximize() {
	w.mu.Lock()
	changed := w.maximized
	w.maximized = false
	w.record("unmaximize")
	w.mu.Unlock()
	if changed {
		w.Emit(platform.EventUnmaximize)
	}
}

func (w *Window) Minimize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = true
	w.record("minimize")
}

func (w *Window) IsMaximized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maximized
}

// IsMinimized reports whether Minimize was called since the last Maximize.
func (w *Window) IsMinimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *Window) SetFullScreen(on bool) {
	w.mu.Lock()
	changed := w.fullscreen != on
	w.fullscreen = on
	w.record(fmt.Sprintf("setFullScreen:%v", on))
	w.mu.Unlock()
	switch {
	case !changed:
	case on:
		w.Emit(platform.EventEnterFullScreen)
	default:
		w.Emit(platform.EventLeaveFullScreen)
	}
}

func (w *Window) IsFullScreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

func (w *Window) LoadURL(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window %d is closed", w.id)
	}
	if err := w.engine.loadError(); err != nil {
		return err
	}
	w.url = url
	w.record("loadURL:" + url)
	return nil
}

// URL returns the last loaded UI URL.
func (w *Window) URL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url
}

func (w *Window) OpenDevTools(mode platform.DevToolsMode) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.devtools = mode
	w.record("openDevTools:" + string(mode))
}

func (w *Window) SetContentView(view platform.ContentView) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.content = view
	if view == nil {
		w.record("setContentView:nil")
		return
	}
	w.record(fmt.Sprintf("setContentView:%d", view.ID()))
}

// ContentView returns the attached content view, or nil.
func (w *Window) ContentView() platform.ContentView {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.content
}

func (w *Window) WebContents() platform.ContentView { return w.ui }

// UI returns the concrete UI renderer view.
func (w *Window) UI() *View { return w.ui }

func (w *Window) On(event platform.WindowEvent, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[event] = append(w.handlers[event], fn)
}

// Emit fires the handlers subscribed to event, in subscription order.
func (w *Window) Emit(event platform.WindowEvent) {
	w.mu.Lock()
	fns := append(([]func())(nil), w.handlers[event]...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Resize sets the bounds and fires resize.
func (w *Window) Resize(b model.Bounds) {
	w.SetBounds(b)
	w.Emit(platform.EventResize)
}

// Move sets the bounds and fires move.
func (w *Window) Move(b model.Bounds) {
	w.SetBounds(b)
	w.Emit(platform.EventMove)
}

// Close fires close, then destroys the window and its UI view.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.Emit(platform.EventClose)
	w.engine.removeWindow(w.id)
	w.engine.DestroyView(w.ui.id)
}

// Closed reports whether Close was called.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

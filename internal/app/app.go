// Package app is the root of the browser host. It owns the bus, the window
// registry and the messaging service, and is the only place windows are made.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mj1618/browser-host/internal/config"
	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/messaging"
	"github.com/mj1618/browser-host/internal/placement"
	"github.com/mj1618/browser-host/internal/platform"
	"github.com/mj1618/browser-host/internal/registry"
	"github.com/mj1618/browser-host/internal/window"
	"go.uber.org/zap"
)

// App wires the host together.
type App struct {
	cfg       *config.Config
	provider  *platform.Provider
	log       *zap.Logger
	bus       *ipc.Bus
	windows   *registry.Registry
	placement *placement.Store
	messaging *messaging.Service
	scheduler window.Scheduler
}

// Option customizes an App.
type Option func(*App)

// WithScheduler replaces the timer scheduler used by windows.
func WithScheduler(s window.Scheduler) Option {
	return func(a *App) { a.scheduler = s }
}

// New builds the app and starts the messaging service.
func New(cfg *config.Config, provider *platform.Provider, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:       cfg,
		provider:  provider,
		log:       log,
		bus:       ipc.NewBus(log.Named("ipc")),
		windows:   registry.New(),
		placement: placement.NewStore(cfg.PlacementPath(), log.Named("placement")),
		scheduler: window.TimerScheduler{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.loadExtensions(context.Background()); err != nil {
		return nil, err
	}

	a.messaging = messaging.New(a.bus, provider, cfg.ExtensionsDir, log.Named("messaging"))
	if err := a.messaging.Run(); err != nil {
		return nil, fmt.Errorf("start messaging: %w", err)
	}
	return a, nil
}

// loadExtensions installs each directory under ExtensionsDir. A missing
// directory means no extensions.
func (a *App) loadExtensions(ctx context.Context) error {
	loader, ok := a.provider.Sessions.(platform.ExtensionLoader)
	if !ok || a.cfg.ExtensionsDir == "" {
		return nil
	}
	entries, err := os.ReadDir(a.cfg.ExtensionsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read extensions dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		id, err := loader.LoadExtension(ctx, filepath.Join(a.cfg.ExtensionsDir, name), false)
		if err != nil {
			a.log.Warn("failed to load extension", zap.String("dir", name), zap.Error(err))
			continue
		}
		a.log.Info("extension loaded", zap.String("id", id))
	}
	return nil
}

func (a *App) Bus() *ipc.Bus                 { return a.bus }
func (a *App) Windows() *registry.Registry   { return a.windows }
func (a *App) Messaging() *messaging.Service { return a.messaging }
func (a *App) Provider() *platform.Provider  { return a.provider }
func (a *App) Placement() *placement.Store   { return a.placement }
func (a *App) Config() *config.Config        { return a.cfg }

// NewWindow creates, registers and focuses an app window.
func (a *App) NewWindow(incognito bool) (*window.AppWindow, error) {
	w, err := window.New(window.Options{
		Incognito:     incognito,
		AppPath:       a.cfg.AppPath,
		DevMode:       a.cfg.DevMode(),
		DevServerURL:  a.cfg.DevServerURL,
		RelayoutDelay: a.cfg.Window.RelayoutDelay,
	}, window.Deps{
		Windows:   a.provider.Windows,
		Overlays:  a.provider.Overlays,
		Sessions:  a.provider.Sessions,
		Bus:       a.bus,
		Registry:  a.windows,
		Placement: a.placement,
		Scheduler: a.scheduler,
		Log:       a.log.Named("window"),
	})
	if err != nil {
		return nil, err
	}
	a.windows.Register(w)
	if err := w.Focus(); err != nil {
		return nil, err
	}
	return w, nil
}

// Window returns the live app window with id.
func (a *App) Window(id int) (*window.AppWindow, bool) {
	e, ok := a.windows.Get(id)
	if !ok {
		return nil, false
	}
	w, ok := e.(*window.AppWindow)
	return w, ok
}

// AppWindows returns the live windows in creation order.
func (a *App) AppWindows() []*window.AppWindow {
	var out []*window.AppWindow
	for _, e := range a.windows.All() {
		if w, ok := e.(*window.AppWindow); ok {
			out = append(out, w)
		}
	}
	return out
}

// Close closes every window, persisting placement.
func (a *App) Close() {
	for _, w := range a.AppWindows() {
		w.Close()
	}
}

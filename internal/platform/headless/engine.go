package headless

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
)

// Partition names used by the engine.
const (
	PartitionDefault   = "default"
	PartitionIncognito = "incognito"
)

type extension struct {
	dir       string
	incognito bool
}

// Engine is an in-memory browser engine. It implements every platform
// contract and records the calls made against it so callers can inspect them.
type Engine struct {
	mu sync.Mutex

	nextID   int
	views    map[int]*View
	windows  map[int]*Window
	sessions map[string]*Session

	extensions map[string]extension
	badges     map[string]model.BadgeTextDetails

	cacheClears []string
	unloads     int

	viewManagers map[int]*ViewManager
	dialogs      map[int]map[platform.DialogRole]*Dialog

	destroyHooks []func(platform.ContentView)
	loadErr      error
}

// New creates an empty engine with the default and incognito sessions.
func New() *Engine {
	e := &Engine{
		views:        make(map[int]*View),
		windows:      make(map[int]*Window),
		sessions:     make(map[string]*Session),
		extensions:   make(map[string]extension),
		badges:       make(map[string]model.BadgeTextDetails),
		viewManagers: make(map[int]*ViewManager),
		dialogs:      make(map[int]map[platform.DialogRole]*Dialog),
	}
	e.Session(PartitionDefault)
	e.Session(PartitionIncognito)
	return e
}

// Provider returns the engine wrapped as a platform.Provider.
func (e *Engine) Provider() *platform.Provider {
	return &platform.Provider{
		Views:    e,
		Windows:  e,
		Sessions: e,
		Overlays: e,
	}
}

func (e *Engine) allocID() int {
	e.nextID++
	return e.nextID
}

// Session returns the session for partition, creating it on first use.
func (e *Engine) Session(partition string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[partition]; ok {
		return s
	}
	s := newSession(partition, partition == PartitionIncognito)
	e.sessions[partition] = s
	return s
}

// Sessions implements platform.SessionManager.
func (e *Engine) Sessions() []platform.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.sessions))
	for name := range e.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]platform.Session, 0, len(names))
	for _, name := range names {
		out = append(out, e.sessions[name])
	}
	return out
}

// ViewOptions configures a new headless view.
type ViewOptions struct {
	Type          platform.ViewType
	Session       *Session
	HostID        int // 0 = not embedded
	OwnerWindowID int // 0 = no owner
	URL           string
	Title         string
}

// NewView creates a live content view.
func (e *Engine) NewView(opts ViewOptions) *View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.newViewLocked(opts)
}

func (e *Engine) newViewLocked(opts ViewOptions) *View {
	v := &View{
		id:      e.allocID(),
		typ:     opts.Type,
		session: opts.Session,
		hostID:  opts.HostID,
		owner:   opts.OwnerWindowID,
		url:     opts.URL,
		title:   opts.Title,
	}
	e.views[v.id] = v
	return v
}

// OnViewDestroyed implements platform.ViewObserver.
func (e *Engine) OnViewDestroyed(fn func(platform.ContentView)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyHooks = append(e.destroyHooks, fn)
}

// DestroyView removes a view from the engine. Destroying the session's
// active tab leaves the session with no active tab.
func (e *Engine) DestroyView(id int) {
	e.mu.Lock()
	v, ok := e.views[id]
	delete(e.views, id)
	hooks := append(([]func(platform.ContentView))(nil), e.destroyHooks...)
	e.mu.Unlock()
	if !ok {
		return
	}
	for _, fn := range hooks {
		fn(v)
	}
	v.mu.Lock()
	sess := v.session
	v.mu.Unlock()
	if sess != nil {
		sess.clearActiveTab(id)
	}
	v.Detach()
}

// AllContentViews implements platform.Views, ordered by id.
func (e *Engine) AllContentViews() []platform.ContentView {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]int, 0, len(e.views))
	for id := range e.views {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]platform.ContentView, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.views[id])
	}
	return out
}

// ContentView implements platform.Views.
func (e *Engine) ContentView(id int) (platform.ContentView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.views[id]
	if !ok {
		return nil, false
	}
	return v, true
}

// View returns the concrete headless view for id.
func (e *Engine) View(id int) *View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.views[id]
}

// SpawnView implements platform.ViewSpawner.
func (e *Engine) SpawnView(opts platform.SpawnOptions) (platform.ContentView, error) {
	partition := opts.Partition
	if partition == "" {
		partition = PartitionDefault
	}
	s := e.Session(partition)

	vo := ViewOptions{Type: opts.Type, Session: s, URL: opts.URL}
	if opts.WindowID != 0 {
		w := e.Window(opts.WindowID)
		if w == nil {
			return nil, fmt.Errorf("window %d not found", opts.WindowID)
		}
		vo.OwnerWindowID = w.id
		vo.HostID = w.ui.id
	}
	return e.NewView(vo), nil
}

// NewWindow implements platform.WindowFactory.
func (e *Engine) NewWindow(opts platform.WindowOptions) (platform.NativeWindow, error) {
	ui := e.NewView(ViewOptions{Type: platform.ViewWindow, Session: e.Session(PartitionDefault)})

	e.mu.Lock()
	w := &Window{
		id:       e.allocID(),
		engine:   e,
		opts:     opts,
		bounds:   model.Bounds{Width: opts.Width, Height: opts.Height},
		ui:       ui,
		handlers: make(map[platform.WindowEvent][]func()),
	}
	e.windows[w.id] = w
	e.mu.Unlock()

	ui.mu.Lock()
	ui.owner = w.id
	ui.mu.Unlock()
	return w, nil
}

// Window returns the headless window for id, or nil.
func (e *Engine) Window(id int) *Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windows[id]
}

func (e *Engine) removeWindow(id int) {
	e.mu.Lock()
	delete(e.windows, id)
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()
	for _, s := range sessions {
		s.clearLastFocused(id)
	}
}

// SetLoadError makes every later LoadURL fail with err. Nil restores loading.
func (e *Engine) SetLoadError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadErr = err
}

func (e *Engine) loadError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadErr
}

// ExtensionPaths implements platform.SessionManager.
func (e *Engine) ExtensionPaths() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.extensions))
	for id, ext := range e.extensions {
		out[id] = ext.dir
	}
	return out
}

// InstallExtension registers an extension under id without touching disk.
func (e *Engine) InstallExtension(id, dir string, incognito bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extensions[id] = extension{dir: dir, incognito: incognito}
}

// LoadExtension implements platform.ExtensionLoader. The extension id is the
// directory name.
func (e *Engine) LoadExtension(_ context.Context, dir string, incognito bool) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("load extension: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("load extension: %s is not a directory", dir)
	}
	id := filepath.Base(dir)
	e.InstallExtension(id, dir, incognito)
	return id, nil
}

// CreateTab implements platform.SessionManager. An unknown window yields
// view id 0 and no error.
func (e *Engine) CreateTab(_ context.Context, props model.CreateProperties) (int, error) {
	w := e.Window(props.WindowID)
	if w == nil {
		return 0, nil
	}

	partition := PartitionDefault
	e.mu.Lock()
	vm := e.viewManagers[w.id]
	e.mu.Unlock()
	if vm != nil && vm.incognito {
		partition = PartitionIncognito
	}
	s := e.Session(partition)

	v := e.NewView(ViewOptions{
		Type:          platform.ViewBrowserView,
		Session:       s,
		HostID:        w.ui.id,
		OwnerWindowID: w.id,
		URL:           props.URL,
	})

	active := props.Active == nil || *props.Active
	if vm != nil {
		vm.add(v, active)
	}
	if active {
		s.SetActiveTab(v.id)
	}
	return v.id, nil
}

// SetBadgeText implements platform.SessionManager.
func (e *Engine) SetBadgeText(_ context.Context, extensionID string, details model.BadgeTextDetails) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.badges[extensionID] = details
	return nil
}

// Badge returns the last badge text set for an extension.
func (e *Engine) Badge(extensionID string) (model.BadgeTextDetails, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.badges[extensionID]
	return d, ok
}

// ClearCache implements platform.SessionManager. Clearing a partition also
// drops its cookies.
func (e *Engine) ClearCache(ctx context.Context, partition string) error {
	e.mu.Lock()
	e.cacheClears = append(e.cacheClears, partition)
	s := e.sessions[partition]
	e.mu.Unlock()
	if s != nil {
		s.cookies.clear()
	}
	return nil
}

// CacheClears returns the partitions passed to ClearCache, in order.
func (e *Engine) CacheClears() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cacheClears...)
}

// UnloadIncognitoExtensions implements platform.SessionManager.
func (e *Engine) UnloadIncognitoExtensions(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloads++
	for id, ext := range e.extensions {
		if ext.incognito {
			delete(e.extensions, id)
		}
	}
	return nil
}

// Unloads returns how many times UnloadIncognitoExtensions was called.
func (e *Engine) Unloads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unloads
}

// NewViewManager implements platform.Overlays.
func (e *Engine) NewViewManager(win platform.NativeWindow, incognito bool) platform.ViewManager {
	vm := &ViewManager{engine: e, windowID: win.ID(), incognito: incognito}
	e.mu.Lock()
	e.viewManagers[win.ID()] = vm
	e.mu.Unlock()
	return vm
}

// ViewManagerFor returns the view manager created for a window.
func (e *Engine) ViewManagerFor(windowID int) *ViewManager {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewManagers[windowID]
}

// NewDialog implements platform.Overlays.
func (e *Engine) NewDialog(role platform.DialogRole, win platform.NativeWindow) platform.Dialog {
	d := &Dialog{role: role, windowID: win.ID()}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dialogs[win.ID()] == nil {
		e.dialogs[win.ID()] = make(map[platform.DialogRole]*Dialog)
	}
	e.dialogs[win.ID()][role] = d
	return d
}

// DialogFor returns the dialog created for a window and role.
func (e *Engine) DialogFor(windowID int, role platform.DialogRole) *Dialog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dialogs[windowID][role]
}

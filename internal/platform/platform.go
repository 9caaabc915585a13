package platform

import (
	"context"

	"github.com/mj1618/browser-host/internal/model"
)

// ContentView is an embedded renderable surface owned by the engine.
type ContentView interface {
	ID() int
	Type() ViewType

	// Session returns the view's session, or nil once the view is detached.
	Session() Session

	// HostID returns the id of the hosting view for embedded views.
	HostID() (int, bool)

	// OwnerWindowID returns the native window that owns a browser view or webview.
	OwnerWindowID() (int, bool)

	URL() string
	Title() string
	IsAudible() bool

	InsertCSS(ctx context.Context, code string) error

	// Send delivers an asynchronous message to the view's renderer.
	Send(channel string, args ...interface{}) error
}

// Views looks up live content views.
type Views interface {
	AllContentViews() []ContentView
	ContentView(id int) (ContentView, bool)
}

// Session is an isolated browsing context.
type Session interface {
	ID() string
	Incognito() bool
	Cookies() CookieStore

	// ActiveTab returns the id of the session's active tab (0 if none).
	ActiveTab() int

	// LastFocusedWindow returns the most recently focused window in the session.
	LastFocusedWindow() (int, bool)
}

// CookieStore is a session's cookie jar.
type CookieStore interface {
	Get(ctx context.Context, filter model.CookieFilter) ([]model.Cookie, error)
	Set(ctx context.Context, details model.CookieDetails) error
	Remove(ctx context.Context, url, name string) error

	// OnChanged registers fn to be called after every cookie mutation.
	OnChanged(fn func(model.CookieChange))
}

// NativeWindow is an engine top-level window.
type NativeWindow interface {
	ID() int

	Bounds() model.Bounds
	SetBounds(b model.Bounds)

	Maximize()
	Unmaximize()
	Minimize()
	IsMaximized() bool

	SetFullScreen(on bool)
	IsFullScreen() bool

	LoadURL(url string) error
	OpenDevTools(mode DevToolsMode)

	// SetContentView attaches a view; nil detaches the current one.
	SetContentView(view ContentView)

	// WebContents is the renderer hosting the application UI.
	WebContents() ContentView

	// On subscribes fn to a window event.
	On(event WindowEvent, fn func())

	Close()
}

// WindowFactory creates native windows.
type WindowFactory interface {
	NewWindow(opts WindowOptions) (NativeWindow, error)
}

// SessionManager owns sessions and the installed extensions.
type SessionManager interface {
	// ExtensionPaths maps extension id to install directory.
	ExtensionPaths() map[string]string

	// CreateTab opens a tab in props.WindowID and returns the new view id.
	CreateTab(ctx context.Context, props model.CreateProperties) (int, error)

	SetBadgeText(ctx context.Context, extensionID string, details model.BadgeTextDetails) error

	ClearCache(ctx context.Context, partition string) error
	UnloadIncognitoExtensions(ctx context.Context) error

	// Sessions returns every session the manager knows about.
	Sessions() []Session
}

// ViewManager lays out the tab views of one window.
type ViewManager interface {
	FixBounds()
	Selected() ContentView
	SetFullscreen(on bool)
	Clear()
}

// Dialog is an overlay sub-window owned by an app window.
type Dialog interface {
	Rearrange()
	Hide()
	Destroy()
}

// Overlays builds the per-window view manager and dialogs.
type Overlays interface {
	NewViewManager(win NativeWindow, incognito bool) ViewManager
	NewDialog(role DialogRole, win NativeWindow) Dialog
}

// SpawnOptions describes a content view to create outside of a window's
// tab strip (background pages, remote contexts).
type SpawnOptions struct {
	Type      ViewType
	Partition string
	WindowID  int
	URL       string
}

// ViewObserver is implemented by backends that report view destruction.
// fn runs while the destroyed view still reports its session.
type ViewObserver interface {
	OnViewDestroyed(fn func(view ContentView))
}

// ViewSpawner is implemented by backends that can create views on demand.
type ViewSpawner interface {
	SpawnView(opts SpawnOptions) (ContentView, error)
}

// ExtensionLoader is implemented by session managers that can install
// unpacked extensions from disk.
type ExtensionLoader interface {
	LoadExtension(ctx context.Context, dir string, incognito bool) (string, error)
}

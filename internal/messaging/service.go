// Package messaging serves the browser-extension API surface (tabs,
// cookies, badge text) to renderer and extension contexts over the IPC bus.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

// ErrOutsideExtension is returned when an insertCSS file path escapes the
// extension's install directory.
var ErrOutsideExtension = errors.New("path escapes extension directory")

// Service translates extension API requests into engine calls.
type Service struct {
	bus            *ipc.Bus
	views          platform.Views
	sessions       platform.SessionManager
	listeners      *Listeners
	extensionsRoot string
	log            *zap.Logger

	mu          sync.Mutex
	tabWatchers []func(sessionID string)
}

// New creates a service over the provider's views and session manager.
// extensionsRoot is the directory insertCSS files are resolved against.
func New(bus *ipc.Bus, provider *platform.Provider, extensionsRoot string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bus:            bus,
		views:          provider.Views,
		sessions:       provider.Sessions,
		listeners:      NewListeners(log),
		extensionsRoot: extensionsRoot,
		log:            log,
	}
}

// Listeners exposes the per-session listener registry.
func (s *Service) Listeners() *Listeners { return s.listeners }

// OnTabsChanged registers fn to be called with the session id whenever a
// tab is created or a view is destroyed in that session.
func (s *Service) OnTabsChanged(fn func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabWatchers = append(s.tabWatchers, fn)
}

func (s *Service) tabsChanged(sessionID string) {
	s.mu.Lock()
	fns := append(([]func(string))(nil), s.tabWatchers...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(sessionID)
	}
}

func (s *Service) viewDestroyed(v platform.ContentView) {
	if n := s.listeners.DropView(v.ID()); n > 0 {
		s.log.Debug("dropped listeners of destroyed view", zap.Int("view", v.ID()), zap.Int("count", n))
	}
	if sess := v.Session(); sess != nil {
		s.tabsChanged(sess.ID())
	}
}

// Run registers every handler on the bus and subscribes to the cookie
// change feed of each known session and, when the backend reports it, to
// view destruction.
func (s *Service) Run() error {
	s.bus.On(ChannelExtensionsPaths, func(e *ipc.Event, args ipc.Args) {
		e.ReturnValue = s.ExtensionPaths()
	})

	s.bus.On(ChannelExtensionPath, func(e *ipc.Event, args ipc.Args) {
		var id string
		if err := args.Decode(0, &id); err != nil {
			s.log.Debug("bad extension id", zap.Error(err))
			return
		}
		if p, ok := s.ExtensionPath(id); ok {
			e.ReturnValue = p
		}
	})

	s.bus.On(ChannelAddListener, func(e *ipc.Event, args ipc.Args) {
		var spec model.ListenerSpec
		if err := args.Decode(0, &spec); err != nil {
			s.log.Debug("bad listener spec", zap.Error(err))
			return
		}
		s.AddListener(e.Sender, spec)
	})

	s.bus.On(ChannelRemoveListener, func(e *ipc.Event, args ipc.Args) {
		var spec model.ListenerSpec
		if err := args.Decode(0, &spec); err != nil {
			s.log.Debug("bad listener spec", zap.Error(err))
			return
		}
		s.RemoveListener(e.Sender, spec)
	})

	handlers := map[string]ipc.Handler{
		ChannelTabsQuery: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			return s.QueryTabs(e.Sender), nil
		},
		ChannelTabsCreate: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var props model.CreateProperties
			if err := args.Decode(0, &props); err != nil {
				return nil, err
			}
			return s.CreateTab(ctx, e.Sender, props)
		},
		ChannelTabsInsertCSS: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var (
				tabID       int
				details     model.InjectDetails
				extensionID string
			)
			if err := decodeAll(args, &tabID, &details, &extensionID); err != nil {
				return nil, err
			}
			return nil, s.InsertCSS(ctx, tabID, details, extensionID)
		},
		ChannelSetBadgeText: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var (
				extensionID string
				details     model.BadgeTextDetails
			)
			if err := decodeAll(args, &extensionID, &details); err != nil {
				return nil, err
			}
			return nil, s.SetBadgeText(ctx, extensionID, details)
		},
		ChannelCookiesGetAll: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var details model.CookieDetails
			if err := args.Decode(0, &details); err != nil {
				return nil, err
			}
			return s.GetAllCookies(ctx, e.Sender, details)
		},
		ChannelCookiesRemove: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var details model.CookieDetails
			if err := args.Decode(0, &details); err != nil {
				return nil, err
			}
			return s.RemoveCookie(ctx, e.Sender, details)
		},
		ChannelCookiesSet: func(ctx context.Context, e *ipc.Event, args ipc.Args) (interface{}, error) {
			var details model.CookieDetails
			if err := args.Decode(0, &details); err != nil {
				return nil, err
			}
			return s.SetCookie(ctx, e.Sender, details)
		},
	}
	for channel, h := range handlers {
		if err := s.bus.Handle(channel, h); err != nil {
			return err
		}
	}

	if obs, ok := s.views.(platform.ViewObserver); ok {
		obs.OnViewDestroyed(s.viewDestroyed)
	}

	for _, sess := range s.sessions.Sessions() {
		sid := sess.ID()
		sess.Cookies().OnChanged(func(change model.CookieChange) {
			s.listeners.NotifyCookieChanged(sid, change)
		})
	}
	return nil
}

func decodeAll(args ipc.Args, dst ...interface{}) error {
	for i, v := range dst {
		if err := args.Decode(i, v); err != nil {
			return err
		}
	}
	return nil
}

// ExtensionPaths returns extension id → install directory.
func (s *Service) ExtensionPaths() map[string]string {
	return s.sessions.ExtensionPaths()
}

// ExtensionPath returns one extension's install directory.
func (s *Service) ExtensionPath(id string) (string, bool) {
	p, ok := s.sessions.ExtensionPaths()[id]
	return p, ok
}

// QueryTabs returns a descriptor for every live view in the sender's session.
func (s *Service) QueryTabs(sender platform.ContentView) []model.Tab {
	tabs := []model.Tab{}
	if sender == nil {
		return tabs
	}
	for _, v := range ViewsInSession(s.views, sender.Session()) {
		tab := TabFromView(v)
		if tab == nil {
			continue
		}
		tab.LastFocusedWindow = true
		tab.CurrentWindow = true
		tabs = append(tabs, *tab)
	}
	return tabs
}

// CreateTab opens a tab in the resolved target window. The result is nil if
// the engine did not produce a live view.
func (s *Service) CreateTab(ctx context.Context, sender platform.ContentView, props model.CreateProperties) (*model.Tab, error) {
	target := TargetFor(props, sender)
	props.WindowID = target.WindowID()
	s.log.Debug("create tab", zap.Stringer("target", target), zap.String("url", props.URL))

	tabID, err := s.sessions.CreateTab(ctx, props)
	if err != nil {
		return nil, err
	}
	v, ok := s.views.ContentView(tabID)
	if !ok {
		return nil, nil
	}
	if sess := v.Session(); sess != nil {
		s.tabsChanged(sess.ID())
	}
	return TabFromView(v), nil
}

// InsertCSS injects a stylesheet into a tab. A missing tab is a no-op.
func (s *Service) InsertCSS(ctx context.Context, tabID int, details model.InjectDetails, extensionID string) error {
	v, ok := s.views.ContentView(tabID)
	if !ok {
		return nil
	}

	code := details.Code
	if details.File != "" {
		path, err := s.extensionFile(extensionID, details.File)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read css: %w", err)
		}
		code = string(data)
	}
	return v.InsertCSS(ctx, code)
}

func (s *Service) extensionFile(extensionID, file string) (string, error) {
	if extensionID == "" {
		return "", fmt.Errorf("extension id is required to resolve %q", file)
	}
	root := filepath.Join(s.extensionsRoot, extensionID)
	path := filepath.Join(root, file)
	for base, p := range map[string]string{s.extensionsRoot: root, root: path} {
		rel, err := filepath.Rel(base, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%s: %w", file, ErrOutsideExtension)
		}
	}
	return path, nil
}

// SetBadgeText forwards badge details to the session manager.
func (s *Service) SetBadgeText(ctx context.Context, extensionID string, details model.BadgeTextDetails) error {
	return s.sessions.SetBadgeText(ctx, extensionID, details)
}

// AddListener records sender as a cookies.onChanged listener. Other
// scope/name pairs have no host-side routing and are ignored.
func (s *Service) AddListener(sender platform.ContentView, spec model.ListenerSpec) {
	if spec.Scope != ScopeCookies || spec.Name != EventOnChanged || sender == nil {
		return
	}
	sess := sender.Session()
	if sess == nil {
		return
	}
	s.listeners.Add(sess.ID(), spec.ID, sender)
}

// RemoveListener deletes a cookies.onChanged listener. Unknown ids are ignored.
func (s *Service) RemoveListener(sender platform.ContentView, spec model.ListenerSpec) {
	if spec.Scope != ScopeCookies || spec.Name != EventOnChanged || sender == nil {
		return
	}
	sess := sender.Session()
	if sess == nil {
		return
	}
	s.listeners.Remove(sess.ID(), spec.ID)
}

func cookieStore(sender platform.ContentView) platform.CookieStore {
	if sender == nil {
		return nil
	}
	sess := sender.Session()
	if sess == nil {
		return nil
	}
	return sess.Cookies()
}

// GetAllCookies returns the sender session's cookies matching details.
func (s *Service) GetAllCookies(ctx context.Context, sender platform.ContentView, details model.CookieDetails) ([]model.Cookie, error) {
	store := cookieStore(sender)
	if store == nil {
		return []model.Cookie{}, nil
	}
	return store.Get(ctx, details.Filter())
}

// RemoveCookie removes the cookie named by details and returns it. If no
// cookie matches, the store is left untouched and the result is nil.
func (s *Service) RemoveCookie(ctx context.Context, sender platform.ContentView, details model.CookieDetails) (*model.Cookie, error) {
	store := cookieStore(sender)
	if store == nil {
		return nil, nil
	}
	matches, err := store.Get(ctx, details.Filter())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	cookie := matches[0]
	if err := store.Remove(ctx, details.URL, details.Name); err != nil {
		return nil, err
	}
	return &cookie, nil
}

// SetCookie stores a cookie and returns it as read back from the store.
func (s *Service) SetCookie(ctx context.Context, sender platform.ContentView, details model.CookieDetails) (*model.Cookie, error) {
	store := cookieStore(sender)
	if store == nil {
		return nil, nil
	}
	if err := store.Set(ctx, details); err != nil {
		return nil, err
	}
	matches, err := store.Get(ctx, details.Filter())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

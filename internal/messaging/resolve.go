package messaging

import (
	"fmt"

	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
)

// TargetKind says how a tabs.create target window was chosen.
type TargetKind int

const (
	TargetUnresolved TargetKind = iota
	TargetExplicit
	TargetBackground
	TargetEmbeddedView
)

// NoWindow is the window id of an unresolved target.
const NoWindow = -1

// Target is the window a new tab will be created in.
type Target struct {
	Kind   TargetKind
	Window int
}

// Explicit targets a window id named by the caller.
func Explicit(windowID int) Target { return Target{Kind: TargetExplicit, Window: windowID} }

// Background targets a background page's last-focused window.
func Background(windowID int) Target { return Target{Kind: TargetBackground, Window: windowID} }

// EmbeddedView targets the window owning a browser view or webview.
func EmbeddedView(windowID int) Target { return Target{Kind: TargetEmbeddedView, Window: windowID} }

// WindowID returns the resolved window id, or NoWindow.
func (t Target) WindowID() int {
	if t.Kind == TargetUnresolved {
		return NoWindow
	}
	return t.Window
}

func (t Target) String() string {
	switch t.Kind {
	case TargetExplicit:
		return fmt.Sprintf("explicit(%d)", t.Window)
	case TargetBackground:
		return fmt.Sprintf("background(%d)", t.Window)
	case TargetEmbeddedView:
		return fmt.Sprintf("embedded(%d)", t.Window)
	default:
		return "unresolved"
	}
}

// TargetFor picks the window for a tabs.create request. An explicit window
// id always wins; otherwise the window is inferred from the sender.
func TargetFor(props model.CreateProperties, sender platform.ContentView) Target {
	if props.WindowID != 0 {
		return Explicit(props.WindowID)
	}
	if sender == nil {
		return Target{}
	}
	switch sender.Type() {
	case platform.ViewBackgroundPage:
		sess := sender.Session()
		if sess == nil {
			return Target{}
		}
		if id, ok := sess.LastFocusedWindow(); ok {
			return Background(id)
		}
	case platform.ViewBrowserView, platform.ViewWebview:
		if id, ok := sender.OwnerWindowID(); ok {
			return EmbeddedView(id)
		}
	}
	return Target{}
}

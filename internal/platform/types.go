package platform

import (
	"fmt"
	"strings"
)

// ViewType is the kind of renderer context behind a content view.
type ViewType int

const (
	ViewWindow ViewType = iota
	ViewBackgroundPage
	ViewBrowserView
	ViewWebview
	ViewRemote
)

var viewTypeNames = map[ViewType]string{
	ViewWindow:         "window",
	ViewBackgroundPage: "backgroundPage",
	ViewBrowserView:    "browserView",
	ViewWebview:        "webview",
	ViewRemote:         "remote",
}

func (t ViewType) String() string {
	if s, ok := viewTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ViewType(%d)", int(t))
}

// ParseViewType converts a type name (as reported by the engine) to a ViewType.
func ParseViewType(s string) (ViewType, error) {
	for t, name := range viewTypeNames {
		if strings.EqualFold(name, s) {
			return t, nil
		}
	}
	return ViewWindow, fmt.Errorf("unknown view type: %q (expected window, backgroundPage, browserView, webview, or remote)", s)
}

// WindowEvent names a native window event.
type WindowEvent string

const (
	EventResize              WindowEvent = "resize"
	EventMove                WindowEvent = "move"
	EventMaximize            WindowEvent = "maximize"
	EventUnmaximize          WindowEvent = "unmaximize"
	EventRestore             WindowEvent = "restore"
	EventEnterFullScreen     WindowEvent = "enter-full-screen"
	EventLeaveFullScreen     WindowEvent = "leave-full-screen"
	EventEnterHTMLFullScreen WindowEvent = "enter-html-full-screen"
	EventLeaveHTMLFullScreen WindowEvent = "leave-html-full-screen"
	EventScrollTouchBegin    WindowEvent = "scroll-touch-begin"
	EventScrollTouchEnd      WindowEvent = "scroll-touch-end"
	EventFocus               WindowEvent = "focus"
	EventClose               WindowEvent = "close"
)

// DialogRole identifies one of the overlay dialogs owned by an app window.
type DialogRole string

const (
	DialogMenu        DialogRole = "menu"
	DialogSearch      DialogRole = "search"
	DialogFind        DialogRole = "find"
	DialogPermissions DialogRole = "permissions"
	DialogAuth        DialogRole = "auth"
	DialogFormFill    DialogRole = "form-fill"
	DialogCredentials DialogRole = "credentials"
	DialogTabGroup    DialogRole = "tab-group"
	DialogPreview     DialogRole = "preview"
)

// WebPreferences configures the renderer hosting the application UI.
type WebPreferences struct {
	Plugins          bool
	NodeIntegration  bool
	ContextIsolation bool
	JavaScript       bool
}

// WindowOptions configures a native top-level window.
type WindowOptions struct {
	Frame           bool
	MinWidth        int
	MinHeight       int
	Width           int
	Height          int
	TitleBarStyle   string // "default", "hidden", "hiddenInset"
	BackgroundColor string
	Icon            string
	WebPreferences  WebPreferences
}

// DevToolsMode controls where devtools are docked.
type DevToolsMode string

const (
	DevToolsDetach DevToolsMode = "detach"
	DevToolsRight  DevToolsMode = "right"
	DevToolsBottom DevToolsMode = "bottom"
)

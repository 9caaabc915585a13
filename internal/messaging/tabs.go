package messaging

import (
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
)

// TabFromView builds the tab descriptor for a live view. Views without a
// session (destroyed or detached) yield nil.
func TabFromView(v platform.ContentView) *model.Tab {
	if v == nil {
		return nil
	}
	sess := v.Session()
	if sess == nil {
		return nil
	}

	windowID := v.ID()
	if host, ok := v.HostID(); ok {
		windowID = host
	}
	active := v.ID() == sess.ActiveTab()

	return &model.Tab{
		ID:          v.ID(),
		Index:       v.ID(),
		WindowID:    windowID,
		Highlighted: active,
		Active:      active,
		Selected:    active,
		URL:         v.URL(),
		Title:       v.Title(),
		Audible:     v.IsAudible(),
	}
}

// ViewsInSession returns the live views whose session is sess.
func ViewsInSession(views platform.Views, sess platform.Session) []platform.ContentView {
	if sess == nil {
		return nil
	}
	var out []platform.ContentView
	for _, v := range views.AllContentViews() {
		if s := v.Session(); s != nil && s.ID() == sess.ID() {
			out = append(out, v)
		}
	}
	return out
}

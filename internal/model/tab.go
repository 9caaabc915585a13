package model

// Tab is the extension-facing descriptor of a content view.
// It is derived from live view state on every query and never stored.
type Tab struct {
	ID              int    `json:"id"              yaml:"id"`
	Index           int    `json:"index"           yaml:"index"`
	WindowID        int    `json:"windowId"        yaml:"windowId"`
	Highlighted     bool   `json:"highlighted"     yaml:"highlighted"`
	Active          bool   `json:"active"          yaml:"active"`
	Selected        bool   `json:"selected"        yaml:"selected"`
	Pinned          bool   `json:"pinned"          yaml:"pinned"`
	Discarded       bool   `json:"discarded"       yaml:"discarded"`
	AutoDiscardable bool   `json:"autoDiscardable" yaml:"autoDiscardable"`
	URL             string `json:"url"             yaml:"url"`
	Title           string `json:"title"           yaml:"title"`
	Incognito       bool   `json:"incognito"       yaml:"incognito"`
	Audible         bool   `json:"audible"         yaml:"audible"`

	// Set only on query results.
	LastFocusedWindow bool `json:"lastFocusedWindow,omitempty" yaml:"lastFocusedWindow,omitempty"`
	CurrentWindow     bool `json:"currentWindow,omitempty"     yaml:"currentWindow,omitempty"`
}

// CreateProperties are the arguments of tabs.create.
// WindowID 0 means "not given"; the host resolves a window from the caller.
type CreateProperties struct {
	WindowID int    `json:"windowId,omitempty" yaml:"windowId,omitempty"`
	Index    int    `json:"index,omitempty"    yaml:"index,omitempty"`
	URL      string `json:"url,omitempty"      yaml:"url,omitempty"`
	Active   *bool  `json:"active,omitempty"   yaml:"active,omitempty"`
	Pinned   bool   `json:"pinned,omitempty"   yaml:"pinned,omitempty"`
}

// InjectDetails are the arguments of tabs.insertCSS. Exactly one of Code
// or File is expected; File is relative to the extension's install directory.
type InjectDetails struct {
	Code      string `json:"code,omitempty"      yaml:"code,omitempty"`
	File      string `json:"file,omitempty"      yaml:"file,omitempty"`
	AllFrames bool   `json:"allFrames,omitempty" yaml:"allFrames,omitempty"`
	RunAt     string `json:"runAt,omitempty"     yaml:"runAt,omitempty"`
}

// BadgeTextDetails are the arguments of browserAction.setBadgeText.
type BadgeTextDetails struct {
	Text  string `json:"text"            yaml:"text"`
	TabID int    `json:"tabId,omitempty" yaml:"tabId,omitempty"`
}

// ListenerSpec identifies an extension event subscription.
type ListenerSpec struct {
	Scope string `json:"scope" yaml:"scope"`
	Name  string `json:"name"  yaml:"name"`
	ID    int    `json:"id"    yaml:"id"`
}

package model

// Bounds is a window rectangle in screen coordinates.
type Bounds struct {
	X      int `json:"x"      yaml:"x"`
	Y      int `json:"y"      yaml:"y"`
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether b has no size.
func (b Bounds) IsZero() bool {
	return b.Width == 0 && b.Height == 0
}

// Window summarizes a live application window.
type Window struct {
	ID         int    `json:"id"                   yaml:"id"`
	Title      string `json:"title,omitempty"      yaml:"title,omitempty"`
	Incognito  bool   `json:"incognito,omitempty"  yaml:"incognito,omitempty"`
	Focused    bool   `json:"focused,omitempty"    yaml:"focused,omitempty"`
	Maximized  bool   `json:"maximized,omitempty"  yaml:"maximized,omitempty"`
	Fullscreen bool   `json:"fullscreen,omitempty" yaml:"fullscreen,omitempty"`
	Bounds     Bounds `json:"bounds"               yaml:"bounds"`
}

package model

// Placement is the persisted window placement record.
// An empty record ({}) means "use default geometry".
type Placement struct {
	Bounds     *Bounds `json:"bounds,omitempty"     yaml:"bounds,omitempty"`
	Maximized  bool    `json:"maximized,omitempty"  yaml:"maximized,omitempty"`
	Fullscreen bool    `json:"fullscreen,omitempty" yaml:"fullscreen,omitempty"`
}

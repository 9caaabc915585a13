package platform

import (
	"errors"
)

// Provider bundles all engine backends.
type Provider struct {
	Views    Views
	Windows  WindowFactory
	Sessions SessionManager
	Overlays Overlays
}

// ErrUnsupported is returned when no engine backend is linked in.
var ErrUnsupported = errors.New("no browser engine backend registered")

// NewProviderFunc is set by backend packages via init().
// See internal/platform/headless/init.go for the in-memory registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider from the registered backend.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}

package headless

import "github.com/mj1618/browser-host/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		return New().Provider(), nil
	}
}

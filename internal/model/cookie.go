package model

// Cookie mirrors the extension cookies.Cookie shape.
type Cookie struct {
	Name           string  `json:"name"                     yaml:"name"`
	Value          string  `json:"value"                    yaml:"value"`
	Domain         string  `json:"domain"                   yaml:"domain"`
	HostOnly       bool    `json:"hostOnly"                 yaml:"hostOnly"`
	Path           string  `json:"path"                     yaml:"path"`
	Secure         bool    `json:"secure"                   yaml:"secure"`
	HTTPOnly       bool    `json:"httpOnly"                 yaml:"httpOnly"`
	Session        bool    `json:"session"                  yaml:"session"`
	ExpirationDate float64 `json:"expirationDate,omitempty" yaml:"expirationDate,omitempty"`
	SameSite       string  `json:"sameSite,omitempty"       yaml:"sameSite,omitempty"`
}

// CookieDetails is the argument shape shared by cookies.getAll, cookies.set
// and cookies.remove. For getAll only the filter fields are consulted.
type CookieDetails struct {
	URL            string  `json:"url,omitempty"            yaml:"url,omitempty"`
	Name           string  `json:"name,omitempty"           yaml:"name,omitempty"`
	Value          string  `json:"value,omitempty"          yaml:"value,omitempty"`
	Domain         string  `json:"domain,omitempty"         yaml:"domain,omitempty"`
	Path           string  `json:"path,omitempty"           yaml:"path,omitempty"`
	Secure         bool    `json:"secure,omitempty"         yaml:"secure,omitempty"`
	HTTPOnly       bool    `json:"httpOnly,omitempty"       yaml:"httpOnly,omitempty"`
	ExpirationDate float64 `json:"expirationDate,omitempty" yaml:"expirationDate,omitempty"`
	SameSite       string  `json:"sameSite,omitempty"       yaml:"sameSite,omitempty"`
}

// CookieFilter selects cookies from a store. Empty fields match anything.
type CookieFilter struct {
	URL    string `json:"url,omitempty"    yaml:"url,omitempty"`
	Name   string `json:"name,omitempty"   yaml:"name,omitempty"`
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Path   string `json:"path,omitempty"   yaml:"path,omitempty"`
}

// Filter returns the filter fields of d.
func (d CookieDetails) Filter() CookieFilter {
	return CookieFilter{URL: d.URL, Name: d.Name, Domain: d.Domain, Path: d.Path}
}

// CookieChange is delivered to cookies.onChanged listeners.
type CookieChange struct {
	Cookie  Cookie `json:"cookie"  yaml:"cookie"`
	Removed bool   `json:"removed" yaml:"removed"`
	Cause   string `json:"cause"   yaml:"cause"`
}

// Cookie change causes.
const (
	CauseExplicit  = "explicit"
	CauseOverwrite = "overwrite"
	CauseExpired   = "expired"
)

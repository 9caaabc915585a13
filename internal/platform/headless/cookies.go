package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/browser-host/internal/model"
	"golang.org/x/net/publicsuffix"
)

// CookieStore is an in-memory cookie jar following the RFC 6265 domain and
// path matching rules.
type CookieStore struct {
	mu        sync.Mutex
	cookies   []model.Cookie
	listeners []func(model.CookieChange)
	removes   int
	now       func() time.Time
}

// NewCookieStore creates an empty store.
func NewCookieStore() *CookieStore {
	return &CookieStore{now: time.Now}
}

// OnChanged implements platform.CookieStore.
func (c *CookieStore) OnChanged(fn func(model.CookieChange)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *CookieStore) emit(changes []model.CookieChange) {
	c.mu.Lock()
	listeners := append(([]func(model.CookieChange))(nil), c.listeners...)
	c.mu.Unlock()
	for _, ch := range changes {
		for _, fn := range listeners {
			fn(ch)
		}
	}
}

// Get implements platform.CookieStore.
func (c *CookieStore) Get(_ context.Context, filter model.CookieFilter) ([]model.Cookie, error) {
	var u *url.URL
	if filter.URL != "" {
		parsed, err := url.Parse(filter.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", filter.URL, err)
		}
		u = parsed
	}

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []model.Cookie{}
	for _, ck := range c.cookies {
		if expired(ck, now) {
			continue
		}
		if filter.Name != "" && ck.Name != filter.Name {
			continue
		}
		if filter.Path != "" && ck.Path != filter.Path {
			continue
		}
		if filter.Domain != "" && !domainMatch(strings.TrimPrefix(ck.Domain, "."), normalizeDomain(filter.Domain)) {
			continue
		}
		if u != nil && !matchesURL(ck, u) {
			continue
		}
		out = append(out, ck)
	}
	return out, nil
}

// Set implements platform.CookieStore.
func (c *CookieStore) Set(_ context.Context, d model.CookieDetails) error {
	if d.URL == "" {
		return fmt.Errorf("cookie url is required")
	}
	u, err := url.Parse(d.URL)
	if err != nil || u.Hostname() == "" {
		return fmt.Errorf("invalid cookie url %q", d.URL)
	}
	host := strings.ToLower(u.Hostname())

	ck := model.Cookie{
		Name:           d.Name,
		Value:          d.Value,
		Path:           d.Path,
		Secure:         d.Secure,
		HTTPOnly:       d.HTTPOnly,
		ExpirationDate: d.ExpirationDate,
		Session:        d.ExpirationDate == 0,
		SameSite:       d.SameSite,
	}
	if ck.SameSite == "" {
		ck.SameSite = "unspecified"
	}

	if d.Domain == "" {
		ck.Domain = host
		ck.HostOnly = true
	} else {
		domain := normalizeDomain(d.Domain)
		if !domainMatch(host, domain) {
			return fmt.Errorf("cookie domain %q does not match host %q", d.Domain, host)
		}
		if domain != host {
			if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
				return fmt.Errorf("cookie domain %q is a public suffix", d.Domain)
			}
		}
		ck.Domain = "." + domain
	}
	if ck.Path == "" || !strings.HasPrefix(ck.Path, "/") {
		ck.Path = defaultPath(u.Path)
	}

	var changes []model.CookieChange
	c.mu.Lock()
	for i, old := range c.cookies {
		if old.Name == ck.Name && old.Domain == ck.Domain && old.Path == ck.Path {
			c.cookies = append(c.cookies[:i], c.cookies[i+1:]...)
			changes = append(changes, model.CookieChange{Cookie: old, Removed: true, Cause: model.CauseOverwrite})
			break
		}
	}
	c.cookies = append(c.cookies, ck)
	changes = append(changes, model.CookieChange{Cookie: ck, Cause: model.CauseExplicit})
	c.mu.Unlock()

	c.emit(changes)
	return nil
}

// Remove implements platform.CookieStore.
func (c *CookieStore) Remove(_ context.Context, rawURL, name string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	var changes []model.CookieChange
	c.mu.Lock()
	c.removes++
	kept := c.cookies[:0]
	for _, ck := range c.cookies {
		if ck.Name == name && matchesURL(ck, u) {
			changes = append(changes, model.CookieChange{Cookie: ck, Removed: true, Cause: model.CauseExplicit})
			continue
		}
		kept = append(kept, ck)
	}
	c.cookies = kept
	c.mu.Unlock()

	c.emit(changes)
	return nil
}

// Removes returns how many times Remove was called.
func (c *CookieStore) Removes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removes
}

func (c *CookieStore) clear() {
	c.mu.Lock()
	c.cookies = nil
	c.mu.Unlock()
}

func expired(ck model.Cookie, now time.Time) bool {
	if ck.Session || ck.ExpirationDate == 0 {
		return false
	}
	return float64(now.Unix()) >= ck.ExpirationDate
}

func matchesURL(ck model.Cookie, u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if ck.HostOnly {
		if host != ck.Domain {
			return false
		}
	} else if !domainMatch(host, strings.TrimPrefix(ck.Domain, ".")) {
		return false
	}
	if ck.Secure && u.Scheme != "https" && u.Scheme != "wss" {
		return false
	}
	return pathMatch(requestPath(u), ck.Path)
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimPrefix(d, "."))
}

// domainMatch reports whether host equals domain or is a subdomain of it.
func domainMatch(host, domain string) bool {
	if host == domain {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}

func requestPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

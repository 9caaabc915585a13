package headless

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mj1618/browser-host/internal/platform"
)

// Session is an in-memory browsing session.
type Session struct {
	id        string
	partition string
	incognito bool
	cookies   *CookieStore

	mu          sync.Mutex
	activeTab   int
	lastFocused int
}

func newSession(partition string, incognito bool) *Session {
	return &Session{
		id:        uuid.NewString(),
		partition: partition,
		incognito: incognito,
		cookies:   NewCookieStore(),
	}
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) Partition() string             { return s.partition }
func (s *Session) Incognito() bool               { return s.incognito }
func (s *Session) Cookies() platform.CookieStore { return s.cookies }

// CookieStore returns the concrete store, for inspection.
func (s *Session) CookieStore() *CookieStore { return s.cookies }

func (s *Session) ActiveTab() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SetActiveTab marks id as the session's active tab.
func (s *Session) SetActiveTab(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = id
}

func (s *Session) LastFocusedWindow() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFocused, s.lastFocused != 0
}

// SetLastFocusedWindow records the session's most recently focused window.
func (s *Session) SetLastFocusedWindow(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFocused = id
}

func (s *Session) clearActiveTab(viewID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeTab == viewID {
		s.activeTab = 0
	}
}

func (s *Session) clearLastFocused(windowID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFocused == windowID {
		s.lastFocused = 0
	}
}

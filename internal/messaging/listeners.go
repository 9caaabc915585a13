package messaging

import (
	"sort"
	"sync"

	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

// Listeners records, per session, which views asked to hear about cookie
// changes. Entries are keyed by the listener id the renderer chose.
type Listeners struct {
	mu   sync.Mutex
	sets map[string]map[int]platform.ContentView
	log  *zap.Logger
}

// NewListeners creates an empty registry.
func NewListeners(log *zap.Logger) *Listeners {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listeners{
		sets: make(map[string]map[int]platform.ContentView),
		log:  log,
	}
}

// Add records view under id in the session's set, replacing any previous entry.
func (l *Listeners) Add(sessionID string, id int, view platform.ContentView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.sets[sessionID]
	if !ok {
		set = make(map[int]platform.ContentView)
		l.sets[sessionID] = set
	}
	set[id] = view
}

// Remove deletes id from the session's set. It reports whether an entry existed.
func (l *Listeners) Remove(sessionID string, id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.sets[sessionID]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(l.sets, sessionID)
	}
	return true
}

// Len returns the number of listeners registered for a session.
func (l *Listeners) Len(sessionID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sets[sessionID])
}

// Targets returns a snapshot of the session's listeners ordered by id.
func (l *Listeners) Targets(sessionID string) []platform.ContentView {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.sets[sessionID]
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]platform.ContentView, 0, len(ids))
	for _, id := range ids {
		out = append(out, set[id])
	}
	return out
}

// DropView removes every entry pointing at viewID and returns how many went.
func (l *Listeners) DropView(viewID int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for sid, set := range l.sets {
		for id, v := range set {
			if v.ID() == viewID {
				delete(set, id)
				n++
			}
		}
		if len(set) == 0 {
			delete(l.sets, sid)
		}
	}
	return n
}

// NotifyCookieChanged pushes change to every listener in the session and
// returns the number of successful deliveries.
func (l *Listeners) NotifyCookieChanged(sessionID string, change model.CookieChange) int {
	delivered := 0
	for _, v := range l.Targets(sessionID) {
		if err := v.Send(ChannelCookiesChanged, change); err != nil {
			l.log.Warn("cookie change delivery failed",
				zap.String("session", sessionID),
				zap.Int("view", v.ID()),
				zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

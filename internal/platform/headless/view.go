package headless

import (
	"context"
	"errors"
	"sync"

	"github.com/mj1618/browser-host/internal/platform"
)

// ErrViewDetached is returned when operating on a destroyed view.
var ErrViewDetached = errors.New("view is detached")

// Message is a renderer message recorded by a view.
type Message struct {
	Channel string
	Args    []interface{}
}

// View is an in-memory content view.
type View struct {
	id  int
	typ platform.ViewType

	mu      sync.Mutex
	session *Session
	hostID  int
	owner   int
	url     string
	title   string
	audible bool
	css     []string
	sent    []Message
	sink    func(channel string, args []interface{}) error
}

func (v *View) ID() int                 { return v.id }
func (v *View) Type() platform.ViewType { return v.typ }

// Session implements platform.ContentView.
func (v *View) Session() platform.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return nil
	}
	return v.session
}

func (v *View) HostID() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hostID, v.hostID != 0
}

func (v *View) OwnerWindowID() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.owner, v.owner != 0
}

func (v *View) URL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.url
}

func (v *View) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

func (v *View) IsAudible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.audible
}

// Navigate sets the view's URL and title.
func (v *View) Navigate(url, title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.url = url
	v.title = title
}

// SetAudible sets the audio state.
func (v *View) SetAudible(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.audible = on
}

// Detach releases the view's session, as the engine does on destruction.
func (v *View) Detach() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session = nil
}

// InsertCSS implements platform.ContentView.
func (v *View) InsertCSS(_ context.Context, code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return ErrViewDetached
	}
	v.css = append(v.css, code)
	return nil
}

// CSS returns the stylesheets inserted so far.
func (v *View) CSS() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.css...)
}

// SetSink forwards every subsequent Send to fn in addition to recording it.
// A nil fn stops forwarding.
func (v *View) SetSink(fn func(channel string, args []interface{}) error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sink = fn
}

// Send implements platform.ContentView.
func (v *View) Send(channel string, args ...interface{}) error {
	v.mu.Lock()
	v.sent = append(v.sent, Message{Channel: channel, Args: args})
	sink := v.sink
	v.mu.Unlock()
	if sink != nil {
		return sink(channel, args)
	}
	return nil
}

// Messages returns the messages sent to the view.
func (v *View) Messages() []Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Message(nil), v.sent...)
}

// MessagesOn returns the messages sent on one channel.
func (v *View) MessagesOn(channel string) []Message {
	var out []Message
	for _, m := range v.Messages() {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}

// Package ipc routes named requests from renderer contexts to host handlers.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

var (
	// ErrNoHandler is returned when nothing is registered for a channel.
	ErrNoHandler = errors.New("no handler registered")

	// ErrHandlerExists is returned when Handle is called twice for a channel.
	ErrHandlerExists = errors.New("handler already registered")
)

// Args are the JSON-encoded arguments of a request.
type Args []json.RawMessage

// NewArgs JSON-encodes vals.
func NewArgs(vals ...interface{}) (Args, error) {
	args := make(Args, len(vals))
	for i, v := range vals {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode arg %d: %w", i, err)
		}
		args[i] = b
	}
	return args, nil
}

// MustArgs is NewArgs for values known to encode.
func MustArgs(vals ...interface{}) Args {
	args, err := NewArgs(vals...)
	if err != nil {
		panic(err)
	}
	return args
}

// Decode unmarshals argument i into v. A missing or null argument leaves v
// untouched.
func (a Args) Decode(i int, v interface{}) error {
	if i >= len(a) || len(a[i]) == 0 || string(a[i]) == "null" {
		return nil
	}
	if err := json.Unmarshal(a[i], v); err != nil {
		return fmt.Errorf("decode arg %d: %w", i, err)
	}
	return nil
}

// Event describes one delivered request.
type Event struct {
	Sender    platform.ContentView
	Channel   string
	RequestID string

	// ReturnValue is the reply to a synchronous send.
	ReturnValue interface{}
}

// Listener handles a fire-and-forget or synchronous send.
type Listener func(e *Event, args Args)

// Handler handles an invoke and returns its result.
type Handler func(ctx context.Context, e *Event, args Args) (interface{}, error)

// Bus dispatches requests to registered listeners and handlers.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	handlers  map[string]Handler
	log       *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[string][]Listener),
		handlers:  make(map[string]Handler),
		log:       log,
	}
}

// On adds a listener for sends on channel.
func (b *Bus) On(channel string, fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[channel] = append(b.listeners[channel], fn)
}

// Off removes every listener on channel.
func (b *Bus) Off(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, channel)
}

// Handle registers the invoke handler for channel.
func (b *Bus) Handle(channel string, fn Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[channel]; ok {
		return fmt.Errorf("%s: %w", channel, ErrHandlerExists)
	}
	b.handlers[channel] = fn
	return nil
}

// RemoveHandler unregisters the invoke handler for channel.
func (b *Bus) RemoveHandler(channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, channel)
}

// Channels lists every channel with a listener or handler.
func (b *Bus) Channels() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[string]bool)
	for ch := range b.listeners {
		seen[ch] = true
	}
	for ch := range b.handlers {
		seen[ch] = true
	}
	out := make([]string, 0, len(seen))
	for ch := range seen {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

func (b *Bus) newEvent(sender platform.ContentView, channel string) *Event {
	return &Event{Sender: sender, Channel: channel, RequestID: uuid.NewString()}
}

func (b *Bus) fields(e *Event) []zap.Field {
	fields := []zap.Field{zap.String("channel", e.Channel), zap.String("request", e.RequestID)}
	if e.Sender != nil {
		fields = append(fields, zap.Int("view", e.Sender.ID()))
	}
	return fields
}

func (b *Bus) listenersFor(channel string) []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Listener(nil), b.listeners[channel]...)
}

// Emit delivers a fire-and-forget send.
func (b *Bus) Emit(sender platform.ContentView, channel string, args Args) error {
	fns := b.listenersFor(channel)
	if len(fns) == 0 {
		return fmt.Errorf("%s: %w", channel, ErrNoHandler)
	}
	e := b.newEvent(sender, channel)
	b.log.Debug("ipc emit", b.fields(e)...)
	for _, fn := range fns {
		fn(e, args)
	}
	return nil
}

// SendSync delivers a synchronous send and returns the listener's ReturnValue.
func (b *Bus) SendSync(sender platform.ContentView, channel string, args Args) (interface{}, error) {
	fns := b.listenersFor(channel)
	if len(fns) == 0 {
		return nil, fmt.Errorf("%s: %w", channel, ErrNoHandler)
	}
	e := b.newEvent(sender, channel)
	b.log.Debug("ipc sendSync", b.fields(e)...)
	for _, fn := range fns {
		fn(e, args)
	}
	return e.ReturnValue, nil
}

// Invoke calls the channel's handler. Handler errors are wrapped with the
// channel name.
func (b *Bus) Invoke(ctx context.Context, sender platform.ContentView, channel string, args Args) (interface{}, error) {
	b.mu.RLock()
	fn, ok := b.handlers[channel]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", channel, ErrNoHandler)
	}
	e := b.newEvent(sender, channel)
	b.log.Debug("ipc invoke", b.fields(e)...)
	result, err := fn(ctx, e, args)
	if err != nil {
		b.log.Debug("ipc invoke failed", append(b.fields(e), zap.Error(err))...)
		return nil, fmt.Errorf("%s: %w", channel, err)
	}
	return result, nil
}

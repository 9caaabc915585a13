package ipc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

// Frame kinds.
const (
	KindInvoke   = "invoke"
	KindSend     = "send"
	KindSendSync = "sendSync"
)

// ErrNotConnected is returned by Push when the view has no open bridge.
var ErrNotConnected = errors.New("view not connected")

// Frame is a renderer → host request.
type Frame struct {
	ID      int64  `json:"id,omitempty"`
	Kind    string `json:"kind"`
	Channel string `json:"channel"`
	Args    Args   `json:"args,omitempty"`
}

// Reply answers an invoke or sendSync frame.
type Reply struct {
	ID     int64       `json:"id"`
	Result interface{} `json:"result"`
	Error  string      `json:"error,omitempty"`
}

// Push is a host → renderer message.
type Push struct {
	Channel string        `json:"channel"`
	Args    []interface{} `json:"args"`
}

// sinkSetter is implemented by views whose Send can be redirected.
type sinkSetter interface {
	SetSink(fn func(channel string, args []interface{}) error)
}

type bridgeConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *bridgeConn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Bridge carries bus traffic over websockets, one connection per view.
// Renderers connect to the handler with ?view=<id>.
type Bridge struct {
	bus      *Bus
	views    platform.Views
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.Mutex
	conns map[int]*bridgeConn
}

// NewBridge creates a bridge. An empty allowedOrigins accepts any origin.
func NewBridge(bus *Bus, views platform.Views, log *zap.Logger, allowedOrigins []string) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Bridge{
		bus:   bus,
		views: views,
		log:   log,
		conns: make(map[int]*bridgeConn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// ServeHTTP upgrades the request and serves frames until the peer disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	viewID, err := strconv.Atoi(r.URL.Query().Get("view"))
	if err != nil {
		http.Error(w, "invalid view id", http.StatusBadRequest)
		return
	}
	view, ok := b.views.ContentView(viewID)
	if !ok {
		http.Error(w, fmt.Sprintf("view %d not found", viewID), http.StatusNotFound)
		return
	}

	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Int("view", viewID), zap.Error(err))
		return
	}
	c := &bridgeConn{ws: ws}
	b.attach(view, c)
	defer b.detach(view, c)

	b.log.Debug("renderer connected", zap.Int("view", viewID))
	b.serve(r.Context(), view, c)
}

func (b *Bridge) attach(view platform.ContentView, c *bridgeConn) {
	b.mu.Lock()
	if old, ok := b.conns[view.ID()]; ok {
		old.ws.Close()
	}
	b.conns[view.ID()] = c
	b.mu.Unlock()

	if s, ok := view.(sinkSetter); ok {
		s.SetSink(func(channel string, args []interface{}) error {
			return b.Push(view.ID(), channel, args...)
		})
	}
}

func (b *Bridge) detach(view platform.ContentView, c *bridgeConn) {
	c.ws.Close()
	b.mu.Lock()
	current := b.conns[view.ID()] == c
	if current {
		delete(b.conns, view.ID())
	}
	b.mu.Unlock()

	if s, ok := view.(sinkSetter); ok && current {
		s.SetSink(nil)
	}
	b.log.Debug("renderer disconnected", zap.Int("view", view.ID()))
}

func (b *Bridge) serve(ctx context.Context, view platform.ContentView, c *bridgeConn) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Debug("websocket read ended", zap.Int("view", view.ID()), zap.Error(err))
			}
			return
		}

		switch f.Kind {
		case KindSend:
			if err := b.bus.Emit(view, f.Channel, f.Args); err != nil {
				b.log.Debug("dropped send", zap.String("channel", f.Channel), zap.Error(err))
			}
		case KindSendSync:
			result, err := b.bus.SendSync(view, f.Channel, f.Args)
			b.reply(c, f.ID, result, err)
		case KindInvoke:
			// Invokes may suspend on the engine; run them off the read loop
			// so other requests on this connection keep flowing.
			wg.Add(1)
			go func(f Frame) {
				defer wg.Done()
				result, err := b.bus.Invoke(ctx, view, f.Channel, f.Args)
				b.reply(c, f.ID, result, err)
			}(f)
		default:
			b.reply(c, f.ID, nil, fmt.Errorf("unknown frame kind: %q", f.Kind))
		}
	}
}

func (b *Bridge) reply(c *bridgeConn, id int64, result interface{}, err error) {
	r := Reply{ID: id, Result: result}
	if err != nil {
		r.Result = nil
		r.Error = err.Error()
	}
	if werr := c.writeJSON(r); werr != nil {
		b.log.Debug("websocket write failed", zap.Int64("id", id), zap.Error(werr))
	}
}

// Push sends a message to a connected view.
func (b *Bridge) Push(viewID int, channel string, args ...interface{}) error {
	b.mu.Lock()
	c, ok := b.conns[viewID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("view %d: %w", viewID, ErrNotConnected)
	}
	if args == nil {
		args = []interface{}{}
	}
	return c.writeJSON(Push{Channel: channel, Args: args})
}

// Connected reports whether a view has an open bridge.
func (b *Bridge) Connected(viewID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conns[viewID]
	return ok
}

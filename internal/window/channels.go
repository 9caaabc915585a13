package window

import (
	"fmt"

	"github.com/mj1618/browser-host/internal/ipc"
	"go.uber.org/zap"
)

// Window-scoped channel prefixes. The full channel is "<prefix>-<window id>".
const (
	ChannelToggleMaximize = "window-toggle-maximize"
	ChannelMinimize       = "window-minimize"
	ChannelClose          = "window-close"
	ChannelFocus          = "window-focus"
)

// Scoped returns the channel name for a window.
func Scoped(prefix string, windowID int) string {
	return fmt.Sprintf("%s-%d", prefix, windowID)
}

func (w *AppWindow) registerChannels() {
	actions := map[string]func() error{
		ChannelToggleMaximize: w.ToggleMaximize,
		ChannelMinimize:       w.Minimize,
		ChannelFocus:          w.Focus,
		ChannelClose: func() error {
			w.Close()
			return nil
		},
	}
	for prefix, fn := range actions {
		channel := Scoped(prefix, w.ID())
		fn := fn
		w.deps.Bus.On(channel, func(e *ipc.Event, _ ipc.Args) {
			if err := fn(); err != nil {
				w.log.Debug("window action ignored", zap.String("channel", e.Channel), zap.Error(err))
			}
		})
		w.channels = append(w.channels, channel)
	}
}

func (w *AppWindow) unregisterChannels() {
	w.mu.Lock()
	channels := w.channels
	w.channels = nil
	w.mu.Unlock()
	for _, ch := range channels {
		w.deps.Bus.Off(ch)
	}
}

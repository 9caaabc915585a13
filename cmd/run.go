package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mj1618/browser-host/internal/ipc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the browser host and serve the renderer IPC bridge",
	Long: `Start the host, open one application window, and serve the websocket IPC
bridge renderers connect to at ws://<addr>/ipc?view=<id>.

The host runs until SIGINT or SIGTERM, then closes every window, which
persists the window placement.

Examples:
  browser-host run
  browser-host run --incognito --addr 127.0.0.1:9000`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("incognito", false, "Open the first window in incognito mode")
	runCmd.Flags().String("addr", "", "Listen address for the IPC bridge (default from config)")
}

func newBridgeServer(addr string, bridge *ipc.Bridge) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ipc", bridge)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	a, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()

	incognito, _ := cmd.Flags().GetBool("incognito")
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.Config().IPC.Addr
	}

	w, err := a.NewWindow(incognito)
	if err != nil {
		a.Close()
		return err
	}

	bridge := ipc.NewBridge(a.Bus(), a.Provider().Views, log.Named("bridge"), a.Config().IPC.AllowedOrigins)
	srv := newBridgeServer(addr, bridge)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("ipc bridge listening", zap.String("addr", addr), zap.Int("window", w.ID()),
			zap.Int("ui_view", w.Native().WebContents().ID()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("bridge shutdown error", zap.Error(err))
	}

	a.Close()
	log.Info("host stopped")
	return serveErr
}

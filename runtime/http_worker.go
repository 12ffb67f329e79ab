package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// HTTPWorker adapts an http.Server to the supervised Worker shape. Run
// serves until the supervision context is canceled, then drains in-flight
// requests within the shutdown timeout.
type HTTPWorker struct {
	name            string
	server          *http.Server
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func NewHTTPWorker(name, addr string, handler http.Handler, log *slog.Logger, shutdownTimeout time.Duration) *HTTPWorker {
	return &HTTPWorker{
		name: name,
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *HTTPWorker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		w.log.Info("Listening", "server", w.name, "addr", w.server.Addr)
		errCh <- w.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()
		if err := w.server.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("Shutdown incomplete, closing", "server", w.name, "error", err)
			return w.server.Close()
		}
		w.log.Info("Stopped", "server", w.name)
		return nil
	}
}

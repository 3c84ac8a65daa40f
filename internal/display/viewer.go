package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/roman-kulish/flightplot/internal/figure"
)

const defaultShutdownTimeout = 2 * time.Second

// WithLogger sets the logger for the viewer
func WithLogger(logger *slog.Logger) func(*Viewer) {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// WithShutdownTimeout bounds how long Serve waits for open requests once the
// context is cancelled.
func WithShutdownTimeout(timeout time.Duration) func(*Viewer) {
	return func(v *Viewer) {
		if timeout > 0 {
			v.shutdownTimeout = timeout
		}
	}
}

// WithBrowser makes Serve open the viewer page in the default browser once
// the listener is up.
func WithBrowser(open bool) func(*Viewer) {
	return func(v *Viewer) {
		v.openBrowser = open
	}
}

// Viewer serves one figure over HTTP: the interactive chart page at / and the
// raster image at /figure.png.
type Viewer struct {
	fig             *figure.Figure
	raster          *RasterRenderer
	charts          *ChartRenderer
	logger          *slog.Logger
	shutdownTimeout time.Duration
	openBrowser     bool

	pngOnce sync.Once
	png     []byte
	pngErr  error
}

func NewViewer(fig *figure.Figure, raster *RasterRenderer, charts *ChartRenderer, options ...func(*Viewer)) *Viewer {
	v := Viewer{
		fig:             fig,
		raster:          raster,
		charts:          charts,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, option := range options {
		option(&v)
	}

	return &v
}

// Handler returns the routes of the viewer.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /figure.png", v.handlePNG)
	mux.HandleFunc("GET /healthz", v.handleHealth)
	mux.HandleFunc("GET /{$}", v.handlePage)
	return mux
}

// Serve listens on addr until ctx is cancelled. The figure stays on screen
// for as long as Serve runs.
func (v *Viewer) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           v.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := "http://" + listener.Addr().String() + "/"

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	pterm.Info.Printfln("Viewer running at %s", url)
	pterm.Info.Println("Press Ctrl+C to close the figure")
	v.logger.Info("viewer started", slog.String("url", url))

	if v.openBrowser {
		if err := openBrowser(url); err != nil {
			v.logger.Warn("could not open browser", slog.String("url", url), slog.Any("error", err))
		}
	}

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving viewer: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	v.logger.Info("shutting down viewer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		v.logger.Warn("viewer shutdown", slog.Any("error", err))
		if err := server.Close(); err != nil {
			return fmt.Errorf("closing viewer: %w", err)
		}
	}

	if err, ok := <-errCh; ok {
		return fmt.Errorf("serving viewer: %w", err)
	}
	return nil
}

func (v *Viewer) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := v.charts.WriteHTML(&buf, v.fig); err != nil {
		v.logger.Error("rendering page", slog.Any("error", err))
		http.Error(w, "failed to render figure", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		v.logger.Debug("writing page", slog.Any("error", err))
	}
}

func (v *Viewer) handlePNG(w http.ResponseWriter, r *http.Request) {
	v.pngOnce.Do(func() {
		var buf bytes.Buffer
		v.pngErr = v.raster.WritePNG(&buf, v.fig)
		v.png = buf.Bytes()
	})

	if v.pngErr != nil {
		v.logger.Error("rendering png", slog.Any("error", v.pngErr))
		http.Error(w, "failed to render figure", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(v.png); err != nil {
		v.logger.Debug("writing png", slog.Any("error", err))
	}
}

func (v *Viewer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

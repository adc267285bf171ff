package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	srv *http.Server
}

type Deps struct {
	Chat   ChatAgent
	Lister Lister
	Log    *slog.Logger
}

func New(addr string, exposeMetrics bool, d Deps) *Server {
	return &Server{srv: &http.Server{Addr: addr, Handler: NewMux(exposeMetrics, d)}}
}

func NewMux(exposeMetrics bool, d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if exposeMetrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	if d.Chat != nil {
		mux.Handle("GET /chat", NewChatHandler(d.Chat, d.Log))
	}
	if d.Lister != nil {
		mux.Handle("GET /export/{kind}", NewExportHandler(d.Lister, d.Log))
	}
	return mux
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

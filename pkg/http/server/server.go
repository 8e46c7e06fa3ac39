// Package httpserver wraps net/http.Server with background startup and
// graceful shutdown.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

const (
	defaultAddr            = ":80"
	defaultShutdownTimeout = 3 * time.Second
)

type Server struct {
	server          *http.Server
	errCh           chan error
	shutdownTimeout time.Duration
}

type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
}

func New(handler http.Handler, opt Options) *Server {
	if opt.Addr == "" {
		opt.Addr = defaultAddr
	}

	if opt.ShutdownTimeout <= 0 {
		opt.ShutdownTimeout = defaultShutdownTimeout
	}

	httpServer := &http.Server{
		Handler: handler,
		Addr:    opt.Addr,
	}

	srv := &Server{
		server:          httpServer,
		errCh:           make(chan error, 1),
		shutdownTimeout: opt.ShutdownTimeout,
	}

	go srv.start()

	return srv
}

func (s *Server) start() {
	s.errCh <- s.server.ListenAndServe()
	close(s.errCh)
}

// Notify reports the ListenAndServe result once the server stops serving.
func (s *Server) Notify() <-chan error {
	return s.errCh
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

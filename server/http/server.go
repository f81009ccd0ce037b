package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/w-h-a/tutor/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type httpServer struct {
	options server.Options
	handler http.Handler
	srv     *http.Server
	errCh   chan error
	mtx     sync.RWMutex
}

func (s *httpServer) Options() server.Options {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.options
}

func (s *httpServer) Handle(handler any) error {
	h, ok := handler.(http.Handler)
	if !ok {
		return fmt.Errorf("http server cannot serve %T", handler)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.handler = h

	return nil
}

// Start listens and serves in the background. Options().Address reports the
// bound address, which matters when the configured port is 0.
func (s *httpServer) Start() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.handler == nil {
		return errors.New("http server has no handler")
	}

	if s.srv != nil {
		return errors.New("http server already started")
	}

	h := s.handler

	ms, _ := MiddlewareFrom(s.options.Context)
	for i := len(ms) - 1; i >= 0; i-- {
		h = ms[i](h)
	}

	h = otelhttp.NewHandler(h, s.options.Name)

	ln, err := net.Listen("tcp", s.options.Address)
	if err != nil {
		return err
	}

	s.options.Address = ln.Addr().String()

	s.srv = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "address", ln.Addr().String(), "error", err)
			s.errCh <- err
		}
		close(s.errCh)
	}(s.srv)

	slog.Info("http server listening", "name", s.options.Name, "address", s.options.Address)

	return nil
}

// Stop drains in-flight requests until ctx ends or the shutdown timeout passes.
func (s *httpServer) Stop(ctx context.Context) error {
	s.mtx.Lock()
	srv := s.srv
	timeout := s.options.ShutdownTimeout
	s.mtx.Unlock()

	if srv == nil {
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	return <-s.errCh
}

func NewServer(opts ...server.Option) server.Server {
	options := server.NewOptions(opts...)

	return &httpServer{
		options: options,
		errCh:   make(chan error, 1),
		mtx:     sync.RWMutex{},
	}
}

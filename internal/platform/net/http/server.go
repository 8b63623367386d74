package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"udfhost/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server is a thin wrapper over chi + stdlib http.Server. The listener is
// opened explicitly in Start so callers can block on WaitForStartup until the
// OS socket is actually accepting, and read the bound address when the
// configured port was 0.
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server

	mu    sync.Mutex
	ln    net.Listener
	ready chan struct{}
	done  chan error
}

// NewServer creates a server bound to addr (e.g. ":8000" or "127.0.0.1:0")
// opts receive the *chi.Mux so callers can mount routes/mw
func NewServer(addr string, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ready: make(chan struct{}),
		done:  make(chan error, 1),
	}
}

// SetHandler replaces the server's handler. Must be called before Start.
func (s *Server) SetHandler(h stdhttp.Handler) { s.srv.Handler = h }

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router {
	return AdaptChi(s.mux)
}

// Addr returns the bound listener address once started, else the configured one
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Start opens the listener and begins serving in the background.
// The returned error covers listener setup only; serve errors arrive on Done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	logger.Named("http").Info().Str("addr", ln.Addr().String()).Msg("http listening")
	close(s.ready)

	go func() {
		err := s.srv.Serve(ln)
		if err == stdhttp.ErrServerClosed {
			err = nil
		}
		s.done <- err
	}()
	return nil
}

// WaitForStartup blocks until the listener is accepting or ctx is done
func (s *Server) WaitForStartup(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case err := <-s.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done delivers the terminal serve error (nil on clean shutdown)
func (s *Server) Done() <-chan error { return s.done }

// Run starts the server and blocks until it stops
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shCtx)
		return <-s.done
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Package server runs the HTTP listener around a persistence lifecycle:
// the store is initialized before the listener binds and torn down after it drains.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/items-backend/internal/logger"
	"github.com/GoSim-25-26J-441/items-backend/internal/persistence"
	"go.uber.org/zap"
)

// ErrStartup wraps every failure that happens before the listener is serving.
var ErrStartup = errors.New("startup failed")

type State int32

const (
	StateStarting State = iota
	StateListening
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Option func(*Server)

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithShutdownChannel lets tests trigger shutdown without OS signals.
func WithShutdownChannel(ch <-chan struct{}) Option {
	return func(s *Server) { s.shutdownChan = ch }
}

// WithShutdownTimeout bounds the HTTP drain and the store teardown together. Defaults to 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithSignals replaces the default termination signals.
func WithSignals(sig ...os.Signal) Option {
	return func(s *Server) { s.signals = sig }
}

type Server struct {
	addr  string
	store persistence.Lifecycle
	http  *http.Server
	log   *logger.Logger

	signals         []os.Signal
	shutdownChan    <-chan struct{}
	shutdownTimeout time.Duration

	state     atomic.Int32
	boundAddr atomic.Value
	listening chan struct{}

	stop         chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

func New(addr string, handler http.Handler, store persistence.Lifecycle, opts ...Option) *Server {
	s := &Server{
		addr:  addr,
		store: store,
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		signals:         defaultSignals(),
		shutdownTimeout: 10 * time.Second,
		listening:       make(chan struct{}),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) State() State {
	return State(s.state.Load())
}

// Listening is closed once the listener is bound.
func (s *Server) Listening() <-chan struct{} {
	return s.listening
}

// Addr is the bound listener address, or "" before the server is listening.
func (s *Server) Addr() string {
	if a, ok := s.boundAddr.Load().(string); ok {
		return a
	}
	return ""
}

// Run initializes the store, serves until a termination trigger, then shuts down.
// It returns an error wrapping ErrStartup if the server never started serving, nil otherwise.
// Termination signals are observed from the moment Run is called, so a signal that
// arrives while Init is still connecting aborts startup cleanly instead of killing the process.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-s.stop:
		// Shutdown ran before Run; nothing was opened.
		<-s.done
		return nil
	default:
	}

	sigCh := make(chan os.Signal, 1)
	if len(s.signals) > 0 {
		signal.Notify(sigCh, s.signals...)
		defer signal.Stop(sigCh)
	}

	initCtx, cancelInit := context.WithCancel(ctx)
	defer cancelInit()
	initErr := make(chan error, 1)
	go func() { initErr <- s.store.Init(initCtx) }()

	select {
	case err := <-initErr:
		if err != nil {
			s.setState(StateTerminated)
			return fmt.Errorf("%w: persistence init: %w", ErrStartup, err)
		}
	case sig := <-sigCh:
		s.log.Info("signal received during startup", zap.String("signal", sig.String()))
		s.abortStartup(cancelInit, initErr)
		return nil
	case <-s.shutdownChan:
		s.log.Info("shutdown requested during startup")
		s.abortStartup(cancelInit, initErr)
		return nil
	case <-s.stop:
		// Shutdown raced with Init; its teardown may have run before Init opened anything.
		cancelInit()
		<-initErr
		<-s.done
		_ = s.store.Teardown(context.Background())
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		_ = s.store.Teardown(context.Background())
		s.setState(StateTerminated)
		return fmt.Errorf("%w: listen on %s: %w", ErrStartup, s.addr, err)
	}

	if !s.state.CompareAndSwap(int32(StateStarting), int32(StateListening)) {
		// Shutdown won between Init and Listen and already tore the store down.
		_ = ln.Close()
		<-s.done
		return nil
	}
	s.boundAddr.Store(ln.Addr().String())
	close(s.listening)
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	serveErr := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.log.Info("signal received", zap.String("signal", sig.String()))
	case <-s.shutdownChan:
		s.log.Info("shutdown requested")
	case <-s.stop:
	case <-ctx.Done():
		s.log.Info("context done", zap.Error(ctx.Err()))
	case err := <-serveErr:
		s.log.Error("http server error", zap.Error(err))
	}

	s.Shutdown()
	return nil
}

// abortStartup cancels a pending Init, waits for it to return, then runs the
// regular shutdown so the store is torn down after whatever Init managed to open.
func (s *Server) abortStartup(cancelInit context.CancelFunc, initErr <-chan error) {
	cancelInit()
	if err := <-initErr; err != nil {
		s.log.Debug("init aborted", zap.Error(err))
	}
	s.Shutdown()
}

// Shutdown drains the HTTP server and tears down the store. It is safe to call
// from any goroutine, any number of times; every caller returns after the first
// shutdown completes. Teardown failures are logged and otherwise ignored.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.stop)
		s.setState(StateShuttingDown)
		s.log.Info("gracefully shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			s.log.Warn("http server shutdown", zap.Error(err))
		}

		// TODO: confirm with product whether teardown failures should affect the exit status.
		if err := s.store.Teardown(ctx); err != nil {
			s.log.Warn("persistence teardown failed", zap.Error(err))
		}

		s.setState(StateTerminated)
		s.log.Info("shutdown complete")
		close(s.done)
	})
	<-s.done
}

func (s *Server) setState(st State) {
	s.state.Store(int32(st))
}

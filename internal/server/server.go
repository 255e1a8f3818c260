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
	"syscall"
	"time"

	"github.com/muurk/simplehome/internal/discovery"
	"github.com/muurk/simplehome/internal/logging"
	"github.com/muurk/simplehome/internal/ssdp"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds the graceful HTTP shutdown
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host      string // HTTP listen host (empty = all interfaces)
	Addr      string // Full listen address, overrides Host and the descriptor port
	Interface string // Network interface to advertise on (empty = auto)
	MDNS      bool   // Advertise the description endpoint over mDNS

	ShutdownTimeout time.Duration
}

// Server runs the SSDP engine together with the HTTP description endpoint
type Server struct {
	config *Config
	desc   *ssdp.Descriptor
	engine *ssdp.Engine
	hub    *Hub

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	advertiser *discovery.Advertiser
	cancelTick context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a server advertising desc. Engine events are published on
// the /events stream in addition to opts.OnEvent.
func New(config *Config, desc *ssdp.Descriptor, opts ssdp.Options) *Server {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Interface == "" {
		opts.Interface = config.Interface
	}
	if opts.Transport == nil {
		opts.Transport = ssdp.NewUDPTransport()
	}

	hub := NewHub()
	next := opts.OnEvent
	opts.OnEvent = func(ev ssdp.Event) {
		hub.Publish(ev)
		if next != nil {
			next(ev)
		}
	}

	desc.Normalize()
	return &Server{
		config: config,
		desc:   desc,
		engine: ssdp.NewEngine(desc, opts),
		hub:    hub,
	}
}

// Engine returns the discovery engine
func (s *Server) Engine() *ssdp.Engine {
	return s.engine
}

// Hub returns the event hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler without starting anything
func (s *Server) Handler() http.Handler {
	return NewHandler(s.engine, s.desc.SchemaURL, s.hub)
}

// Addr returns the HTTP listen address, or nil before Run
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start runs the server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := s.Run(ctx)
	if ctx.Err() != nil {
		logging.Info("Shutdown signal received, server stopped")
	}
	return err
}

// Run binds the HTTP listener, begins the discovery session, serves HTTP and
// ticks the engine until ctx is done or the HTTP server fails, then shuts
// everything down. With an explicit Addr the advertised port follows the
// listener.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Addr
	if addr == "" {
		addr = net.JoinHostPort(s.config.Host, fmt.Sprint(s.desc.Port))
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.config.Addr != "" {
		s.advertiseListenerPort(listener.Addr())
	}

	if err := s.engine.Begin(); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to begin discovery session: %w", err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	tickCtx, cancelTick := context.WithCancel(ctx)

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.cancelTick = cancelTick
	s.mu.Unlock()

	logging.Info("Starting SimpleHome device",
		zap.String("http_addr", listener.Addr().String()),
		zap.String("location", s.desc.Location(s.engine.LocalIP())),
		zap.String("uuid", s.desc.UUID),
	)

	errChan := make(chan error, 1)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.engine.TickLoop(tickCtx)
	}()

	if s.config.MDNS {
		s.startMDNS()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
		logging.Error("Server error", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// advertiseListenerPort points LOCATION and URLBase at the port actually
// served when an explicit listen address moved the HTTP listener
func (s *Server) advertiseListenerPort(addr net.Addr) {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || tcp.Port == s.desc.Port {
		return
	}
	logging.Info("Advertising HTTP listener port",
		zap.Int("configured_port", s.desc.Port),
		zap.Int("listen_port", tcp.Port),
	)
	s.desc.Port = tcp.Port
}

func (s *Server) startMDNS() {
	ifi, err := ssdp.InterfaceByIP(s.engine.LocalIP())
	if err != nil {
		logging.Warn("mDNS interface lookup failed, advertising on all interfaces", zap.Error(err))
		ifi = nil
	}

	advertiser, err := discovery.Advertise(s.desc, ifi)
	if err != nil {
		logging.Warn("mDNS advertisement disabled", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.advertiser = advertiser
	s.mu.Unlock()
}

// Shutdown gracefully stops the HTTP server, the tick loop, the mDNS
// advertisement and the discovery session. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	httpServer := s.httpServer
	cancelTick := s.cancelTick
	advertiser := s.advertiser
	s.httpServer = nil
	s.cancelTick = nil
	s.advertiser = nil
	s.mu.Unlock()

	if cancelTick != nil {
		cancelTick()
	}
	advertiser.Shutdown()
	s.hub.Close()

	var err error
	if httpServer != nil {
		if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
			logging.Warn("HTTP shutdown timeout, forcing close", zap.Error(shutdownErr))
			_ = httpServer.Close()
			err = shutdownErr
		}
	}

	s.wg.Wait()
	s.engine.End()

	logging.Sync()
	return err
}

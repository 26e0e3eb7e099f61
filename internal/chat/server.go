package chat

import (
	"log/slog"
	"net"

	"github.com/relvane/chatrelay/internal/protocol"
)

// Server ties the pieces together: a TCP listener feeding one handler
// goroutine per connection, a shared registry, and the inactivity
// monitor running beside them.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	router   *Router
	monitor  *Monitor
	listener net.Listener
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := NewRegistry(cfg.MaxSessions, logger)
	return &Server{
		cfg:     cfg,
		logger:  logger,
		reg:     reg,
		router:  NewRouter(reg, logger),
		monitor: NewMonitor(reg, cfg.SweepInterval, cfg.IdleThreshold, logger),
	}
}

// Registry exposes the session registry for inspection.
func (s *Server) Registry() *Registry {
	return s.reg
}

// Addr reports the bound listen address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.monitor.Run()
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", s.cfg.Addr)
	return nil
}

// Stop announces the shutdown to every registered session, then closes
// the listener, the monitor, and all live transports.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	sessions := s.reg.Sessions()
	farewell := &protocol.Message{Type: protocol.TypeServerShutdown, Text: "server shutting down"}
	for _, sess := range sessions {
		if !sess.Send(farewell) {
			DroppedDeliveries.Inc()
		}
	}
	// Closing the queues lets each writer flush the farewell before the
	// transports go away.
	for _, sess := range sessions {
		sess.CloseOut()
	}

	if s.listener != nil {
		s.listener.Close()
	}

	s.monitor.Stop()
	s.monitor.Wait()

	for _, sess := range sessions {
		sess.Teardown(s.reg)
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Closed listener means we are shutting down.
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())

		sess := NewSession(conn, s.cfg.SessionBuffer)
		go HandleSession(sess, s.router, s.reg, s.logger)
	}
}

package chat

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/relvane/chatrelay/internal/protocol"
)

// HandleSession drives one connection from accept to teardown. Until a
// REGISTER succeeds only REGISTER is legal; anything else is answered
// with NOT_REGISTERED and the connection closes. After registration the
// full operation set is open and a malformed frame costs only itself.
func HandleSession(s *Session, router *Router, reg *Registry, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("addr", s.conn.RemoteAddr().String())

	defer s.Teardown(reg)
	s.writerDone = StartOutboundWriter(s.conn, s.out)

	dec := protocol.NewDecoder(bufio.NewReader(s.conn))

	// Registration handshake. Rejections (duplicate, full, invalid
	// name) keep the connection open so the client can retry.
	for registered := false; !registered; {
		msg, err := dec.Decode()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("read before registration", "error", err)
			}
			return
		}
		if msg.Type != protocol.TypeRegister {
			s.Send(protocol.Error(protocol.ReasonNotRegistered))
			logger.Warn("message before registration", "type", msg.Type)
			return
		}

		start := time.Now()
		registered = router.Register(s, msg)
		MessagesTotal.WithLabelValues("register").Inc()
		RouteDuration.WithLabelValues("register").Observe(time.Since(start).Seconds())
	}

	logger = logger.With("handle", s.Handle())

	for {
		msg, err := dec.Decode()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				logger.Warn("malformed message dropped", "error", err)
				continue
			}
			if !errors.Is(err, io.EOF) {
				logger.Warn("connection read failed", "error", err)
			}
			return
		}

		start := time.Now()
		label, quit := dispatch(router, s, msg)
		if label == "" {
			logger.Warn("unknown message type dropped", "type", msg.Type)
			continue
		}
		MessagesTotal.WithLabelValues(label).Inc()
		RouteDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if quit {
			return
		}
	}
}

// dispatch routes one registered-phase message and reports the metric
// label plus whether the connection is done.
func dispatch(router *Router, s *Session, msg *protocol.Message) (string, bool) {
	switch msg.Type {
	case protocol.TypeExit:
		router.Exit(s)
		return "exit", true
	case protocol.TypeStatus:
		router.SetStatus(s, msg)
		return "status", false
	case protocol.TypeBroadcast:
		router.Broadcast(s, msg)
		return "broadcast", false
	case protocol.TypeDirect:
		router.Direct(s, msg)
		return "direct", false
	case protocol.TypeList:
		router.List(s)
		return "list", false
	case protocol.TypeShow:
		router.Show(s, msg)
		return "show", false
	case protocol.TypeRegister:
		// Handles are immutable once registered.
		s.Send(protocol.Error(protocol.ReasonDuplicate))
		return "register", false
	}
	return "", false
}

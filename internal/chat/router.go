package chat

import (
	"log/slog"
	"strings"

	"github.com/relvane/chatrelay/internal/protocol"
)

// Router implements the relay operations on top of the Registry. It is
// stateless; every method takes the sending session and enqueues zero
// or more messages on destination sessions. Enqueues never block and
// never happen under the registry lock, so a slow or dying peer cannot
// stall routing for anyone else.
type Router struct {
	reg    *Registry
	logger *slog.Logger
}

func NewRouter(reg *Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{reg: reg, logger: logger}
}

// Register validates the requested handle and admits the session. The
// reply is RESULT OK, or RESULT ERROR with INVALID_NAME, DUPLICATE, or
// FULL. Returns whether registration succeeded.
func (rt *Router) Register(s *Session, msg *protocol.Message) bool {
	handle := strings.TrimSpace(msg.Handle)
	if handle == "" || len(handle) > MaxHandleLen {
		rt.reply(s, protocol.Error(protocol.ReasonInvalidName))
		return false
	}

	_, err := rt.reg.Register(s, handle, msg.Address)
	switch err {
	case nil:
		rt.reply(s, protocol.OK())
		return true
	case ErrDuplicateHandle, ErrDuplicateAddress:
		rt.reply(s, protocol.Error(protocol.ReasonDuplicate))
	case ErrRegistryFull:
		rt.reply(s, protocol.Error(protocol.ReasonFull))
	default:
		rt.logger.Error("register failed", "handle", handle, "error", err)
		rt.reply(s, protocol.Error(protocol.ReasonDuplicate))
	}
	return false
}

// Exit removes the sender's registration. Repeated exits still get OK.
func (rt *Router) Exit(s *Session) {
	rt.reg.Remove(s.Handle())
	rt.reply(s, protocol.OK())
}

// SetStatus changes the presence of the named user. The original
// protocol lets any registered client name any handle here, so the
// target comes from the message, defaulting to the sender.
func (rt *Router) SetStatus(s *Session, msg *protocol.Message) {
	p, ok := ParsePresence(msg.Status)
	if !ok {
		rt.reply(s, protocol.Error(protocol.ReasonInvalidStatus))
		return
	}

	target := msg.Handle
	if target == "" {
		target = s.Handle()
	}
	if err := rt.reg.SetPresence(target, p); err != nil {
		rt.reply(s, protocol.Error(protocol.ReasonUserNotFound))
		return
	}
	rt.reply(s, protocol.OK())
}

// Broadcast delivers text to every registered session, the sender
// included; the sender's copy is its echo. Delivery is best effort in
// registration order.
func (rt *Router) Broadcast(s *Session, msg *protocol.Message) {
	rt.reg.Touch(s.Handle())

	out := &protocol.Message{
		Type:   protocol.TypeBroadcast,
		Sender: s.Handle(),
		Text:   msg.Text,
	}
	for _, dest := range rt.reg.Sessions() {
		if !dest.Send(out) {
			DroppedDeliveries.Inc()
			rt.logger.Warn("broadcast delivery dropped", "from", s.Handle(), "to", dest.Handle())
		}
	}
}

// Direct delivers text to a single recipient. An unknown recipient gets
// reported back to the sender as USER_NOT_FOUND rather than silently
// dropped.
func (rt *Router) Direct(s *Session, msg *protocol.Message) {
	rt.reg.Touch(s.Handle())

	dest, ok := rt.reg.session(msg.Recipient)
	if !ok {
		rt.reply(s, protocol.Error(protocol.ReasonUserNotFound))
		return
	}
	out := &protocol.Message{
		Type:      protocol.TypeDirect,
		Sender:    s.Handle(),
		Recipient: msg.Recipient,
		Text:      msg.Text,
	}
	if !dest.Send(out) {
		DroppedDeliveries.Inc()
		rt.logger.Warn("direct delivery dropped", "from", s.Handle(), "to", msg.Recipient)
	}
}

// List sends the requester the handles of all registered users in
// registration order.
func (rt *Router) List(s *Session) {
	rt.reply(s, &protocol.Message{
		Type:    protocol.TypeListResult,
		Handles: rt.reg.SnapshotHandles(),
	})
}

// Show sends the requester the named user's handle, address, and
// presence, or USER_NOT_FOUND.
func (rt *Router) Show(s *Session, msg *protocol.Message) {
	view, ok := rt.reg.Lookup(msg.Handle)
	if !ok {
		rt.reply(s, protocol.Error(protocol.ReasonUserNotFound))
		return
	}
	rt.reply(s, &protocol.Message{
		Type:    protocol.TypeShowResult,
		Handle:  view.Handle,
		Address: view.Addr,
		Status:  view.Presence.String(),
	})
}

func (rt *Router) reply(s *Session, m *protocol.Message) {
	if !s.Send(m) {
		DroppedDeliveries.Inc()
	}
}

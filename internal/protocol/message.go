// Package protocol defines the wire messages exchanged between relay
// clients and the server, and the length-prefixed framing that carries
// them over a byte stream.
package protocol

// Message discriminators.
const (
	TypeRegister       = "REGISTER"
	TypeExit           = "EXIT"
	TypeStatus         = "STATUS"
	TypeBroadcast      = "BROADCAST"
	TypeDirect         = "DIRECT"
	TypeList           = "LIST"
	TypeListResult     = "LIST_RESULT"
	TypeShow           = "SHOW"
	TypeShowResult     = "SHOW_RESULT"
	TypeResult         = "RESULT"
	TypeServerShutdown = "SERVER_SHUTDOWN"
)

// RESULT outcomes.
const (
	OutcomeOK    = "OK"
	OutcomeError = "ERROR"
)

// RESULT reason codes.
const (
	ReasonDuplicate     = "DUPLICATE"
	ReasonFull          = "FULL"
	ReasonInvalidName   = "INVALID_NAME"
	ReasonInvalidStatus = "INVALID_STATUS"
	ReasonUserNotFound  = "USER_NOT_FOUND"
	ReasonNotRegistered = "NOT_REGISTERED"
)

// Message is the single envelope for every frame on the wire. Type is
// always set; the remaining fields are populated per discriminator.
type Message struct {
	Type      string   `json:"type"`
	Handle    string   `json:"handle,omitempty"`
	Address   string   `json:"address,omitempty"`
	Status    string   `json:"status,omitempty"`
	Sender    string   `json:"sender,omitempty"`
	Recipient string   `json:"recipient,omitempty"`
	Text      string   `json:"text,omitempty"`
	Handles   []string `json:"handles,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// OK builds a successful RESULT reply.
func OK() *Message {
	return &Message{Type: TypeResult, Outcome: OutcomeOK}
}

// Error builds a failed RESULT reply with the given reason code.
func Error(reason string) *Message {
	return &Message{Type: TypeResult, Outcome: OutcomeError, Reason: reason}
}

package chat

import (
	"bufio"
	"net"
	"time"

	"github.com/relvane/chatrelay/internal/protocol"
)

const writeTimeout = 10 * time.Second

// StartOutboundWriter drains the session's queue onto the connection.
// One writer per transport keeps frames from different senders whole on
// the wire. Best-effort: a write error just stops the writer, teardown
// is the reader's job. The returned channel closes when the writer has
// stopped.
func StartOutboundWriter(conn net.Conn, out <-chan *protocol.Message) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w := bufio.NewWriter(conn)
		enc := protocol.NewEncoder(w)
		for msg := range out {
			// A peer that stops reading must not pin this goroutine.
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := enc.Encode(msg); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}()
	return done
}

package chat

import (
	"log/slog"
	"time"

	"github.com/relvane/chatrelay/internal/protocol"
)

// Monitor periodically demotes sessions that went quiet for longer than
// the threshold to IDLE and tells them so. Promotions back out of IDLE
// only happen through an explicit status change from the client.
type Monitor struct {
	reg       *Registry
	interval  time.Duration
	threshold time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewMonitor(reg *Registry, interval, threshold time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if threshold <= 0 {
		threshold = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		reg:       reg,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (m *Monitor) Run() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now())
		case <-m.stopCh:
			return
		}
	}
}

// Stop signals the Run loop to exit.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// Wait blocks until the Run loop has completely finished.
func (m *Monitor) Wait() {
	<-m.doneCh
}

// sweep demotes stale sessions under the registry lock, then notifies
// them after the lock is released. A session already IDLE is skipped, so
// each lapse produces exactly one notification. A failed delivery is
// logged and never aborts the rest of the sweep.
func (m *Monitor) sweep(now time.Time) {
	var demoted []*Session
	m.reg.ForEach(func(s *Session) {
		if s.presence != PresenceIdle && now.Sub(s.lastActivity) > m.threshold {
			s.presence = PresenceIdle
			demoted = append(demoted, s)
		}
	})

	for _, s := range demoted {
		IdleTransitions.Inc()
		m.logger.Info("session marked idle", "handle", s.Handle())

		note := &protocol.Message{
			Type:   protocol.TypeStatus,
			Handle: s.Handle(),
			Status: PresenceIdle.String(),
		}
		if !s.Send(note) {
			DroppedDeliveries.Inc()
			m.logger.Warn("idle notification dropped", "handle", s.Handle())
		}
	}
}

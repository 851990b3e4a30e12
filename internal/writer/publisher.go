// internal/writer/publisher.go
package writer

import (
	"context"
	"log/slog"
	"time"

	"github.com/tamzrod/taskwatch/internal/status"
)

// PublishInterval is the status export cadence.
const PublishInterval = time.Second

// StateReader is the read side of status.State.
type StateReader interface {
	Snapshot() status.Snapshot
}

// Publisher mirrors the monitor state into a status block.
// It only reads the state.
type Publisher struct {
	state  StateReader
	writer StatusWriter
	log    *slog.Logger
	now    func() time.Time

	failing bool
}

func NewPublisher(state StateReader, w StatusWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{state: state, writer: w, log: logger, now: time.Now}
}

// PublishOnce writes the current snapshot. Failures are logged on change
// only, so a dead endpoint does not flood the log.
func (p *Publisher) PublishOnce() error {
	err := p.writer.WriteStatus(p.state.Snapshot(), p.now())
	switch {
	case err != nil && !p.failing:
		p.failing = true
		p.log.Warn("status_export_failed", "error", err.Error())
	case err == nil && p.failing:
		p.failing = false
		p.log.Info("status_export_recovered")
	}
	return err
}

// Run publishes at PublishInterval until ctx ends.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.PublishOnce()
		}
	}
}

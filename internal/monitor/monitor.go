// internal/monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/clock"
	"github.com/tamzrod/taskwatch/internal/navigator"
	"github.com/tamzrod/taskwatch/internal/notify"
	"github.com/tamzrod/taskwatch/internal/screen"
	"github.com/tamzrod/taskwatch/internal/status"
)

// Navigator abstracts the menu traversal the loop depends on.
type Navigator interface {
	Navigate(ctx context.Context, t chat.Transport) (navigator.Result, error)
}

// Notifier delivers one notification.
type Notifier interface {
	Send(ctx context.Context, dir notify.Directory, sev notify.Severity, text string) error
}

// SessionSource hands out the live session and repairs it after a
// failed cycle. Recover returns an error only when it gave up.
type SessionSource interface {
	Session() chat.Transport
	Directory() notify.Directory
	Recover(ctx context.Context, cause error) error
}

// Config is the minimal runtime config the loop needs.
type Config struct {
	Conversation chat.Peer
	Markers      screen.Markers
	Interval     time.Duration
	ServiceName  string
}

// Loop is the change-detection poller.
// It is the only writer of the shared status.State.
type Loop struct {
	cfg      Config
	nav      Navigator
	notifier Notifier
	state    *status.State
	log      *slog.Logger

	sleep clock.SleepFunc
	now   func() time.Time
}

// New creates a loop with immutable config.
func New(cfg Config, nav Navigator, notifier Notifier, state *status.State, logger *slog.Logger) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("monitor: interval must be > 0")
	}
	if nav == nil || notifier == nil || state == nil {
		return nil, errors.New("monitor: navigator, notifier and state are required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "the bot"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		cfg:      cfg,
		nav:      nav,
		notifier: notifier,
		state:    state,
		log:      logger,
		sleep:    clock.Sleep,
		now:      time.Now,
	}, nil
}

// Run repeats Cycle with a fixed pause between cycles. A slow cycle
// delays the next one; nothing is skipped or caught up.
// Returns when ctx ends or when src gives up recovering.
func (l *Loop) Run(ctx context.Context, src SessionSource) error {
	l.log.Info("monitor_started", "interval", l.cfg.Interval.String(), "target", l.cfg.Conversation.String())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		obs, err := l.Cycle(ctx, src.Session(), src.Directory())
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.state.CycleFailed(l.now(), err)
			l.log.Error("cycle_failed", "cycle", obs.CycleID, "error", err.Error())

			if rerr := src.Recover(ctx, err); rerr != nil {
				return rerr
			}
		case !obs.Navigated:
			l.state.CycleFailed(l.now(), navigator.ErrNavigation)
		default:
			l.state.CycleOK(l.now())
		}

		l.log.Debug("monitor_wait", "interval", l.cfg.Interval.String())
		if err := l.sleep(ctx, l.cfg.Interval); err != nil {
			return err
		}
	}
}

// internal/supervisor/supervisor.go
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/clock"
	"github.com/tamzrod/taskwatch/internal/monitor"
	"github.com/tamzrod/taskwatch/internal/notify"
)

var (
	// ErrUnauthorized means the session dialed fine but is not logged in.
	ErrUnauthorized = errors.New("supervisor: session not authorized")

	// ErrRetriesExhausted wraps the last failure once the retry bound is hit.
	ErrRetriesExhausted = errors.New("supervisor: reconnect retries exhausted")
)

const startedTemplate = "✅ Task monitor started. Watching %s as %s."

// Dialer builds a fresh session from persisted credentials.
// ONE attempt per call; the supervisor owns retries.
type Dialer func(ctx context.Context) (chat.Transport, error)

// Dispatcher is the notification side the supervisor drives.
type Dispatcher interface {
	monitor.Notifier
	Resolve(ctx context.Context, dir notify.Directory, dest notify.Destination) (notify.Target, error)
	Primary() notify.Destination
	Invalidate()
}

// Runner is the monitor loop.
type Runner interface {
	Run(ctx context.Context, src monitor.SessionSource) error
}

type Config struct {
	RetryBound      int
	RetryDelay      time.Duration
	RestartCooldown time.Duration

	// Target is only used in log records and the startup message.
	Target string
}

// Supervisor owns the single live chat session.
// All methods are called from the monitoring goroutine.
type Supervisor struct {
	cfg        Config
	dial       Dialer
	dispatcher Dispatcher
	bot        notify.Directory
	log        *slog.Logger

	session chat.Transport
	self    chat.Identity

	sleep clock.SleepFunc
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithBotDirectory routes notifications through dir instead of the user
// session.
func WithBotDirectory(dir notify.Directory) Option {
	return func(s *Supervisor) { s.bot = dir }
}

func New(cfg Config, dial Dialer, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) (*Supervisor, error) {
	if cfg.RetryBound < 1 {
		return nil, errors.New("supervisor: retry bound must be >= 1")
	}
	if cfg.RetryDelay < 0 || cfg.RestartCooldown < 0 {
		return nil, errors.New("supervisor: delays must be >= 0")
	}
	if dial == nil || dispatcher == nil {
		return nil, errors.New("supervisor: dialer and dispatcher are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		cfg:        cfg,
		dial:       dial,
		dispatcher: dispatcher,
		log:        logger,
		sleep:      clock.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session returns the live session, or nil before the first Connect.
func (s *Supervisor) Session() chat.Transport { return s.session }

// Directory returns where notifications are resolved and sent.
func (s *Supervisor) Directory() notify.Directory {
	if s.bot != nil {
		return s.bot
	}
	if s.session == nil {
		return nil
	}
	return s.session
}

// Self is the identity of the last successful connect.
func (s *Supervisor) Self() chat.Identity { return s.self }

// Connect replaces the current session with a freshly dialed, authorized one.
// Flood waits are honored and do not count as attempts.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.disconnect()

	var last error
	attempt := 1
	for {
		t, err := s.dialOnce(ctx)
		if err == nil {
			s.session = t
			s.dispatcher.Invalidate()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if wait, ok := chat.AsFloodWait(err); ok {
			s.log.Warn("connect_flood_wait", "attempt", attempt, "wait", wait.String())
			if err := s.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		last = err
		s.log.Warn("connect_failed",
			"attempt", attempt,
			"bound", s.cfg.RetryBound,
			"error", err.Error(),
		)
		if attempt >= s.cfg.RetryBound {
			break
		}
		attempt++
		if err := s.sleep(ctx, s.cfg.RetryDelay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, last)
}

func (s *Supervisor) dialOnce(ctx context.Context) (chat.Transport, error) {
	t, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	ok, err := t.IsAuthorized(ctx)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("auth status: %w", err)
	}
	if !ok {
		_ = t.Close()
		return nil, ErrUnauthorized
	}

	me, err := t.Self(ctx)
	if err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("self: %w", err)
	}
	s.self = me
	s.log.Info("connected", "as", me.String(), "id", me.ID)
	return t, nil
}

func (s *Supervisor) disconnect() {
	if s.session == nil {
		return
	}
	if err := s.session.Close(); err != nil {
		s.log.Debug("session_close_failed", "error", err.Error())
	}
	s.session = nil
}

// Recover repairs the session after a failed cycle.
// A rate limit is waited out on the same session.
func (s *Supervisor) Recover(ctx context.Context, cause error) error {
	if wait, ok := chat.AsFloodWait(cause); ok {
		s.log.Warn("flood_wait", "wait", wait.String())
		return s.sleep(ctx, wait)
	}
	s.log.Warn("reconnecting", "cause", cause.Error())
	return s.Connect(ctx)
}

// Close drops the live session.
func (s *Supervisor) Close() {
	s.disconnect()
}

// Start runs one full startup sequence and then the monitor loop.
// It returns when the loop gives up or ctx ends.
func (s *Supervisor) Start(ctx context.Context, loop Runner) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}

	primary := s.dispatcher.Primary()
	if _, err := s.dispatcher.Resolve(ctx, s.Directory(), primary); err != nil {
		// Not fatal: the loop resolves again before every send.
		s.log.Error("destination_unresolved", "destination", primary.String(), "error", err.Error())
	}

	text := fmt.Sprintf(startedTemplate, s.cfg.Target, s.self.String())
	if err := s.dispatcher.Send(ctx, s.Directory(), notify.Info, text); err != nil {
		s.log.Warn("startup_notice_failed", "error", err.Error())
	}

	return loop.Run(ctx, s)
}

// RunForever restarts the startup sequence after every failure, with a
// cooldown in between. Returns only when ctx is cancelled.
func (s *Supervisor) RunForever(ctx context.Context, loop Runner) error {
	defer s.disconnect()

	for restarts := 0; ; restarts++ {
		err := s.Start(ctx, loop)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.Error("monitor_critical",
			"restarts", restarts,
			"cooldown", s.cfg.RestartCooldown.String(),
			"error", errString(err),
		)
		s.reportCritical(ctx, err)

		if err := s.sleep(ctx, s.cfg.RestartCooldown); err != nil {
			return err
		}
	}
}

func (s *Supervisor) reportCritical(ctx context.Context, cause error) {
	dir := s.Directory()
	if dir == nil {
		return
	}
	text := fmt.Sprintf("❌ Task monitor stopped: %s. Restarting in %s.", errString(cause), s.cfg.RestartCooldown)
	if err := s.dispatcher.Send(ctx, dir, notify.Error, text); err != nil {
		s.log.Debug("critical_report_failed", "error", err.Error())
	}
}

func errString(err error) string {
	if err == nil {
		return "stopped"
	}
	return err.Error()
}

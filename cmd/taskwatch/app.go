package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/chat/mtproto"
	"github.com/tamzrod/taskwatch/internal/config"
	"github.com/tamzrod/taskwatch/internal/monitor"
	"github.com/tamzrod/taskwatch/internal/navigator"
	"github.com/tamzrod/taskwatch/internal/notify"
	"github.com/tamzrod/taskwatch/internal/notify/botapi"
	"github.com/tamzrod/taskwatch/internal/status"
	"github.com/tamzrod/taskwatch/internal/supervisor"
)

// app is the wired process: one state, one dispatcher, one supervisor.
type app struct {
	cfg        *config.Config
	log        *slog.Logger
	state      *status.State
	dispatcher *notify.Dispatcher
	sup        *supervisor.Supervisor
	target     notify.Destination
}

// newApp assumes cfg passed Validate.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	primary, err := notify.ParseDestination(cfg.Notify.Destination)
	if err != nil {
		return nil, err
	}
	ncfg := notify.Config{Primary: primary}
	if cfg.Notify.Owner != "" {
		owner, err := notify.ParseDestination(cfg.Notify.Owner)
		if err != nil {
			return nil, err
		}
		ncfg.Owner = &owner
	}
	dispatcher, err := notify.New(ncfg, logger.With("component", "notify"))
	if err != nil {
		return nil, err
	}

	target, err := notify.ParseDestination(cfg.Monitor.Target)
	if err != nil {
		return nil, err
	}

	// client factory: ONE attempt per call
	tcfg := mtproto.Config{
		AppID:   cfg.Telegram.APIID,
		AppHash: cfg.Telegram.APIHash,
		Session: cfg.Telegram.Session,
	}
	dial := func(ctx context.Context) (chat.Transport, error) {
		s, err := mtproto.Dial(ctx, tcfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	var opts []supervisor.Option
	if cfg.Notify.BotToken != "" {
		bot, err := botapi.New(cfg.Notify.BotToken)
		if err != nil {
			return nil, err
		}
		opts = append(opts, supervisor.WithBotDirectory(bot))
		logger.Info("notify_via_bot_api")
	}

	sup, err := supervisor.New(supervisor.Config{
		RetryBound:      cfg.Resilience.RetryBound,
		RetryDelay:      cfg.Resilience.RetryDelay,
		RestartCooldown: cfg.Resilience.RestartCooldown,
		Target:          cfg.Monitor.Target,
	}, dial, dispatcher, logger.With("component", "supervisor"), opts...)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        logger,
		state:      status.NewState(),
		dispatcher: dispatcher,
		sup:        sup,
		target:     target,
	}, nil
}

// errSessionReplaced ends one session's loop so Run can resolve the
// conversation again on the new session.
var errSessionReplaced = errors.New("session replaced")

// Run resolves the monitored conversation on the live session and runs
// the monitor loop. It satisfies supervisor.Runner. A reconnect hands out
// a new session, and peers resolved on the old one are not reused.
func (a *app) Run(ctx context.Context, src monitor.SessionSource) error {
	for {
		err := a.runSession(ctx, src)
		if !errors.Is(err, errSessionReplaced) {
			return err
		}
		a.log.Info("target_reresolve", "target", a.target.String())
	}
}

func (a *app) runSession(ctx context.Context, src monitor.SessionSource) error {
	session := src.Session()
	conv, err := resolvePeer(ctx, session, a.target)
	if err != nil {
		return fmt.Errorf("resolve target %s: %w", a.target, err)
	}

	m := a.cfg.Monitor
	nav, err := navigator.New(navigator.Config{
		Conversation: conv,
		Markers:      a.cfg.Screens.Markers,
		Labels:       a.cfg.Screens.Labels,
		Threshold:    m.Threshold,
		LookBack:     m.LookBack,
		Pause:        m.Pause,
		StartCommand: m.StartCommand,
	}, a.log.With("component", "navigator"))
	if err != nil {
		return err
	}

	loop, err := monitor.New(monitor.Config{
		Conversation: conv,
		Markers:      a.cfg.Screens.Markers,
		Interval:     m.PollInterval,
		ServiceName:  m.ServiceName,
	}, nav, a.dispatcher, a.state, a.log.With("component", "monitor"))
	if err != nil {
		return err
	}

	return loop.Run(ctx, &sessionWatch{SessionSource: src, session: session})
}

// sessionWatch stops the loop once a recovery replaced the session.
type sessionWatch struct {
	monitor.SessionSource
	session chat.Transport
}

func (w *sessionWatch) Recover(ctx context.Context, cause error) error {
	if err := w.SessionSource.Recover(ctx, cause); err != nil {
		return err
	}
	if w.SessionSource.Session() != w.session {
		return errSessionReplaced
	}
	return nil
}

func resolvePeer(ctx context.Context, t chat.Transport, d notify.Destination) (chat.Peer, error) {
	switch d.Kind {
	case notify.PublicHandle:
		return t.ResolveHandle(ctx, d.Handle)
	case notify.DirectID:
		return t.ResolveID(ctx, d.ID)
	case notify.PrivateInvite:
		return t.LookupInvite(ctx, d.Hash)
	default:
		return chat.Peer{}, fmt.Errorf("unsupported target %q", d.Raw)
	}
}

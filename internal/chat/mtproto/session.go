// Package mtproto implements chat.Transport as a Telegram user session
// over MTProto, using gotd/td.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"

	"github.com/tamzrod/taskwatch/internal/chat"
)

// Config holds the persisted credentials of the user session.
type Config struct {
	AppID   int
	AppHash string
	// Session is a Telethon-format string session.
	Session string
}

// Session is a live MTProto connection. Build with Dial, release with Close.
type Session struct {
	client *telegram.Client
	api    *tg.Client
	sender *message.Sender

	stop context.CancelFunc
	done chan struct{}

	closeOnce sync.Once
	runErr    error
}

// Dial performs ONE connect attempt and returns once the client is up.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.AppID == 0 || cfg.AppHash == "" {
		return nil, errors.New("mtproto: app id and hash required")
	}

	storage, err := loadSession(ctx, cfg.Session)
	if err != nil {
		return nil, err
	}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, telegram.Options{
		SessionStorage: storage,
	})

	runCtx, stop := context.WithCancel(ctx)
	s := &Session{
		client: client,
		api:    client.API(),
		stop:   stop,
		done:   make(chan struct{}),
	}
	s.sender = message.NewSender(s.api)

	ready := make(chan struct{})
	go func() {
		defer close(s.done)
		s.runErr = client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return nil
		})
	}()

	select {
	case <-ready:
		return s, nil
	case <-s.done:
		stop()
		return nil, mapError(fmt.Errorf("mtproto: connect: %w", s.runErr))
	case <-ctx.Done():
		stop()
		<-s.done
		return nil, ctx.Err()
	}
}

func loadSession(ctx context.Context, str string) (*session.StorageMemory, error) {
	storage := new(session.StorageMemory)
	str = strings.TrimSpace(str)
	if str == "" {
		return storage, nil
	}
	data, err := session.TelethonSession(str)
	if err != nil {
		return nil, fmt.Errorf("mtproto: decode session string: %w", err)
	}
	loader := session.Loader{Storage: storage}
	if err := loader.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("mtproto: load session: %w", err)
	}
	return storage, nil
}

// Close stops the client and waits for it to exit. Safe to call twice.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.stop()
		<-s.done
	})
	if s.runErr != nil && !errors.Is(s.runErr, context.Canceled) {
		return s.runErr
	}
	return nil
}

func (s *Session) IsAuthorized(ctx context.Context) (bool, error) {
	st, err := s.client.Auth().Status(ctx)
	if err != nil {
		return false, mapError(err)
	}
	return st.Authorized, nil
}

func (s *Session) Self(ctx context.Context) (chat.Identity, error) {
	u, err := s.client.Self(ctx)
	if err != nil {
		return chat.Identity{}, mapError(err)
	}
	return chat.Identity{
		ID:          u.ID,
		DisplayName: displayName(u),
		Handle:      u.Username,
	}, nil
}

var _ chat.Transport = (*Session)(nil)

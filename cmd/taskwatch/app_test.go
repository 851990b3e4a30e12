package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/chat/chattest"
	"github.com/tamzrod/taskwatch/internal/config"
	"github.com/tamzrod/taskwatch/internal/monitor"
	"github.com/tamzrod/taskwatch/internal/notify"
	"github.com/tamzrod/taskwatch/internal/screen"
)

func testConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{APIID: 1, APIHash: "hash", Session: "1AbC"},
		Monitor: config.MonitorConfig{
			Target:       "@vankedisicoin_bot",
			PollInterval: time.Minute,
			LookBack:     3,
			Threshold:    0.6,
			ServiceName:  "Vankedisi",
		},
		Notify:     config.NotifyConfig{Destination: "@alerts_room", Owner: "123456"},
		Resilience: config.ResilienceConfig{RetryBound: 2, RetryDelay: time.Second, RestartCooldown: time.Minute},
		Screens:    config.ScreensConfig{Markers: screen.DefaultMarkers(), Labels: screen.DefaultLabels()},
	}
}

func TestNewApp_Wires(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, config.Validate(cfg))

	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, notify.PublicHandle, a.target.Kind)
	assert.Equal(t, "vankedisicoin_bot", a.target.Handle)
	assert.Equal(t, "@alerts_room", a.dispatcher.Primary().String())
	assert.Nil(t, a.sup.Session())
}

func TestResolvePeer(t *testing.T) {
	botPeer := chat.Peer{Kind: chat.PeerUser, ID: 777, AccessHash: 5}
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"vankedisicoin_bot": botPeer},
		IDs:     map[int64]chat.Peer{777: botPeer},
	}
	ctx := context.Background()

	byHandle, err := notify.ParseDestination("@vankedisicoin_bot")
	require.NoError(t, err)
	p, err := resolvePeer(ctx, tr, byHandle)
	require.NoError(t, err)
	assert.Equal(t, botPeer, p)

	byID, err := notify.ParseDestination("777")
	require.NoError(t, err)
	p, err = resolvePeer(ctx, tr, byID)
	require.NoError(t, err)
	assert.Equal(t, botPeer, p)

	_, err = resolvePeer(ctx, tr, notify.Destination{Raw: "?"})
	assert.Error(t, err)
}

// swapSource hands out cur and switches to next on the first Recover.
type swapSource struct {
	cur, next *chattest.Transport
	recovers  int
}

func (s *swapSource) Session() chat.Transport     { return s.cur }
func (s *swapSource) Directory() notify.Directory { return s.cur }
func (s *swapSource) Recover(context.Context, error) error {
	s.recovers++
	if s.next != nil {
		s.cur, s.next = s.next, nil
	}
	return nil
}

var _ monitor.SessionSource = (*swapSource)(nil)

func TestRun_ResolvesTargetAgainAfterReconnect(t *testing.T) {
	cfg := testConfig()
	cfg.Monitor.PollInterval = time.Millisecond
	cfg.Monitor.StartCommand = "/start"

	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	oldPeer := chat.Peer{Kind: chat.PeerUser, ID: 777, AccessHash: 1}
	newPeer := chat.Peer{Kind: chat.PeerUser, ID: 777, AccessHash: 2}

	first := &chattest.Transport{
		Handles:    map[string]chat.Peer{"vankedisicoin_bot": oldPeer},
		HistoryErr: errors.New("connection closed"),
	}
	second := &chattest.Transport{Handles: map[string]chat.Peer{"vankedisicoin_bot": newPeer}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var startedWith []chat.Peer
	second.OnSend = map[string]func(*chattest.Transport){
		"/start": func(tr *chattest.Transport) {
			for _, s := range tr.Sent {
				startedWith = append(startedWith, s.To)
			}
			cancel()
		},
	}

	src := &swapSource{cur: first, next: second}
	err = a.Run(ctx, src)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, src.recovers)
	assert.Equal(t, 1, first.Resolves)
	assert.Equal(t, 1, second.Resolves)
	// The new session talks to the peer it resolved itself.
	assert.Equal(t, []chat.Peer{newPeer}, startedWith)
}

func TestSessionWatch_SameSessionKeepsLoop(t *testing.T) {
	tr := &chattest.Transport{}
	w := &sessionWatch{SessionSource: &swapSource{cur: tr}, session: tr}
	assert.NoError(t, w.Recover(context.Background(), errors.New("flood")))

	w = &sessionWatch{SessionSource: &swapSource{cur: tr, next: &chattest.Transport{}}, session: tr}
	assert.ErrorIs(t, w.Recover(context.Background(), errors.New("closed")), errSessionReplaced)
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/chat/chattest"
)

var (
	groupPeer = chat.Peer{Kind: chat.PeerChannel, ID: 1001, AccessHash: 9, Title: "alerts"}
	ownerPeer = chat.Peer{Kind: chat.PeerUser, ID: 2002, Title: "owner"}
)

func mustParse(t *testing.T, spec string) Destination {
	t.Helper()
	d, err := ParseDestination(spec)
	require.NoError(t, err)
	return d
}

func newTestDispatcher(t *testing.T, primary string, owner string) *Dispatcher {
	t.Helper()
	cfg := Config{Primary: mustParse(t, primary)}
	if owner != "" {
		o := mustParse(t, owner)
		cfg.Owner = &o
	}
	d, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC) }
	return d
}

func TestSend_InfoIsStamped(t *testing.T) {
	tr := &chattest.Transport{Handles: map[string]chat.Peer{"alerts": groupPeer}}
	d := newTestDispatcher(t, "@alerts", "")

	require.NoError(t, d.Send(context.Background(), tr, Info, "3 new tasks"))

	sent := tr.SentTo(groupPeer.ID)
	require.Len(t, sent, 1)
	assert.Equal(t, "3 new tasks\n\n🕒 2026-10-19 08:30:00 UTC", sent[0])
}

func TestSend_ErrorIsVerbatimAndCopiedToOwner(t *testing.T) {
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"alerts": groupPeer},
		IDs:     map[int64]chat.Peer{2002: ownerPeer},
	}
	d := newTestDispatcher(t, "@alerts", "2002")

	require.NoError(t, d.Send(context.Background(), tr, Error, "reconnect failed"))

	assert.Equal(t, []string{"reconnect failed"}, tr.SentTo(groupPeer.ID))
	assert.Equal(t, []string{"reconnect failed"}, tr.SentTo(ownerPeer.ID))
}

func TestSend_InfoNotCopiedToOwner(t *testing.T) {
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"alerts": groupPeer},
		IDs:     map[int64]chat.Peer{2002: ownerPeer},
	}
	d := newTestDispatcher(t, "@alerts", "2002")

	require.NoError(t, d.Send(context.Background(), tr, Info, "hello"))
	assert.Empty(t, tr.SentTo(ownerPeer.ID))
}

func TestSend_OwnerStillReachedWhenPrimaryRejects(t *testing.T) {
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"alerts": groupPeer},
		IDs:     map[int64]chat.Peer{2002: ownerPeer},
		SendErr: map[int64]error{groupPeer.ID: fmt.Errorf("%w: CHAT_WRITE_FORBIDDEN", chat.ErrSendRejected)},
	}
	d := newTestDispatcher(t, "@alerts", "2002")

	err := d.Send(context.Background(), tr, Error, "permission problem")

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"permission problem"}, tr.SentTo(ownerPeer.ID))
}

func TestSend_UnresolvableIsResolutionError(t *testing.T) {
	tr := &chattest.Transport{}
	d := newTestDispatcher(t, "@nowhere", "")

	err := d.Send(context.Background(), tr, Info, "x")

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Empty(t, tr.Sent)

	// Failures are not cached: the next send tries again.
	_ = d.Send(context.Background(), tr, Info, "x")
	assert.Equal(t, 2, tr.Resolves)
}

func TestResolve_CachedUntilInvalidated(t *testing.T) {
	tr := &chattest.Transport{Handles: map[string]chat.Peer{"alerts": groupPeer}}
	d := newTestDispatcher(t, "@alerts", "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Send(ctx, tr, Info, "x"))
	}
	assert.Equal(t, 1, tr.Resolves)

	d.Invalidate()
	require.NoError(t, d.Send(ctx, tr, Info, "x"))
	assert.Equal(t, 2, tr.Resolves)
}

func TestResolve_DeliveryFailureDropsCachedTarget(t *testing.T) {
	tr := &chattest.Transport{Handles: map[string]chat.Peer{"alerts": groupPeer}}
	d := newTestDispatcher(t, "@alerts", "")
	ctx := context.Background()

	require.NoError(t, d.Send(ctx, tr, Info, "x"))
	tr.SendErr = map[int64]error{groupPeer.ID: fmt.Errorf("%w: CHANNEL_PRIVATE", chat.ErrSendRejected)}
	require.Error(t, d.Send(ctx, tr, Info, "x"))
	tr.SendErr = nil
	require.NoError(t, d.Send(ctx, tr, Info, "x"))

	assert.Equal(t, 2, tr.Resolves)
}

func TestResolve_InviteJoinsThenFallsBackWhenMember(t *testing.T) {
	tr := &chattest.Transport{Invites: map[string]chat.Peer{"HASH": groupPeer}}
	d := newTestDispatcher(t, "https://t.me/+HASH", "")
	ctx := context.Background()

	tgt, err := d.Resolve(ctx, tr, d.Primary())
	require.NoError(t, err)
	assert.Equal(t, groupPeer, tgt.Peer)

	// A fresh session is already a member: join fails, lookup succeeds.
	d.Invalidate()
	tgt, err = d.Resolve(ctx, tr, d.Primary())
	require.NoError(t, err)
	assert.Equal(t, groupPeer, tgt.Peer)
}

func TestResolve_DirectID(t *testing.T) {
	tr := &chattest.Transport{IDs: map[int64]chat.Peer{-1001001: groupPeer}}
	d := newTestDispatcher(t, "-1001001", "")

	tgt, err := d.Resolve(context.Background(), tr, d.Primary())
	require.NoError(t, err)
	assert.Equal(t, groupPeer, tgt.Peer)
}

func TestSend_FloodWaitPassesThrough(t *testing.T) {
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"alerts": groupPeer},
		SendErr: map[int64]error{groupPeer.ID: &chat.FloodWaitError{Wait: 7 * time.Second}},
	}
	d := newTestDispatcher(t, "@alerts", "")

	err := d.Send(context.Background(), tr, Info, "x")
	wait, ok := chat.AsFloodWait(err)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, wait)

	var de *DeliveryError
	assert.False(t, errors.As(err, &de))
}

func TestSend_TransportFailureIsNotDeliveryError(t *testing.T) {
	closed := errors.New("connection closed")
	tr := &chattest.Transport{
		Handles: map[string]chat.Peer{"alerts": groupPeer},
		SendErr: map[int64]error{groupPeer.ID: closed},
	}
	d := newTestDispatcher(t, "@alerts", "")

	err := d.Send(context.Background(), tr, Info, "x")
	assert.Same(t, closed, err)

	// The target stays cached; the reconnect invalidates it.
	tr.SendErr = nil
	require.NoError(t, d.Send(context.Background(), tr, Info, "x"))
	assert.Equal(t, 1, tr.Resolves)
}

func TestNew_RequiresPrimary(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

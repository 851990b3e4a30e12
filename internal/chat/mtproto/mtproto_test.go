package mtproto

import (
	"errors"
	"testing"
	"time"

	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/taskwatch/internal/chat"
)

func TestConvertMessage_InlineKeyboard(t *testing.T) {
	m := &tg.Message{
		ID:      77,
		Message: "Welcome to the vankedisi Adventure!",
		ReplyMarkup: &tg.ReplyInlineMarkup{Rows: []tg.KeyboardButtonRow{
			{Buttons: []tg.KeyboardButtonClass{
				&tg.KeyboardButtonCallback{Text: "Go to Task", Data: []byte("task")},
				&tg.KeyboardButtonURL{Text: "Site", URL: "https://example.org"},
			}},
			{Buttons: []tg.KeyboardButtonClass{
				&tg.KeyboardButtonCallback{Text: "Main Menu", Data: []byte("menu")},
			}},
		}},
	}

	got := convertMessage(m)
	assert.Equal(t, 77, got.ID)
	assert.Equal(t, [][]string{{"Go to Task", "Site"}, {"Main Menu"}}, got.Labels())

	b, ok := got.Button(0, 0)
	require.True(t, ok)
	assert.Equal(t, chat.ButtonCallback, b.Kind)
	assert.Equal(t, []byte("task"), b.Data)

	b, ok = got.Button(0, 1)
	require.True(t, ok)
	assert.Equal(t, chat.ButtonOther, b.Kind)
}

func TestConvertMessage_ReplyKeyboardAndPlain(t *testing.T) {
	m := &tg.Message{
		ID:      3,
		Message: "pick one",
		ReplyMarkup: &tg.ReplyKeyboardMarkup{Rows: []tg.KeyboardButtonRow{
			{Buttons: []tg.KeyboardButtonClass{&tg.KeyboardButton{Text: "Tasks"}}},
		}},
	}
	b, ok := convertMessage(m).Button(0, 0)
	require.True(t, ok)
	assert.Equal(t, chat.ButtonText, b.Kind)

	plain := convertMessage(&tg.Message{ID: 4, Message: "hi"})
	assert.Empty(t, plain.Buttons)
}

func TestSplitID(t *testing.T) {
	tests := []struct {
		id   int64
		kind chat.PeerKind
		raw  int64
	}{
		{id: 123456, kind: chat.PeerUser, raw: 123456},
		{id: -4242, kind: chat.PeerChat, raw: 4242},
		{id: -1001234567890, kind: chat.PeerChannel, raw: 1234567890},
	}
	for _, tt := range tests {
		kind, raw := splitID(tt.id)
		assert.Equal(t, tt.kind, kind, "id %d", tt.id)
		assert.Equal(t, tt.raw, raw, "id %d", tt.id)
	}
}

func TestInputPeerRoundTrip(t *testing.T) {
	for _, p := range []chat.Peer{
		{Kind: chat.PeerUser, ID: 1, AccessHash: 11},
		{Kind: chat.PeerChat, ID: 2},
		{Kind: chat.PeerChannel, ID: 3, AccessHash: 33},
	} {
		got, ok := peerOfInput(inputPeer(p))
		require.True(t, ok)
		assert.Equal(t, p, got)
	}
	_, ok := peerOfInput(inputPeer(chat.Peer{Kind: chat.PeerKind(9)}))
	assert.False(t, ok)
}

func TestPeerOfChat(t *testing.T) {
	p, ok := peerOfChat(&tg.Channel{ID: 9, AccessHash: 99, Title: "alerts"})
	require.True(t, ok)
	assert.Equal(t, chat.Peer{Kind: chat.PeerChannel, ID: 9, AccessHash: 99, Title: "alerts"}, p)

	_, ok = peerOfChat(&tg.ChatEmpty{ID: 1})
	assert.False(t, ok)
}

func TestCallbackError(t *testing.T) {
	assert.NoError(t, callbackError(nil))
	assert.NoError(t, callbackError(tgerr.New(400, "BOT_RESPONSE_TIMEOUT")))

	err := callbackError(tgerr.New(400, "DATA_INVALID"))
	assert.ErrorIs(t, err, chat.ErrButtonRejected)

	err = callbackError(errors.New("connection reset"))
	assert.NotErrorIs(t, err, chat.ErrButtonRejected)
}

func TestSendError(t *testing.T) {
	assert.ErrorIs(t, sendError(tgerr.New(403, "CHAT_WRITE_FORBIDDEN")), chat.ErrSendRejected)
	assert.ErrorIs(t, sendError(tgerr.New(400, "PEER_ID_INVALID")), chat.ErrSendRejected)

	_, ok := chat.AsFloodWait(sendError(tgerr.New(420, "FLOOD_WAIT_12")))
	assert.True(t, ok)

	err := sendError(errors.New("engine was closed"))
	assert.NotErrorIs(t, err, chat.ErrSendRejected)
}

func TestMapError_FloodWait(t *testing.T) {
	err := mapError(tgerr.New(420, "FLOOD_WAIT_30"))
	wait, ok := chat.AsFloodWait(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", displayName(&tg.User{FirstName: "Ada", LastName: "Lovelace"}))
	assert.Equal(t, "ada", displayName(&tg.User{Username: "ada"}))
}

func TestDialogPeer(t *testing.T) {
	ent := peer.NewEntities(
		map[int64]*tg.User{5: {ID: 5, FirstName: "Ada"}},
		nil,
		map[int64]*tg.Channel{7: {ID: 7, Title: "alerts"}},
	)
	channel := dialogs.Elem{Peer: &tg.InputPeerChannel{ChannelID: 7, AccessHash: 70}, Entities: ent}
	user := dialogs.Elem{Peer: &tg.InputPeerUser{UserID: 5, AccessHash: 50}, Entities: ent}

	kind, id := splitID(-1000000000007)
	p, ok := dialogPeer(channel, kind, id)
	require.True(t, ok)
	assert.Equal(t, chat.Peer{Kind: chat.PeerChannel, ID: 7, AccessHash: 70, Title: "alerts"}, p)

	p, ok = dialogPeer(user, chat.PeerUser, 5)
	require.True(t, ok)
	assert.Equal(t, "Ada", p.Title)
	assert.Equal(t, int64(50), p.AccessHash)

	// Same raw id, different kind.
	_, ok = dialogPeer(user, chat.PeerChannel, 5)
	assert.False(t, ok)
}

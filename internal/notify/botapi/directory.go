// Package botapi delivers notifications through a Telegram Bot API token
// instead of the monitoring user session.
package botapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tamzrod/taskwatch/internal/chat"
)

// ErrInviteUnsupported is returned for invite links: bots are added to
// chats by an admin, they cannot join by themselves.
var ErrInviteUnsupported = errors.New("botapi: bots cannot join by invite link")

// maxMessageLen is the Bot API text limit with some headroom.
const maxMessageLen = 4000

// sender is the slice of *tgbotapi.BotAPI this package uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Directory implements notify.Directory over the Bot API.
// Peer IDs are Bot API chat ids (-100... for channels).
type Directory struct {
	bot sender
}

// New authenticates token against the Bot API.
func New(token string) (*Directory, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("botapi: token required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("botapi: %w", err)
	}
	return &Directory{bot: bot}, nil
}

func (d *Directory) ResolveHandle(_ context.Context, handle string) (chat.Peer, error) {
	c, err := d.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + strings.TrimPrefix(handle, "@")},
	})
	if err != nil {
		return chat.Peer{}, mapError(err)
	}
	return peerOf(c), nil
}

func (d *Directory) ResolveID(_ context.Context, id int64) (chat.Peer, error) {
	c, err := d.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: id},
	})
	if err != nil {
		return chat.Peer{}, mapError(err)
	}
	return peerOf(c), nil
}

func (d *Directory) JoinInvite(context.Context, string) (chat.Peer, error) {
	return chat.Peer{}, ErrInviteUnsupported
}

func (d *Directory) LookupInvite(context.Context, string) (chat.Peer, error) {
	return chat.Peer{}, ErrInviteUnsupported
}

// SendMessage sends text as plain text, split into chunks when it is
// longer than one Bot API message.
func (d *Directory) SendMessage(_ context.Context, to chat.Peer, text string) error {
	for _, chunk := range split(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(to.ID, chunk)
		if _, err := d.bot.Send(msg); err != nil {
			return sendError(err)
		}
	}
	return nil
}

func peerOf(c tgbotapi.Chat) chat.Peer {
	kind := chat.PeerChat
	switch c.Type {
	case "private":
		kind = chat.PeerUser
	case "channel", "supergroup":
		kind = chat.PeerChannel
	}
	title := c.Title
	if title == "" {
		title = c.UserName
	}
	return chat.Peer{Kind: kind, ID: c.ID, Title: title}
}

// mapError turns a Bot API retry_after into the shared flood-wait signal.
func mapError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return &chat.FloodWaitError{
			Wait: time.Duration(apiErr.RetryAfter) * time.Second,
			Err:  err,
		}
	}
	return err
}

// sendError tags 400 and 403 replies (chat not found, bot kicked) as
// rejections of this message.
func sendError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 400 || apiErr.Code == 403) {
		return fmt.Errorf("%w: %w", chat.ErrSendRejected, err)
	}
	return mapError(err)
}

func split(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}
	var out []string
	runes := []rune(text)
	for len(runes) > 0 {
		n := max
		if n > len(runes) {
			n = len(runes)
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

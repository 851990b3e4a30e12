package mtproto

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/tamzrod/taskwatch/internal/chat"
)

// RecentMessages reads the newest limit messages of conv.
func (s *Session) RecentMessages(ctx context.Context, conv chat.Peer, limit int) ([]chat.Message, error) {
	res, err := s.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  inputPeer(conv),
		Limit: limit,
	})
	if err != nil {
		return nil, mapError(err)
	}

	var raw []tg.MessageClass
	switch h := res.(type) {
	case *tg.MessagesMessages:
		raw = h.Messages
	case *tg.MessagesMessagesSlice:
		raw = h.Messages
	case *tg.MessagesChannelMessages:
		raw = h.Messages
	case *tg.MessagesMessagesNotModified:
		return nil, nil
	default:
		return nil, fmt.Errorf("mtproto: unexpected history type %T", res)
	}

	out := make([]chat.Message, 0, len(raw))
	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			// service messages carry no screen
			continue
		}
		out = append(out, convertMessage(msg))
	}
	return out, nil
}

// InvokeButton presses one button of msg.
// Callback buttons go through the bot callback API; keyboard buttons are
// sent as plain text the way a client would.
func (s *Session) InvokeButton(ctx context.Context, conv chat.Peer, msg chat.Message, row, col int) error {
	b, ok := msg.Button(row, col)
	if !ok {
		return fmt.Errorf("%w: (%d,%d)", chat.ErrNoSuchButton, row, col)
	}

	switch b.Kind {
	case chat.ButtonCallback:
		req := &tg.MessagesGetBotCallbackAnswerRequest{
			Peer:  inputPeer(conv),
			MsgID: msg.ID,
		}
		req.SetData(b.Data)
		_, err := s.api.MessagesGetBotCallbackAnswer(ctx, req)
		return callbackError(err)
	case chat.ButtonText:
		return s.SendMessage(ctx, conv, b.Label)
	default:
		return fmt.Errorf("%w: unsupported button %q", chat.ErrButtonRejected, b.Label)
	}
}

// callbackError maps a callback answer failure.
// The bot not answering in time is not a failure: the click was delivered.
func callbackError(err error) error {
	if err == nil || tgerr.Is(err, "BOT_RESPONSE_TIMEOUT") {
		return nil
	}
	if rpcErr, ok := tgerr.As(err); ok && rpcErr.Code == 400 {
		return fmt.Errorf("%w: %w", chat.ErrButtonRejected, err)
	}
	return mapError(err)
}

func (s *Session) SendMessage(ctx context.Context, to chat.Peer, text string) error {
	if _, err := s.sender.To(inputPeer(to)).Text(ctx, text); err != nil {
		return sendError(err)
	}
	return nil
}

// sendError tags permission and peer failures as rejections. Anything
// else is left for the caller to treat as a session problem.
func sendError(err error) error {
	if rpcErr, ok := tgerr.As(err); ok && (rpcErr.Code == 400 || rpcErr.Code == 403) {
		return fmt.Errorf("%w: %w", chat.ErrSendRejected, err)
	}
	return mapError(err)
}

func convertMessage(m *tg.Message) chat.Message {
	out := chat.Message{
		ID:   m.ID,
		Text: m.Message,
		Out:  m.Out,
	}

	var rows []tg.KeyboardButtonRow
	switch mk := m.ReplyMarkup.(type) {
	case *tg.ReplyInlineMarkup:
		rows = mk.Rows
	case *tg.ReplyKeyboardMarkup:
		rows = mk.Rows
	}

	for _, r := range rows {
		row := make([]chat.Button, 0, len(r.Buttons))
		for _, kb := range r.Buttons {
			row = append(row, convertButton(kb))
		}
		out.Buttons = append(out.Buttons, row)
	}
	return out
}

func convertButton(kb tg.KeyboardButtonClass) chat.Button {
	switch b := kb.(type) {
	case *tg.KeyboardButtonCallback:
		return chat.Button{Label: b.Text, Kind: chat.ButtonCallback, Data: b.Data}
	case *tg.KeyboardButton:
		return chat.Button{Label: b.Text, Kind: chat.ButtonText}
	default:
		return chat.Button{Label: kb.GetText(), Kind: chat.ButtonOther}
	}
}

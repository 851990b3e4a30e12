package mtproto

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/tamzrod/taskwatch/internal/chat"
)

const dialogsPage = 100

// channelIDOffset is the prefix Bot API style ids put in front of channel ids.
const channelIDOffset = 1_000_000_000_000

// ResolveHandle resolves a public @handle.
func (s *Session) ResolveHandle(ctx context.Context, handle string) (chat.Peer, error) {
	handle = strings.TrimPrefix(handle, "@")
	ip, err := s.sender.Resolve(handle).AsInputPeer(ctx)
	if err != nil {
		return chat.Peer{}, mapError(err)
	}
	p, ok := peerOfInput(ip)
	if !ok {
		return chat.Peer{}, fmt.Errorf("mtproto: unsupported peer %T for @%s", ip, handle)
	}
	p.Title = "@" + handle
	return p, nil
}

// ResolveID looks id up among the account's dialogs. Access hashes are only
// known for peers the account has seen, so this is the reliable source.
// Ids follow the usual sign convention: -100<id> channel, -<id> chat, user otherwise.
func (s *Session) ResolveID(ctx context.Context, id int64) (chat.Peer, error) {
	kind, raw := splitID(id)

	iter := query.GetDialogs(s.api).BatchSize(dialogsPage).Iter()
	for iter.Next(ctx) {
		if p, ok := dialogPeer(iter.Value(), kind, raw); ok {
			return p, nil
		}
	}
	if err := iter.Err(); err != nil {
		return chat.Peer{}, mapError(err)
	}
	return chat.Peer{}, fmt.Errorf("mtproto: peer %d not found in dialogs", id)
}

// dialogPeer reports whether the dialog elem is the peer (kind, id).
func dialogPeer(elem dialogs.Elem, kind chat.PeerKind, id int64) (chat.Peer, bool) {
	p, ok := peerOfInput(elem.Peer)
	if !ok || p.Kind != kind || p.ID != id {
		return chat.Peer{}, false
	}
	switch kind {
	case chat.PeerUser:
		if u, ok := elem.Entities.User(id); ok {
			p.Title = displayName(u)
		}
	case chat.PeerChat:
		if c, ok := elem.Entities.Chat(id); ok {
			p.Title = c.Title
		}
	case chat.PeerChannel:
		if c, ok := elem.Entities.Channel(id); ok {
			p.Title = c.Title
		}
	}
	return p, true
}

// JoinInvite joins a private chat by invite hash.
func (s *Session) JoinInvite(ctx context.Context, hash string) (chat.Peer, error) {
	upd, err := s.api.MessagesImportChatInvite(ctx, hash)
	if err != nil {
		if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
			return chat.Peer{}, chat.ErrAlreadyParticipant
		}
		return chat.Peer{}, mapError(err)
	}

	var chats []tg.ChatClass
	switch u := upd.(type) {
	case *tg.Updates:
		chats = u.Chats
	case *tg.UpdatesCombined:
		chats = u.Chats
	}
	for _, c := range chats {
		if p, ok := peerOfChat(c); ok {
			return p, nil
		}
	}
	return chat.Peer{}, errors.New("mtproto: joined chat missing from updates")
}

// LookupInvite returns the chat behind an invite the account already joined.
func (s *Session) LookupInvite(ctx context.Context, hash string) (chat.Peer, error) {
	inv, err := s.api.MessagesCheckChatInvite(ctx, hash)
	if err != nil {
		return chat.Peer{}, mapError(err)
	}
	already, ok := inv.(*tg.ChatInviteAlready)
	if !ok {
		return chat.Peer{}, fmt.Errorf("mtproto: not a member of invite %s", hash)
	}
	p, ok := peerOfChat(already.Chat)
	if !ok {
		return chat.Peer{}, fmt.Errorf("mtproto: unsupported chat %T", already.Chat)
	}
	return p, nil
}

func splitID(id int64) (chat.PeerKind, int64) {
	switch {
	case id <= -channelIDOffset:
		return chat.PeerChannel, -id - channelIDOffset
	case id < 0:
		return chat.PeerChat, -id
	default:
		return chat.PeerUser, id
	}
}

func inputPeer(p chat.Peer) tg.InputPeerClass {
	switch p.Kind {
	case chat.PeerUser:
		return &tg.InputPeerUser{UserID: p.ID, AccessHash: p.AccessHash}
	case chat.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ID}
	case chat.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ID, AccessHash: p.AccessHash}
	default:
		return &tg.InputPeerEmpty{}
	}
}

func peerOfInput(ip tg.InputPeerClass) (chat.Peer, bool) {
	switch v := ip.(type) {
	case *tg.InputPeerUser:
		return chat.Peer{Kind: chat.PeerUser, ID: v.UserID, AccessHash: v.AccessHash}, true
	case *tg.InputPeerChat:
		return chat.Peer{Kind: chat.PeerChat, ID: v.ChatID}, true
	case *tg.InputPeerChannel:
		return chat.Peer{Kind: chat.PeerChannel, ID: v.ChannelID, AccessHash: v.AccessHash}, true
	default:
		return chat.Peer{}, false
	}
}

func peerOfChat(c tg.ChatClass) (chat.Peer, bool) {
	switch v := c.(type) {
	case *tg.Chat:
		return chat.Peer{Kind: chat.PeerChat, ID: v.ID, Title: v.Title}, true
	case *tg.Channel:
		return chat.Peer{Kind: chat.PeerChannel, ID: v.ID, AccessHash: v.AccessHash, Title: v.Title}, true
	default:
		return chat.Peer{}, false
	}
}

func displayName(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// mapError surfaces rate limits as chat.FloodWaitError.
func mapError(err error) error {
	if d, ok := tgerr.AsFloodWait(err); ok {
		return &chat.FloodWaitError{Wait: d, Err: err}
	}
	return err
}

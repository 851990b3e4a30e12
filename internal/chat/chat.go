// internal/chat/chat.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Transport is everything the monitor needs from a live chat session.
// Implementations are not safe for concurrent use; the supervisor owns
// exactly one at a time and drives it from a single goroutine.
type Transport interface {
	// RecentMessages returns up to limit messages of conv, most recent first.
	RecentMessages(ctx context.Context, conv Peer, limit int) ([]Message, error)
	InvokeButton(ctx context.Context, conv Peer, msg Message, row, col int) error
	SendMessage(ctx context.Context, to Peer, text string) error

	ResolveHandle(ctx context.Context, handle string) (Peer, error)
	ResolveID(ctx context.Context, id int64) (Peer, error)
	// JoinInvite joins a private chat by invite hash.
	// Returns ErrAlreadyParticipant when the account is already a member.
	JoinInvite(ctx context.Context, hash string) (Peer, error)
	// LookupInvite resolves an invite hash of a chat the account already joined.
	LookupInvite(ctx context.Context, hash string) (Peer, error)

	IsAuthorized(ctx context.Context) (bool, error)
	Self(ctx context.Context) (Identity, error)
	Close() error
}

var (
	// ErrButtonRejected means the remote side refused one specific click.
	// The session itself is still usable.
	ErrButtonRejected = errors.New("chat: button rejected")

	ErrAlreadyParticipant = errors.New("chat: already a participant")

	ErrNoSuchButton = errors.New("chat: no such button")

	// ErrSendRejected means the recipient refused a message: no write
	// permission, banned, invalid peer. The session itself is still usable.
	ErrSendRejected = errors.New("chat: message rejected")
)

// FloodWaitError is a rate-limit signal: the remote side asks the caller
// to wait Wait before issuing the same request again.
type FloodWaitError struct {
	Wait time.Duration
	Err  error
}

func (e *FloodWaitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flood wait %s: %v", e.Wait, e.Err)
	}
	return fmt.Sprintf("flood wait %s", e.Wait)
}

func (e *FloodWaitError) Unwrap() error { return e.Err }

// AsFloodWait reports whether err carries a rate-limit signal.
func AsFloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.Wait, true
	}
	return 0, false
}

// Identity is the logged-in account.
type Identity struct {
	ID          int64
	DisplayName string
	Handle      string
}

func (i Identity) String() string {
	if i.Handle == "" {
		return i.DisplayName
	}
	return fmt.Sprintf("%s (@%s)", i.DisplayName, i.Handle)
}

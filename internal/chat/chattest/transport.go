// Package chattest provides an in-memory chat.Transport that behaves like a
// tiny scripted bot. Intended for tests only.
package chattest

import (
	"context"
	"fmt"
	"sync"

	"github.com/tamzrod/taskwatch/internal/chat"
)

// Sent is one delivered message.
type Sent struct {
	To   chat.Peer
	Text string
}

// Transport is a fake session. Zero value is usable; set fields before use.
type Transport struct {
	mu sync.Mutex

	// History is the conversation, most recent first.
	History []chat.Message
	// OnClick runs when a button with the given label is invoked.
	OnClick map[string]func(t *Transport)
	// OnSend runs when the given text is sent to any peer.
	OnSend map[string]func(t *Transport)

	HistoryErr error
	ClickErr   error
	// SendErr fails deliveries to a peer id.
	SendErr map[int64]error

	Handles map[string]chat.Peer
	IDs     map[int64]chat.Peer
	Invites map[string]chat.Peer
	// Member marks invite hashes the account already joined.
	Member map[string]bool

	Authorized bool
	AuthErr    error
	Identity   chat.Identity

	Clicks       []string
	Sent         []Sent
	Resolves     int
	HistoryCalls int
	Closed       bool

	nextID int
}

// Push adds msg as the newest message of the conversation.
func (t *Transport) Push(msg chat.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.push(msg)
}

func (t *Transport) push(msg chat.Message) {
	t.nextID++
	if msg.ID == 0 {
		msg.ID = t.nextID
	}
	t.History = append([]chat.Message{msg}, t.History...)
}

// Replace swaps the newest message, the way bots edit a menu in place.
func (t *Transport) Replace(msg chat.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.History) == 0 {
		t.push(msg)
		return
	}
	msg.ID = t.History[0].ID
	t.History[0] = msg
}

func (t *Transport) RecentMessages(_ context.Context, _ chat.Peer, limit int) ([]chat.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.HistoryCalls++
	if t.HistoryErr != nil {
		return nil, t.HistoryErr
	}
	n := limit
	if n > len(t.History) {
		n = len(t.History)
	}
	out := make([]chat.Message, n)
	copy(out, t.History[:n])
	return out, nil
}

func (t *Transport) InvokeButton(_ context.Context, _ chat.Peer, msg chat.Message, row, col int) error {
	t.mu.Lock()
	if t.ClickErr != nil {
		t.mu.Unlock()
		return t.ClickErr
	}
	b, ok := msg.Button(row, col)
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: (%d,%d)", chat.ErrNoSuchButton, row, col)
	}
	t.Clicks = append(t.Clicks, b.Label)
	fn := t.OnClick[b.Label]
	t.mu.Unlock()

	if fn != nil {
		fn(t)
	}
	return nil
}

func (t *Transport) SendMessage(_ context.Context, to chat.Peer, text string) error {
	t.mu.Lock()
	if err := t.SendErr[to.ID]; err != nil {
		t.mu.Unlock()
		return err
	}
	t.Sent = append(t.Sent, Sent{To: to, Text: text})
	fn := t.OnSend[text]
	t.mu.Unlock()

	if fn != nil {
		fn(t)
	}
	return nil
}

func (t *Transport) ResolveHandle(_ context.Context, handle string) (chat.Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Resolves++
	p, ok := t.Handles[handle]
	if !ok {
		return chat.Peer{}, fmt.Errorf("USERNAME_NOT_OCCUPIED: %s", handle)
	}
	return p, nil
}

func (t *Transport) ResolveID(_ context.Context, id int64) (chat.Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Resolves++
	p, ok := t.IDs[id]
	if !ok {
		return chat.Peer{}, fmt.Errorf("PEER_ID_INVALID: %d", id)
	}
	return p, nil
}

func (t *Transport) JoinInvite(_ context.Context, hash string) (chat.Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Resolves++
	if t.Member[hash] {
		return chat.Peer{}, chat.ErrAlreadyParticipant
	}
	p, ok := t.Invites[hash]
	if !ok {
		return chat.Peer{}, fmt.Errorf("INVITE_HASH_INVALID: %s", hash)
	}
	if t.Member == nil {
		t.Member = map[string]bool{}
	}
	t.Member[hash] = true
	return p, nil
}

func (t *Transport) LookupInvite(_ context.Context, hash string) (chat.Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Resolves++
	p, ok := t.Invites[hash]
	if !ok || !t.Member[hash] {
		return chat.Peer{}, fmt.Errorf("INVITE_HASH_INVALID: %s", hash)
	}
	return p, nil
}

func (t *Transport) IsAuthorized(context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Authorized, t.AuthErr
}

func (t *Transport) Self(context.Context) (chat.Identity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Identity, nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return nil
}

// SentTo returns the texts delivered to peer id, in order.
func (t *Transport) SentTo(id int64) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, s := range t.Sent {
		if s.To.ID == id {
			out = append(out, s.Text)
		}
	}
	return out
}

var _ chat.Transport = (*Transport)(nil)

// internal/chat/types.go
package chat

import "strconv"

// PeerKind tells the transport which identity namespace Peer.ID lives in.
type PeerKind uint8

const (
	PeerUser PeerKind = iota
	PeerChat
	PeerChannel
)

func (k PeerKind) String() string {
	switch k {
	case PeerUser:
		return "user"
	case PeerChat:
		return "chat"
	case PeerChannel:
		return "channel"
	default:
		return "peer(" + strconv.Itoa(int(k)) + ")"
	}
}

// Peer is a resolved conversation identity.
// It is only meaningful for the session that resolved it.
type Peer struct {
	Kind       PeerKind
	ID         int64
	AccessHash int64
	Title      string
}

func (p Peer) String() string {
	if p.Title != "" {
		return p.Kind.String() + ":" + p.Title
	}
	return p.Kind.String() + ":" + strconv.FormatInt(p.ID, 10)
}

// ButtonKind is the action a button performs when invoked.
type ButtonKind uint8

const (
	// ButtonCallback sends Data back to the bot.
	ButtonCallback ButtonKind = iota
	// ButtonText sends the label as a plain message (reply keyboards).
	ButtonText
	// ButtonOther covers URL, game, payment and similar buttons.
	ButtonOther
)

// Button is one clickable action attached to a message.
type Button struct {
	Label string
	Kind  ButtonKind
	Data  []byte
}

// Message is one inspected conversation message.
type Message struct {
	ID      int
	Text    string
	Out     bool
	Buttons [][]Button
}

// Labels returns the button grid as labels only, row-major.
func (m Message) Labels() [][]string {
	if len(m.Buttons) == 0 {
		return nil
	}
	out := make([][]string, len(m.Buttons))
	for r, row := range m.Buttons {
		out[r] = make([]string, len(row))
		for c, b := range row {
			out[r][c] = b.Label
		}
	}
	return out
}

// Button returns the button at (row, col).
func (m Message) Button(row, col int) (Button, bool) {
	if row < 0 || row >= len(m.Buttons) {
		return Button{}, false
	}
	if col < 0 || col >= len(m.Buttons[row]) {
		return Button{}, false
	}
	return m.Buttons[row][col], true
}

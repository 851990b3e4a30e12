// internal/notify/destination.go
package notify

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tags how a destination is resolved.
type Kind uint8

const (
	PrivateInvite Kind = iota + 1
	PublicHandle
	DirectID
)

func (k Kind) String() string {
	switch k {
	case PrivateInvite:
		return "invite"
	case PublicHandle:
		return "handle"
	case DirectID:
		return "id"
	default:
		return "invalid"
	}
}

// Destination is a parsed notification destination.
// Exactly one of Hash, Handle or ID is set, according to Kind.
type Destination struct {
	Kind   Kind
	Hash   string
	Handle string
	ID     int64

	// Raw is the destination as configured; it keys the resolution cache.
	Raw string
}

func (d Destination) String() string {
	switch d.Kind {
	case PrivateInvite:
		return "invite:" + d.Hash
	case PublicHandle:
		return "@" + d.Handle
	case DirectID:
		return strconv.FormatInt(d.ID, 10)
	default:
		return d.Raw
	}
}

var (
	invitePattern = regexp.MustCompile(`^(?:https?://)?(?:t|telegram)\.me/(?:joinchat/|\+)([A-Za-z0-9_-]+)/?$`)
	tgJoinPattern = regexp.MustCompile(`^tg://join\?invite=([A-Za-z0-9_-]+)$`)
	linkPattern   = regexp.MustCompile(`^(?:https?://)?(?:t|telegram)\.me/([A-Za-z0-9_]+)/?$`)
	handlePattern = regexp.MustCompile(`^@?([A-Za-z][A-Za-z0-9_]{3,31})$`)
	idPattern     = regexp.MustCompile(`^-?[0-9]+$`)
)

var ErrEmptyDestination = errors.New("notify: destination is empty")

// ParseDestination classifies a destination spec once, at the boundary.
//
//	https://t.me/+HASH, t.me/joinchat/HASH, tg://join?invite=HASH -> PrivateInvite
//	https://t.me/name, @name, name                                -> PublicHandle
//	-1001234567890, 123456                                        -> DirectID
func ParseDestination(spec string) (Destination, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Destination{}, ErrEmptyDestination
	}

	if m := invitePattern.FindStringSubmatch(raw); m != nil {
		return Destination{Kind: PrivateInvite, Hash: m[1], Raw: raw}, nil
	}
	if m := tgJoinPattern.FindStringSubmatch(raw); m != nil {
		return Destination{Kind: PrivateInvite, Hash: m[1], Raw: raw}, nil
	}
	if m := linkPattern.FindStringSubmatch(raw); m != nil {
		return Destination{Kind: PublicHandle, Handle: m[1], Raw: raw}, nil
	}
	if idPattern.MatchString(raw) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Destination{}, fmt.Errorf("notify: destination id %q: %w", raw, err)
		}
		return Destination{Kind: DirectID, ID: id, Raw: raw}, nil
	}
	if m := handlePattern.FindStringSubmatch(raw); m != nil {
		return Destination{Kind: PublicHandle, Handle: m[1], Raw: raw}, nil
	}

	return Destination{}, fmt.Errorf("notify: unrecognized destination %q", raw)
}

// internal/notify/dispatcher.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tamzrod/taskwatch/internal/chat"
)

// Severity separates operational notices from error reports.
type Severity uint8

const (
	Info Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "info"
}

// Directory is the part of a session used to resolve and deliver.
// chat.Transport satisfies it; so does the Bot API backend.
type Directory interface {
	ResolveHandle(ctx context.Context, handle string) (chat.Peer, error)
	ResolveID(ctx context.Context, id int64) (chat.Peer, error)
	JoinInvite(ctx context.Context, hash string) (chat.Peer, error)
	LookupInvite(ctx context.Context, hash string) (chat.Peer, error)
	SendMessage(ctx context.Context, to chat.Peer, text string) error
}

// Target is a resolved destination. Only valid for the session that
// resolved it.
type Target struct {
	Destination Destination
	Peer        chat.Peer
}

// Config is the immutable dispatcher configuration.
type Config struct {
	Primary Destination
	// Owner additionally receives every error report. Optional.
	Owner *Destination
}

const cacheSize = 16

// Dispatcher resolves destinations and delivers notifications.
type Dispatcher struct {
	cfg   Config
	cache *lru.Cache[string, Target]
	log   *slog.Logger
	now   func() time.Time
}

// New builds a Dispatcher with an empty target cache.
func New(cfg Config, logger *slog.Logger) (*Dispatcher, error) {
	if cfg.Primary.Kind == 0 {
		return nil, errors.New("notify: primary destination required")
	}
	cache, err := lru.New[string, Target](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:   cfg,
		cache: cache,
		log:   logger,
		now:   time.Now,
	}, nil
}

// Primary returns the main notification destination.
func (d *Dispatcher) Primary() Destination { return d.cfg.Primary }

// Invalidate drops every cached target. Call after each reconnect:
// resolved identities are scoped to the session that produced them.
func (d *Dispatcher) Invalidate() {
	d.cache.Purge()
	d.log.Debug("notify_cache_invalidated")
}

// Resolve returns the cached target for dest or resolves it through dir.
func (d *Dispatcher) Resolve(ctx context.Context, dir Directory, dest Destination) (Target, error) {
	if tgt, ok := d.cache.Get(dest.Raw); ok {
		return tgt, nil
	}

	peer, err := d.lookup(ctx, dir, dest)
	if err != nil {
		return Target{}, &ResolutionError{Destination: dest.String(), Err: err}
	}

	tgt := Target{Destination: dest, Peer: peer}
	d.cache.Add(dest.Raw, tgt)
	d.log.Info("notify_target_resolved", "destination", dest.String(), "peer", peer.String())
	return tgt, nil
}

func (d *Dispatcher) lookup(ctx context.Context, dir Directory, dest Destination) (chat.Peer, error) {
	switch dest.Kind {
	case PrivateInvite:
		peer, err := dir.JoinInvite(ctx, dest.Hash)
		if errors.Is(err, chat.ErrAlreadyParticipant) {
			d.log.Debug("notify_invite_already_member", "destination", dest.String())
			return dir.LookupInvite(ctx, dest.Hash)
		}
		return peer, err
	case PublicHandle:
		return dir.ResolveHandle(ctx, dest.Handle)
	case DirectID:
		return dir.ResolveID(ctx, dest.ID)
	default:
		return chat.Peer{}, fmt.Errorf("unsupported destination kind %s", dest.Kind)
	}
}

// Send delivers text to the primary destination.
// Info messages get a delivery timestamp; error messages go out verbatim
// and are copied to the owner destination when one is configured.
func (d *Dispatcher) Send(ctx context.Context, dir Directory, sev Severity, text string) error {
	body := text
	if sev == Info {
		body = d.stamp(text)
	}

	err := d.deliver(ctx, dir, d.cfg.Primary, body)

	if sev == Error && d.cfg.Owner != nil {
		// Best-effort: the owner copy exists so failures stay visible even
		// when the primary destination is unreachable.
		if oerr := d.deliver(ctx, dir, *d.cfg.Owner, body); oerr != nil {
			d.log.Warn("notify_owner_failed", "error", oerr.Error())
		}
	}

	if err != nil {
		d.log.Error("notify_failed", "severity", sev.String(), "error", err.Error())
		return err
	}
	d.log.Info("notify_sent", "severity", sev.String(), "destination", d.cfg.Primary.String())
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, dir Directory, dest Destination, body string) error {
	tgt, err := d.Resolve(ctx, dir, dest)
	if err != nil {
		return err
	}
	err = dir.SendMessage(ctx, tgt.Peer, body)
	if errors.Is(err, chat.ErrSendRejected) {
		// The peer may be stale (kicked, chat migrated); resolve again next time.
		d.cache.Remove(dest.Raw)
		return &DeliveryError{Target: dest.String(), Err: err}
	}
	// Rate limits and session failures belong to the caller.
	return err
}

func (d *Dispatcher) stamp(text string) string {
	return text + "\n\n🕒 " + d.now().UTC().Format("2006-01-02 15:04:05 UTC")
}

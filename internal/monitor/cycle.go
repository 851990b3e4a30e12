// internal/monitor/cycle.go
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/navigator"
	"github.com/tamzrod/taskwatch/internal/notify"
	"github.com/tamzrod/taskwatch/internal/screen"
)

const (
	availableTemplate = "🚨 %d NEW TASKS AVAILABLE on %s! Rush to complete them! 🚨"
	clearedTemplate   = "⚠️ No more tasks available on %s. Keep checking!"
	escalateTemplate  = "❗ Task notification could not be delivered: %v"
)

// Event is the transition a cycle observed.
type Event uint8

const (
	EventNone Event = iota
	EventAvailable
	EventCleared
)

func (e Event) String() string {
	switch e {
	case EventAvailable:
		return "available"
	case EventCleared:
		return "cleared"
	default:
		return "none"
	}
}

// Observation is the outcome of one cycle.
type Observation struct {
	CycleID   string
	Navigated bool
	Count     int
	Previous  int
	Event     Event
	// Notified is true when the event's notification was delivered.
	Notified bool
}

// Decide maps an observed count and the last notified count to an event.
func Decide(count, last int) Event {
	switch {
	case count > 0 && count != last:
		return EventAvailable
	case count == 0 && last > 0:
		return EventCleared
	default:
		return EventNone
	}
}

// Cycle performs exactly one navigate -> extract -> compare -> notify pass.
// State only advances after a successful delivery, so a failed
// notification is retried on the next cycle.
// Navigation failure is not an error: the count is taken as zero.
func (l *Loop) Cycle(ctx context.Context, t chat.Transport, dir notify.Directory) (Observation, error) {
	obs := Observation{
		CycleID:  uuid.NewString(),
		Previous: l.state.LastTaskCount(),
	}
	log := l.log.With("cycle", obs.CycleID)

	res, err := l.nav.Navigate(ctx, t)
	switch {
	case err == nil && res.OK():
		count, err := l.count(ctx, t)
		if err != nil {
			return obs, err
		}
		obs.Navigated = true
		obs.Count = count
	case err == nil, errors.Is(err, navigator.ErrNavigation):
		log.Warn("task_list_unreachable", "state", res.State.String(), "screen", res.Screen.String())
	default:
		return obs, err
	}

	log.Debug("cycle_observed", "count", obs.Count, "last", obs.Previous)

	obs.Event = Decide(obs.Count, obs.Previous)
	var text string
	switch obs.Event {
	case EventAvailable:
		text = fmt.Sprintf(availableTemplate, obs.Count, l.cfg.ServiceName)
	case EventCleared:
		text = fmt.Sprintf(clearedTemplate, l.cfg.ServiceName)
	}
	if text != "" {
		ok, err := l.deliver(ctx, dir, text)
		if err != nil {
			return obs, err
		}
		if ok {
			if obs.Event == EventAvailable {
				l.state.Notified(obs.Count, l.now())
			} else {
				l.state.Cleared()
			}
			obs.Notified = true
		}
	}

	if obs.Event != EventNone {
		log.Info("task_count_changed",
			"event", obs.Event.String(),
			"count", obs.Count,
			"last", obs.Previous,
			"delivered", obs.Notified,
		)
	}
	return obs, nil
}

// count reads the task list screen the navigator left open.
func (l *Loop) count(ctx context.Context, t chat.Transport) (int, error) {
	msgs, err := t.RecentMessages(ctx, l.cfg.Conversation, 1)
	if err != nil {
		return 0, fmt.Errorf("monitor: fetch task list: %w", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	if sig := l.cfg.Markers.Classify(msgs[0].Text); sig != screen.TaskList {
		l.log.Debug("task_list_not_shown", "screen", sig.String())
	}
	return l.cfg.Markers.CountTasks(msgs[0].Text), nil
}

// deliver sends an info notification. Rejections and unresolvable
// destinations are escalated through the error path and reported as not
// delivered. Rate limits and session failures are returned so the
// session can be repaired; nothing is escalated into a flood wait.
func (l *Loop) deliver(ctx context.Context, dir notify.Directory, text string) (bool, error) {
	err := l.notifier.Send(ctx, dir, notify.Info, text)
	if err == nil {
		return true, nil
	}
	if _, ok := chat.AsFloodWait(err); ok {
		return false, fmt.Errorf("monitor: notify: %w", err)
	}

	var (
		de *notify.DeliveryError
		re *notify.ResolutionError
	)
	if !errors.As(err, &de) && !errors.As(err, &re) {
		return false, fmt.Errorf("monitor: notify: %w", err)
	}

	msg := fmt.Sprintf(escalateTemplate, err)
	if eerr := l.notifier.Send(ctx, dir, notify.Error, msg); eerr != nil {
		l.log.Warn("escalation_failed", "error", eerr.Error())
	}
	return false, nil
}

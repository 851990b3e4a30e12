// internal/navigator/navigator.go
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/taskwatch/internal/chat"
	"github.com/tamzrod/taskwatch/internal/clock"
	"github.com/tamzrod/taskwatch/internal/match"
	"github.com/tamzrod/taskwatch/internal/screen"
)

// ErrNavigation means the task list could not be reached this poll.
// It is not fatal: the caller treats the cycle's count as zero.
var ErrNavigation = errors.New("navigator: could not reach task list")

// State is where the navigator believes the bot's conversation is.
type State uint8

const (
	Unknown State = iota
	MainMenu
	Welcome
	TaskPanelEntry
	InTaskPanel
)

func (s State) String() string {
	switch s {
	case MainMenu:
		return "main_menu"
	case Welcome:
		return "welcome"
	case TaskPanelEntry:
		return "task_panel_entry"
	case InTaskPanel:
		return "in_task_panel"
	default:
		return "unknown"
	}
}

// Config is the immutable navigator configuration.
type Config struct {
	Conversation chat.Peer
	Markers      screen.Markers
	Labels       screen.Labels
	Threshold    float64
	// LookBack is how many recent messages are inspected per step.
	LookBack int
	// Pause follows every click so the bot can redraw its menu.
	Pause time.Duration
	// StartCommand is sent when no known screen is visible at all.
	// Empty disables it.
	StartCommand string
}

// Result describes one navigation attempt.
type Result struct {
	State  State
	Clicks int
	Path   []State
	// Screen is what the newest message showed when navigation failed.
	Screen screen.Signature
}

// OK reports whether the task list was reached.
func (r Result) OK() bool { return r.State == InTaskPanel }

// Navigator drives the bot menu to the task list.
// It keeps no state between calls: the bot's latest messages are the
// only source of truth.
type Navigator struct {
	cfg   Config
	log   *slog.Logger
	sleep clock.SleepFunc
}

// New validates cfg and builds a Navigator.
func New(cfg Config, logger *slog.Logger) (*Navigator, error) {
	if cfg.LookBack <= 0 {
		return nil, errors.New("navigator: look back must be > 0")
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return nil, errors.New("navigator: threshold must be in (0,1]")
	}
	if cfg.Pause < 0 {
		return nil, errors.New("navigator: pause must be >= 0")
	}
	if cfg.Labels.MainMenu == "" || cfg.Labels.GoToTask == "" || cfg.Labels.Tasks == "" {
		return nil, errors.New("navigator: all button labels are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{cfg: cfg, log: logger, sleep: clock.Sleep}, nil
}

// Navigate runs the look-and-click sequence once.
//
// The sequence works from any starting screen:
//  1. reset via a main-menu button, if one is offered
//  2. welcome screen -> "go to task"
//  3. task panel -> "tasks" (success)
//
// Transport failures are returned as-is. A missing screen or a refused
// click yields ErrNavigation.
func (n *Navigator) Navigate(ctx context.Context, t chat.Transport) (Result, error) {
	res := Result{State: Unknown}
	recognized := false

	// ---- step 1: reset ----
	msgs, err := n.window(ctx, t)
	if err != nil {
		return res, err
	}
	if msg, sel, ok := n.findButton(msgs, n.cfg.Labels.MainMenu); ok {
		recognized = true
		if err := n.click(ctx, t, msg, sel, &res, MainMenu); err != nil {
			return n.fail(res, err)
		}
	} else {
		n.log.Debug("navigation_reset_skipped")
	}

	// ---- step 2: welcome ----
	msgs, err = n.window(ctx, t)
	if err != nil {
		return res, err
	}
	if msg, ok := n.findScreen(msgs, screen.Welcome); ok {
		recognized = true
		res.visit(Welcome)
		if sel, ok := n.selectButton(msg, n.cfg.Labels.GoToTask); ok {
			if err := n.click(ctx, t, msg, sel, &res, TaskPanelEntry); err != nil {
				return n.fail(res, err)
			}
		}
	}

	// ---- step 3: task panel ----
	msgs, err = n.window(ctx, t)
	if err != nil {
		return res, err
	}
	if msg, ok := n.findScreen(msgs, screen.TaskPanel); ok {
		recognized = true
		if res.State != TaskPanelEntry {
			res.visit(TaskPanelEntry)
		}
		if sel, ok := n.selectButton(msg, n.cfg.Labels.Tasks); ok {
			if err := n.click(ctx, t, msg, sel, &res, InTaskPanel); err != nil {
				return n.fail(res, err)
			}
			n.log.Info("navigation_done", "clicks", res.Clicks, "path", res.Path)
			return res, nil
		}
	}

	if len(msgs) > 0 {
		res.Screen = n.cfg.Markers.Classify(msgs[0].Text)
	}
	if !recognized {
		n.sendStart(ctx, t)
	}

	n.log.Warn("navigation_failed", "clicks", res.Clicks, "path", res.Path, "screen", res.Screen.String())
	res.State = Unknown
	return res, ErrNavigation
}

func (r *Result) visit(s State) {
	r.State = s
	r.Path = append(r.Path, s)
}

func (n *Navigator) window(ctx context.Context, t chat.Transport) ([]chat.Message, error) {
	msgs, err := t.RecentMessages(ctx, n.cfg.Conversation, n.cfg.LookBack)
	if err != nil {
		return nil, fmt.Errorf("navigator: fetch recent messages: %w", err)
	}
	return msgs, nil
}

// findButton returns the most recent message offering a button that
// matches label above the threshold.
func (n *Navigator) findButton(msgs []chat.Message, label string) (chat.Message, match.MatchResult, bool) {
	for _, m := range msgs {
		if sel, ok := n.selectButton(m, label); ok {
			return m, sel, true
		}
	}
	return chat.Message{}, match.MatchResult{}, false
}

// findScreen returns the most recent message showing the marker of s.
func (n *Navigator) findScreen(msgs []chat.Message, s screen.Signature) (chat.Message, bool) {
	for _, m := range msgs {
		if n.cfg.Markers.Shows(m.Text, s) {
			return m, true
		}
	}
	return chat.Message{}, false
}

func (n *Navigator) selectButton(msg chat.Message, label string) (match.MatchResult, bool) {
	grid := msg.Labels()
	if len(grid) == 0 {
		return match.MatchResult{}, false
	}
	sel, ok := match.Select(grid, label, n.cfg.Threshold)
	if !ok {
		n.log.Debug("button_below_threshold",
			"target", label,
			"best", sel.Label,
			"score", fmt.Sprintf("%.2f", sel.Score),
		)
	}
	return sel, ok
}

func (n *Navigator) click(ctx context.Context, t chat.Transport, msg chat.Message, sel match.MatchResult, res *Result, next State) error {
	n.log.Info("button_click",
		"label", sel.Label,
		"score", fmt.Sprintf("%.2f", sel.Score),
		"at", sel.Coord.String(),
	)
	if err := t.InvokeButton(ctx, n.cfg.Conversation, msg, sel.Coord.Row, sel.Coord.Col); err != nil {
		return fmt.Errorf("click %q: %w", sel.Label, err)
	}
	res.Clicks++
	res.visit(next)
	return n.sleep(ctx, n.cfg.Pause)
}

// fail maps a refused click to a navigation failure and passes
// everything else through.
func (n *Navigator) fail(res Result, err error) (Result, error) {
	res.State = Unknown
	if errors.Is(err, chat.ErrButtonRejected) || errors.Is(err, chat.ErrNoSuchButton) {
		n.log.Warn("navigation_click_rejected", "error", err.Error())
		return res, fmt.Errorf("%w: %w", ErrNavigation, err)
	}
	return res, err
}

func (n *Navigator) sendStart(ctx context.Context, t chat.Transport) {
	if n.cfg.StartCommand == "" {
		return
	}
	n.log.Info("navigation_send_start", "command", n.cfg.StartCommand)
	if err := t.SendMessage(ctx, n.cfg.Conversation, n.cfg.StartCommand); err != nil {
		n.log.Warn("navigation_send_start_failed", "error", err.Error())
	}
}

// Package confirm implements a single-outcome confirm/cancel gate whose
// rendering is delegated to a UI layer.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGateNotFound    = errors.New("confirmation gate not found")
	ErrAlreadyShown    = errors.New("confirmation gate already shown")
	ErrNoRenderer      = errors.New("confirmation gate has no renderer")
	ErrAlreadyResolved = errors.New("confirmation gate already resolved")
)

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeDismissed Outcome = "dismissed"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Renderer displays a gate. The UI later calls Confirm or Dismiss on it.
type Renderer interface {
	Render(ctx context.Context, g *Gate) error
}

// Gate wraps one yes/no decision. Exactly one of the confirm or dismiss
// callbacks runs, once. A timeout runs the timeout callback when one is set
// and the dismiss callback otherwise.
type Gate struct {
	id       string
	renderer Renderer

	title        string
	content      string
	template     string
	labelConfirm string
	timeout      time.Duration

	onConfirm func()
	onDismiss func()
	onTimeout func()

	mu       sync.Mutex
	shown    bool
	outcome  Outcome
	response interface{}
	timer    *time.Timer
	done     chan struct{}
}

// Prepare starts building a gate rendered by r.
func Prepare(r Renderer) *Gate {
	return &Gate{
		id:       uuid.NewString(),
		renderer: r,
		outcome:  OutcomePending,
		done:     make(chan struct{}),
	}
}

func (g *Gate) SetTitle(title string) *Gate        { g.title = title; return g }
func (g *Gate) SetContent(content string) *Gate    { g.content = content; return g }
func (g *Gate) SetTemplate(tpl string) *Gate       { g.template = tpl; return g }
func (g *Gate) SetTimeout(d time.Duration) *Gate   { g.timeout = d; return g }
func (g *Gate) SetLabelConfirm(label string) *Gate { g.labelConfirm = label; return g }
func (g *Gate) OnConfirm(fn func()) *Gate          { g.onConfirm = fn; return g }
func (g *Gate) OnDismiss(fn func()) *Gate          { g.onDismiss = fn; return g }
func (g *Gate) OnTimeout(fn func()) *Gate          { g.onTimeout = fn; return g }

func (g *Gate) ID() string             { return g.id }
func (g *Gate) Title() string          { return g.title }
func (g *Gate) Content() string        { return g.content }
func (g *Gate) Template() string       { return g.template }
func (g *Gate) LabelConfirm() string   { return g.labelConfirm }
func (g *Gate) Timeout() time.Duration { return g.timeout }
func (g *Gate) Done() <-chan struct{}  { return g.done }

func (g *Gate) Outcome() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// Show renders the gate and arms its timeout, if any.
func (g *Gate) Show(ctx context.Context) error {
	if g.renderer == nil {
		return ErrNoRenderer
	}

	g.mu.Lock()
	if g.shown {
		g.mu.Unlock()
		return ErrAlreadyShown
	}
	g.shown = true
	g.mu.Unlock()

	if err := g.renderer.Render(ctx, g); err != nil {
		return fmt.Errorf("failed to render gate: %w", err)
	}

	g.mu.Lock()
	if g.timeout > 0 && g.outcome == OutcomePending {
		g.timer = time.AfterFunc(g.timeout, func() { g.resolve(OutcomeTimedOut, nil) })
	}
	g.mu.Unlock()
	return nil
}

// Confirm resolves the gate as confirmed. It reports false if the gate was
// already resolved.
func (g *Gate) Confirm() bool { return g.resolve(OutcomeConfirmed, nil) }

// ConfirmWith resolves the gate as confirmed with the user's answer to it,
// such as a filled-in form. The confirm callback reads it through Response.
func (g *Gate) ConfirmWith(response interface{}) bool {
	return g.resolve(OutcomeConfirmed, response)
}

// Dismiss resolves the gate as dismissed.
func (g *Gate) Dismiss() bool { return g.resolve(OutcomeDismissed, nil) }

// Response returns the answer passed to ConfirmWith. It is only set while
// the confirm callback runs.
func (g *Gate) Response() interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.response
}

func (g *Gate) expire() bool { return g.resolve(OutcomeTimedOut, nil) }

func (g *Gate) resolve(outcome Outcome, response interface{}) bool {
	g.mu.Lock()
	if g.outcome != OutcomePending {
		g.mu.Unlock()
		return false
	}
	g.outcome = outcome
	g.response = response
	if g.timer != nil {
		g.timer.Stop()
	}
	g.mu.Unlock()

	defer close(g.done)
	defer func() {
		g.mu.Lock()
		g.response = nil
		g.mu.Unlock()
	}()

	switch outcome {
	case OutcomeConfirmed:
		if g.onConfirm != nil {
			g.onConfirm()
		}
	case OutcomeTimedOut:
		if g.onTimeout != nil {
			g.onTimeout()
		} else if g.onDismiss != nil {
			g.onDismiss()
		}
	default:
		if g.onDismiss != nil {
			g.onDismiss()
		}
	}
	return true
}

package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

// Registry remembers shown gates by id so an out-of-band caller, such as an
// HTTP handler, can resolve them. Resolved gates are forgotten. Gates without
// their own timeout time out after expiry, so a prompt whose UI session went
// away does not stay registered forever. Zero expiry disables this.
type Registry struct {
	next   Renderer
	expiry time.Duration
	mu     sync.Mutex
	gates  map[string]*Gate
}

func NewRegistry(next Renderer, expiry time.Duration) *Registry {
	return &Registry{
		next:   next,
		expiry: expiry,
		gates:  make(map[string]*Gate),
	}
}

func (r *Registry) Render(ctx context.Context, g *Gate) error {
	r.mu.Lock()
	r.gates[g.ID()] = g
	r.mu.Unlock()

	if err := r.next.Render(ctx, g); err != nil {
		r.forget(g.ID())
		return err
	}

	go r.watch(g)

	logger.Debug("Confirmation gate registered", map[string]interface{}{
		"gate_id": g.ID(),
		"title":   g.Title(),
	})
	return nil
}

func (r *Registry) watch(g *Gate) {
	defer r.forget(g.ID())

	if r.expiry <= 0 || g.Timeout() > 0 {
		<-g.Done()
		return
	}

	timer := time.NewTimer(r.expiry)
	defer timer.Stop()

	select {
	case <-g.Done():
	case <-timer.C:
		if g.expire() {
			logger.Info("Confirmation gate expired", map[string]interface{}{
				"gate_id": g.ID(),
				"expiry":  r.expiry.String(),
			})
		}
	}
}

func (r *Registry) Get(id string) (*Gate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[id]
	return g, ok
}

// Pending returns the number of gates awaiting a decision.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}

// Confirm resolves the gate as confirmed. response is handed to the gate's
// confirm callback and may be nil.
func (r *Registry) Confirm(id string, response interface{}) error {
	return r.resolve(id, func(g *Gate) bool { return g.ConfirmWith(response) })
}

func (r *Registry) Dismiss(id string) error {
	return r.resolve(id, (*Gate).Dismiss)
}

func (r *Registry) resolve(id string, fn func(*Gate) bool) error {
	g, ok := r.Get(id)
	if !ok {
		return ErrGateNotFound
	}
	if !fn(g) {
		return ErrAlreadyResolved
	}
	r.forget(id)
	return nil
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.gates, id)
	r.mu.Unlock()
}

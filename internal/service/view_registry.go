package service

import (
	"edu_player_backend/internal/model"
	"edu_player_backend/internal/util"
	"edu_player_backend/pkg/monitoring"
	"sync"
	"time"
)

// View is a per-user state object with a lifecycle owned by the registry.
type View interface {
	Close()
}

type viewEntry[V View] struct {
	owner    uint
	view     V
	lastUsed time.Time
}

// ViewRegistry keeps open views keyed by ID. A view is only visible to the
// user that opened it.
type ViewRegistry[V View] struct {
	mu    sync.Mutex
	kind  string
	views map[string]*viewEntry[V]
	now   func() time.Time
}

func NewViewRegistry[V View](kind string) *ViewRegistry[V] {
	return &ViewRegistry[V]{
		kind:  kind,
		views: make(map[string]*viewEntry[V]),
		now:   time.Now,
	}
}

func (r *ViewRegistry[V]) Add(owner uint, view V) string {
	id := model.GenerateUUID()

	r.mu.Lock()
	r.views[id] = &viewEntry[V]{owner: owner, view: view, lastUsed: r.now()}
	r.mu.Unlock()

	monitoring.ActiveViews.WithLabelValues(r.kind).Inc()
	return id
}

func (r *ViewRegistry[V]) Get(owner uint, id string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[id]
	if !ok || e.owner != owner {
		var zero V
		return zero, util.ErrViewNotFound
	}
	e.lastUsed = r.now()
	return e.view, nil
}

// Remove closes and forgets a view.
func (r *ViewRegistry[V]) Remove(owner uint, id string) error {
	r.mu.Lock()
	e, ok := r.views[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return util.ErrViewNotFound
	}
	delete(r.views, id)
	r.mu.Unlock()

	e.view.Close()
	monitoring.ActiveViews.WithLabelValues(r.kind).Dec()
	return nil
}

// Sweep closes views idle for longer than ttl and returns how many it closed.
func (r *ViewRegistry[V]) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var expired []V
	for id, e := range r.views {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, v := range expired {
		v.Close()
	}
	monitoring.ActiveViews.WithLabelValues(r.kind).Sub(float64(len(expired)))
	return len(expired)
}

func (r *ViewRegistry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// CloseAll tears down every view; used on shutdown.
func (r *ViewRegistry[V]) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*viewEntry[V])
	r.mu.Unlock()

	for _, e := range views {
		e.view.Close()
	}
	monitoring.ActiveViews.WithLabelValues(r.kind).Sub(float64(len(views)))
}

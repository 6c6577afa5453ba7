package navigation

import "sync"

const defaultHistoryLimit = 50

// Location is a navigation target. From carries the location a guarded redirect came
// from so the login view can send the user back there.
type Location struct {
	Path string
	From string
}

// Navigator is the current-location holder shared by the session manager, the HTTP
// client and the route guard.
type Navigator interface {
	Current() Location
	Navigate(to Location)
}

// Listener is called after every navigation with the previous and new location.
type Listener func(from, to Location)

var _ Navigator = (*Router)(nil)

// Router is an in-memory Navigator with a bounded history.
type Router struct {
	mu        sync.RWMutex
	current   Location
	history   []Location
	limit     int
	listeners []Listener
}

// NewRouter creates a Router positioned at start.
func NewRouter(start string) *Router {
	return &Router{
		current: Location{Path: start},
		limit:   defaultHistoryLimit,
	}
}

func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Navigate moves to the location and notifies listeners outside the lock.
func (r *Router) Navigate(to Location) {
	r.mu.Lock()
	from := r.current
	r.history = append(r.history, from)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	r.current = to
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
}

// Back returns to the previous location, if any.
func (r *Router) Back() bool {
	r.mu.Lock()
	if len(r.history) == 0 {
		r.mu.Unlock()
		return false
	}
	from := r.current
	r.current = r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	to := r.current
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l(from, to)
	}
	return true
}

// History returns a copy of previously visited locations, oldest first.
func (r *Router) History() []Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Location, len(r.history))
	copy(out, r.history)
	return out
}

// OnChange registers a listener.
func (r *Router) OnChange(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

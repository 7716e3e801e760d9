package client

import (
	"sync"

	"github.com/emberbase/ember-go/errors"
)

// Registry owns the clients of a process, keyed by app id. It is an
// explicitly constructed object threaded through callers — deliberately not
// a package-level map — so lifetime and test isolation stay visible.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
	}
}

// Register adds a client under its app id. Fails with ErrDuplicateApp when
// one is already registered.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.AppID()]; exists {
		return errors.Wrapf(errors.ErrDuplicateApp, "app %s", c.AppID())
	}
	r.clients[c.AppID()] = c
	return nil
}

// Lookup returns the client for an app id, or ok=false
func (r *Registry) Lookup(appID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[appID]
	return c, ok
}

// Remove drops a client from the registry without closing it
func (r *Registry) Remove(appID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, appID)
}

// Len returns the number of registered clients
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close closes every registered client and empties the registry. The first
// close error is returned; remaining clients are still closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	var firstErr error
	for _, c := range clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

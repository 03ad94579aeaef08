package provider

import (
	"fmt"
	"sync"
)

// Registry manages named chat clients. It enables dependency injection:
// callers register whatever clients they construct and hand the registry
// to components that look clients up by name.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]ChatClient
}

// NewRegistry creates a new client registry
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]ChatClient),
	}
}

// Register adds a client to the registry
func (r *Registry) Register(name string, client ChatClient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("client %s already registered", name)
	}

	r.clients[name] = client

	return nil
}

// Get retrieves a client by name
func (r *Registry) Get(name string) (ChatClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[name]
	if !exists {
		return nil, fmt.Errorf("client %s not found", name)
	}

	return client, nil
}

// List returns all registered client names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}

	return names
}

// Remove removes a client from the registry and closes it
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, exists := r.clients[name]
	if !exists {
		return fmt.Errorf("client %s not found", name)
	}

	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close client %s: %w", name, err)
	}

	delete(r.clients, name)

	return nil
}

// CloseAll closes all registered clients
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, client := range r.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client %s: %w", name, err))
		}
	}

	r.clients = make(map[string]ChatClient)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing clients: %v", errs)
	}

	return nil
}

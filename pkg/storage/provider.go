package storage

import (
	"context"
	"fmt"
	"io"
)

// Provider identifiers persisted on file rows.
const (
	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

// Provider stores and retrieves document blobs.
type Provider interface {
	Name() string
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// PublicURL returns a directly reachable URL for key, or "" when the object must be streamed.
	PublicURL(key string, download bool) string
}

// Registry resolves providers by name. New uploads go to the active provider while
// existing rows keep reading from whichever provider stored them.
type Registry struct {
	active    Provider
	providers map[string]Provider
}

// NewRegistry registers providers; the first one is the active upload target.
func NewRegistry(active Provider, others ...Provider) *Registry {
	r := &Registry{active: active, providers: make(map[string]Provider, len(others)+1)}
	r.providers[active.Name()] = active
	for _, p := range others {
		if p == nil {
			continue
		}
		if _, exists := r.providers[p.Name()]; !exists {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Active returns the provider used for new uploads.
func (r *Registry) Active() Provider {
	return r.active
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		return r.active, nil
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("storage provider %q not configured", name)
	}
	return p, nil
}

package client

import (
	"context"
	"net/http"
)

// Query is a typed GET against one API path.
type Query[T any] struct {
	Path string
}

// NewQuery builds a query for path.
func NewQuery[T any](path string) Query[T] {
	return Query[T]{Path: path}
}

// Fetch issues the GET and decodes the response data as T.
func (q Query[T]) Fetch(ctx context.Context, c *Client) (T, error) {
	var out T
	if err := c.call(ctx, http.MethodGet, q.Path, nil, "", &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// FetchWithRetry runs Fetch under b.
func (q Query[T]) FetchWithRetry(ctx context.Context, c *Client, b *Backoff) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = q.Fetch(ctx, c)
		return err
	})
	return out, err
}

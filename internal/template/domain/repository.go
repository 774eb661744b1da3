package domain

import "context"

// Repository reads template bundles from the static bundle store.
type Repository interface {
	// LoadBundle loads the bundle stored under key, or ErrTemplateNotFound.
	LoadBundle(ctx context.Context, key string) (*Bundle, error)
	// ResolveRoute joins (service, document type) to a template key, or
	// ErrTemplateNotFound when no route is configured.
	ResolveRoute(ctx context.Context, serviceID, documentTypeID string) (string, error)
}

package domain

import (
	"context"
	"errors"
)

// Lookup identifies a bundle either by explicit template key or by the
// (service, document type) pair.
type Lookup struct {
	TemplateKey    string
	ServiceID      string
	DocumentTypeID string
}

// Store resolves lookups to template bundles. Resolution is deterministic:
// an explicit key wins, otherwise the configured service/document-type route
// decides, otherwise the lookup fails. There is no silent default.
type Store interface {
	Resolve(ctx context.Context, lookup Lookup) (*Bundle, error)
}

var (
	ErrTemplateNotFound = errors.New("template_not_found")
	ErrInvalidLookup    = errors.New("invalid_lookup")
)

package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/cache"
	"github.com/ingenia/docfactory/internal/observability/metrics"
	"github.com/ingenia/docfactory/internal/template/domain"
)

// StoreImpl resolves lookups against the bundle repository, caching bundles
// after the first successful load. Cache entries never expire; templates are
// static for the process lifetime.
type StoreImpl struct {
	repo    domain.Repository
	log     *zap.Logger
	bundles cache.Cache[string, *domain.Bundle]
}

func NewStore(repo domain.Repository, log *zap.Logger) domain.Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreImpl{
		repo:    repo,
		log:     log.Named("template.store"),
		bundles: cache.NewTTLCache[string, *domain.Bundle](),
	}
}

func (s *StoreImpl) Resolve(ctx context.Context, lookup domain.Lookup) (*domain.Bundle, error) {
	key := strings.TrimSpace(lookup.TemplateKey)
	if key == "" {
		serviceID := strings.TrimSpace(lookup.ServiceID)
		docTypeID := strings.TrimSpace(lookup.DocumentTypeID)
		if serviceID == "" || docTypeID == "" {
			return nil, fmt.Errorf("%w: need template_key or (service_id, document_type_id)", domain.ErrInvalidLookup)
		}
		routed, err := s.repo.ResolveRoute(ctx, serviceID, docTypeID)
		if err != nil {
			return nil, err
		}
		key = routed
	}

	bundle, cached, err := s.bundles.GetOrLoad(key, 0, func() (*domain.Bundle, error) {
		return s.repo.LoadBundle(ctx, key)
	})
	metrics.Render().ObserveCacheLookup(cached)
	if err != nil {
		return nil, err
	}
	if !cached {
		s.log.Info("template bundle cached", zap.String("template_key", key))
	}
	return bundle, nil
}

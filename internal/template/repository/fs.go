package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ingenia/docfactory/internal/template/domain"
)

const (
	layoutFile  = "layout.html"
	mappingFile = "mapping.yaml"
	styleFile   = "style.yaml"
	routesFile  = "routes.yaml"
)

// FSRepository reads template bundles from a directory tree:
//
//	<root>/routes.yaml
//	<root>/<template_key>/layout.html
//	<root>/<template_key>/mapping.yaml
//	<root>/<template_key>/style.yaml
//
// Bundles are assumed static for the process lifetime.
type FSRepository struct {
	root string
	log  *zap.Logger

	routesOnce sync.Once
	routes     map[routeKey]string
	routesErr  error
}

type routeKey struct {
	serviceID      string
	documentTypeID string
}

type routesDoc struct {
	Routes []struct {
		ServiceID      string `yaml:"service_id"`
		DocumentTypeID string `yaml:"document_type_id"`
		TemplateKey    string `yaml:"template_key"`
	} `yaml:"routes"`
}

func NewFSRepository(root string, log *zap.Logger) *FSRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &FSRepository{
		root: root,
		log:  log.Named("template.fs"),
	}
}

func (r *FSRepository) LoadBundle(_ context.Context, key string) (*domain.Bundle, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, fmt.Errorf("%w: bad template key %q", domain.ErrInvalidLookup, key)
	}

	dir := filepath.Join(r.root, key)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, key)
	}

	layout, err := os.ReadFile(filepath.Join(dir, layoutFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s missing %s", domain.ErrTemplateNotFound, key, layoutFile)
	}

	var mapping domain.MappingSpec
	if err := r.readYAML(filepath.Join(dir, mappingFile), &mapping); err != nil {
		return nil, err
	}

	var style domain.Style
	if err := r.readYAML(filepath.Join(dir, styleFile), &style); err != nil {
		// Style is optional; a bundle without one renders with defaults.
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	r.log.Debug("bundle loaded", zap.String("template_key", key))
	return &domain.Bundle{
		Key:          key,
		LayoutSource: string(layout),
		Mapping:      mapping,
		Style:        style,
	}, nil
}

func (r *FSRepository) ResolveRoute(_ context.Context, serviceID, documentTypeID string) (string, error) {
	r.routesOnce.Do(r.loadRoutes)
	if r.routesErr != nil {
		return "", r.routesErr
	}
	key, ok := r.routes[routeKey{serviceID, documentTypeID}]
	if !ok {
		return "", fmt.Errorf("%w: no route for service %q document type %q",
			domain.ErrTemplateNotFound, serviceID, documentTypeID)
	}
	return key, nil
}

func (r *FSRepository) loadRoutes() {
	var doc routesDoc
	if err := r.readYAML(filepath.Join(r.root, routesFile), &doc); err != nil {
		r.routesErr = err
		return
	}
	routes := make(map[routeKey]string, len(doc.Routes))
	for _, route := range doc.Routes {
		routes[routeKey{route.ServiceID, route.DocumentTypeID}] = route.TemplateKey
	}
	r.routes = routes
}

func (r *FSRepository) readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

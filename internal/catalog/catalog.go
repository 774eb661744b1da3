package catalog

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ingenia/docfactory/internal/payload"
)

// Item is one priced catalog entry for a service.
type Item struct {
	Code        string
	Description string
	UnitPrice   int64 // minor units
}

// LookupResult is the tagged outcome of a catalog lookup: either the items
// configured for the service, or an explicit miss. Callers must branch on
// Found instead of reading through to an empty slice.
type LookupResult struct {
	Found bool
	Items []Item
}

// Source is a read-only pricing snapshot keyed by service identifier,
// loaded once at startup. No hidden reconnects, no per-call sessions.
type Source struct {
	byService map[string][]Item
	log       *zap.Logger
}

type sourceDoc struct {
	Services []struct {
		ServiceID string `yaml:"service_id"`
		Items     []struct {
			Code        string  `yaml:"code"`
			Description string  `yaml:"description"`
			UnitPrice   float64 `yaml:"unit_price"`
		} `yaml:"items"`
	} `yaml:"services"`
}

// Load reads the catalog snapshot. An empty path yields an empty source, so
// callers that never price from the catalog need no file.
func Load(path string, log *zap.Logger) (*Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	src := &Source{
		byService: make(map[string][]Item),
		log:       log.Named("catalog"),
	}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var doc sourceDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	for _, svc := range doc.Services {
		items := make([]Item, 0, len(svc.Items))
		for _, it := range svc.Items {
			amount, err := payload.ParseAmount(it.UnitPrice)
			if err != nil {
				return nil, fmt.Errorf("catalog %s service %s item %s: %w", path, svc.ServiceID, it.Code, err)
			}
			items = append(items, Item{
				Code:        strings.TrimSpace(it.Code),
				Description: strings.TrimSpace(it.Description),
				UnitPrice:   amount,
			})
		}
		src.byService[strings.TrimSpace(svc.ServiceID)] = items
	}
	src.log.Info("catalog loaded", zap.Int("services", len(src.byService)))
	return src, nil
}

// Lookup returns the items configured for a service.
func (s *Source) Lookup(serviceID string) LookupResult {
	items, ok := s.byService[strings.TrimSpace(serviceID)]
	if !ok {
		return LookupResult{}
	}
	return LookupResult{Found: true, Items: items}
}

// UnitPrice implements the normalizer's price source.
func (s *Source) UnitPrice(serviceID, itemCode string) (int64, bool) {
	result := s.Lookup(serviceID)
	if !result.Found {
		return 0, false
	}
	code := strings.TrimSpace(itemCode)
	for _, it := range result.Items {
		if it.Code == code {
			return it.UnitPrice, true
		}
	}
	return 0, false
}

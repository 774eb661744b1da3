package catalog

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/payload"
)

var Module = fx.Module("catalog",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Source, error) {
		return Load(cfg.CatalogPath, log)
	}),
	fx.Provide(func(src *Source) payload.PriceSource { return src }),
)

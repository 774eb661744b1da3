package template

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/template/domain"
	"github.com/ingenia/docfactory/internal/template/repository"
	"github.com/ingenia/docfactory/internal/template/service"
)

var Module = fx.Module("template",
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Repository {
		return repository.NewFSRepository(cfg.TemplateRoot, log)
	}),
	fx.Provide(service.NewStore),
)

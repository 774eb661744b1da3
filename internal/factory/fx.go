package factory

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/factory/service"
	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer/fixedlayout"
	"github.com/ingenia/docfactory/internal/renderer/flowdoc"
	"github.com/ingenia/docfactory/internal/renderer/spreadsheet"
)

var Module = fx.Module("factory",
	fx.Provide(
		mapping.NewCompiler,
		payload.NewNormalizer,
		spreadsheet.New,
		flowdoc.New,
		fixedlayout.NewDirect,
		func(cfg config.Config, log *zap.Logger) *fixedlayout.Converter {
			return fixedlayout.NewConverter(cfg.Converter.Command, cfg.Converter.Timeout, cfg.Converter.Retries, log)
		},
		func(flow *flowdoc.Renderer, conv *fixedlayout.Converter, log *zap.Logger) *fixedlayout.ConvertRenderer {
			return fixedlayout.NewConvert(flow, conv, log)
		},
		func() (*snowflake.Node, error) { return snowflake.NewNode(1) },
		service.NewService,
	),
)

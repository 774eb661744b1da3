package identity

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/payload"
)

var Module = fx.Module("identity",
	fx.Provide(func(cfg config.Config, log *zap.Logger) (*Snapshot, error) {
		return Load(cfg.IdentityPath, log)
	}),
	fx.Provide(func(snap *Snapshot) payload.DisplaySource { return snap }),
)

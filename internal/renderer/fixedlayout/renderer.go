package fixedlayout

import (
	"context"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
)

// ConvertRenderer derives fixed-layout output from the flow-document
// renderer through the external conversion collaborator. This is the default
// path; the orchestrator falls back to DirectRenderer for print-direct
// bundles or when no collaborator is configured.
type ConvertRenderer struct {
	flow renderer.Renderer
	conv *Converter
	log  *zap.Logger
}

func NewConvert(flow renderer.Renderer, conv *Converter, log *zap.Logger) *ConvertRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConvertRenderer{
		flow: flow,
		conv: conv,
		log:  log.Named("render.pdf"),
	}
}

func (r *ConvertRenderer) Engine() string { return "pdf-convert" }

// Available reports whether the conversion collaborator can be used.
func (r *ConvertRenderer) Available() bool {
	return r.conv.Available()
}

func (r *ConvertRenderer) Render(ctx context.Context, model *mapping.LayoutModel, p *payload.Normalized, branding renderer.Branding) ([]byte, error) {
	flowDoc, err := r.flow.Render(ctx, model, p, branding)
	if err != nil {
		return nil, err
	}
	return r.conv.Convert(ctx, flowDoc)
}

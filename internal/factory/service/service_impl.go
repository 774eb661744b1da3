package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/clock"
	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/factory/domain"
	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/observability/logger"
	"github.com/ingenia/docfactory/internal/observability/metrics"
	"github.com/ingenia/docfactory/internal/observability/tracing"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
	"github.com/ingenia/docfactory/internal/renderer/fixedlayout"
	"github.com/ingenia/docfactory/internal/renderer/flowdoc"
	"github.com/ingenia/docfactory/internal/renderer/spreadsheet"
	templatedomain "github.com/ingenia/docfactory/internal/template/domain"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Cfg         config.Config
	Store       templatedomain.Store
	Compiler    *mapping.Compiler
	Normalizer  *payload.Normalizer
	Spreadsheet *spreadsheet.Renderer
	Flow        *flowdoc.Renderer
	Convert     *fixedlayout.ConvertRenderer
	Direct      *fixedlayout.DirectRenderer
	Node        *snowflake.Node
	Clock       clock.Clock
}

type ServiceImpl struct {
	log         *zap.Logger
	cfg         config.Config
	store       templatedomain.Store
	compiler    *mapping.Compiler
	normalizer  *payload.Normalizer
	spreadsheet *spreadsheet.Renderer
	flow        *flowdoc.Renderer
	convert     *fixedlayout.ConvertRenderer
	direct      *fixedlayout.DirectRenderer
	node        *snowflake.Node
	clock       clock.Clock
}

func NewService(p Params) domain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	ck := p.Clock
	if ck == nil {
		ck = clock.SystemClock{}
	}
	return &ServiceImpl{
		log:         log.Named("factory"),
		cfg:         p.Cfg,
		store:       p.Store,
		compiler:    p.Compiler,
		normalizer:  p.Normalizer,
		spreadsheet: p.Spreadsheet,
		flow:        p.Flow,
		convert:     p.Convert,
		direct:      p.Direct,
		node:        p.Node,
		clock:       ck,
	}
}

// prepared is the shared outcome of the stages ahead of RENDER. Mirror runs
// them once and fans the result out to every format.
type prepared struct {
	bundle     *templatedomain.Bundle
	docType    string
	model      *mapping.LayoutModel
	normalized *payload.Normalized
	branding   renderer.Branding
}

func (s *ServiceImpl) Process(ctx context.Context, req domain.Request) domain.Result {
	format, serr := s.parseFormat(req.OutputFormat)
	if serr != nil {
		return s.failure(ctx, format, serr)
	}
	prep, serr := s.prepare(ctx, req)
	if serr != nil {
		return s.failure(ctx, format, serr)
	}
	return s.renderOne(ctx, format, prep)
}

func (s *ServiceImpl) Mirror(ctx context.Context, req domain.Request) []domain.Result {
	formats := []renderer.Format{
		renderer.FormatSpreadsheet,
		renderer.FormatFlowDocument,
		renderer.FormatFixedLayout,
	}
	prep, serr := s.prepare(ctx, req)
	if serr != nil {
		results := make([]domain.Result, 0, len(formats))
		for _, format := range formats {
			results = append(results, s.failure(ctx, format, serr))
		}
		return results
	}
	results := make([]domain.Result, 0, len(formats))
	for _, format := range formats {
		results = append(results, s.renderOne(ctx, format, prep))
	}
	return results
}

func (s *ServiceImpl) parseFormat(raw string) (renderer.Format, *domain.StageError) {
	format, err := renderer.ParseFormat(raw)
	if err != nil {
		return format, &domain.StageError{Stage: domain.StageValidateRequest, Err: err}
	}
	return format, nil
}

func (s *ServiceImpl) prepare(ctx context.Context, req domain.Request) (*prepared, *domain.StageError) {
	bundle, serr := s.resolveTemplate(ctx, req.Header)
	if serr != nil {
		return nil, serr
	}
	model, serr := s.compileMapping(ctx, bundle)
	if serr != nil {
		return nil, serr
	}
	normalized, serr := s.normalizePayload(ctx, req, bundle)
	if serr != nil {
		return nil, serr
	}
	s.log.Debug("request prepared",
		zap.String("template_key", bundle.Key),
		zap.Int("bindings", len(model.Bindings)),
		zap.Int("items", len(normalized.Items)),
	)
	return &prepared{
		bundle:     bundle,
		docType:    docTypeSlug(req.Header.DocumentTypeID),
		model:      model,
		normalized: normalized,
		branding:   renderer.MergeBranding(req.Branding, bundle.Style),
	}, nil
}

func (s *ServiceImpl) resolveTemplate(ctx context.Context, header domain.Header) (*templatedomain.Bundle, *domain.StageError) {
	ctx, span := tracing.Tracer().Start(ctx, "factory.resolve_template")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("template_key", header.TemplateKey),
		attribute.String("service_id", header.ServiceID),
		attribute.String("document_type_id", header.DocumentTypeID),
	)...)

	bundle, err := s.store.Resolve(ctx, templatedomain.Lookup{
		TemplateKey:    header.TemplateKey,
		ServiceID:      header.ServiceID,
		DocumentTypeID: header.DocumentTypeID,
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		return nil, &domain.StageError{Stage: domain.StageResolveTemplate, Err: err}
	}
	return bundle, nil
}

func (s *ServiceImpl) compileMapping(ctx context.Context, bundle *templatedomain.Bundle) (*mapping.LayoutModel, *domain.StageError) {
	_, span := tracing.Tracer().Start(ctx, "factory.compile_mapping")
	defer span.End()

	model, err := s.compiler.Compile(bundle.Mapping)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		return nil, &domain.StageError{Stage: domain.StageCompileMapping, Err: err}
	}
	return model, nil
}

func (s *ServiceImpl) normalizePayload(ctx context.Context, req domain.Request, bundle *templatedomain.Bundle) (*payload.Normalized, *domain.StageError) {
	_, span := tracing.Tracer().Start(ctx, "factory.normalize_payload")
	defer span.End()

	normalized, err := s.normalizer.Normalize(req.Payload, payload.Options{
		ServiceID:       req.Header.ServiceID,
		RequesterID:     req.Header.RequesterID,
		DefaultCurrency: s.cfg.DefaultCurrency,
		DefaultTaxRate:  bundle.Style.DefaultTaxRate,
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		return nil, &domain.StageError{Stage: domain.StageNormalizePayload, Err: err}
	}
	return normalized, nil
}

func (s *ServiceImpl) renderOne(ctx context.Context, format renderer.Format, prep *prepared) domain.Result {
	ctx, span := tracing.Tracer().Start(ctx, "factory.render")
	defer span.End()

	start := s.clock.Now()
	r := s.selectRenderer(format, prep.bundle)
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("format", string(format)),
		attribute.String("engine", r.Engine()),
	)...)
	binary, err := r.Render(ctx, prep.model, prep.normalized, prep.branding)
	elapsed := s.clock.Now().Sub(start)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		metrics.Render().ObserveRender(string(format), "error", elapsed)
		logger.FromContext(ctx).Warn("render failed",
			zap.String("format", string(format)),
			zap.String("engine", r.Engine()),
			zap.Error(err),
		)
		return s.failure(ctx, format, &domain.StageError{Stage: domain.StageRender, Err: err})
	}
	metrics.Render().ObserveRender(string(format), "success", elapsed)

	result, serr := s.encode(ctx, format, r.Engine(), prep, binary)
	if serr != nil {
		return s.failure(ctx, format, serr)
	}
	logger.FromContext(ctx).Info("document rendered",
		zap.String("format", string(format)),
		zap.String("engine", result.Engine),
		zap.String("filename", result.Filename),
		zap.Int("size_bytes", result.SizeBytes),
		zap.Duration("elapsed", elapsed),
	)
	return result
}

// encode finalizes the binary into a deliverable result with a derived
// filename. Empty renderer output is treated as a failure to guarantee no
// caller ever receives a zero-byte document marked successful.
func (s *ServiceImpl) encode(ctx context.Context, format renderer.Format, engine string, prep *prepared, binary []byte) (domain.Result, *domain.StageError) {
	_, span := tracing.Tracer().Start(ctx, "factory.encode")
	defer span.End()

	if len(binary) == 0 {
		err := fmt.Errorf("renderer produced empty output for %s", format)
		span.RecordError(tracing.SafeError(err))
		return domain.Result{}, &domain.StageError{Stage: domain.StageEncode, Err: err}
	}
	return domain.Result{
		Success:   true,
		Format:    format,
		Binary:    binary,
		Filename:  s.filename(prep, format),
		Engine:    engine,
		SizeBytes: len(binary),
	}, nil
}

func (s *ServiceImpl) selectRenderer(format renderer.Format, bundle *templatedomain.Bundle) renderer.Renderer {
	switch format {
	case renderer.FormatSpreadsheet:
		return s.spreadsheet
	case renderer.FormatFlowDocument:
		return s.flow
	case renderer.FormatFixedLayout:
		if bundle.Style.PrintDirect || s.convert == nil || !s.convert.Available() {
			return s.direct
		}
		return s.convert
	default:
		return s.flow
	}
}

func (s *ServiceImpl) filename(prep *prepared, format renderer.Format) string {
	if s.node != nil {
		return fmt.Sprintf("%s_%s_%s.%s", prep.bundle.Key, prep.docType, s.node.Generate(), format.Extension())
	}
	return fmt.Sprintf("%s_%s.%s", prep.bundle.Key, prep.docType, format.Extension())
}

func docTypeSlug(raw string) string {
	slug := strings.ToLower(strings.TrimSpace(raw))
	slug = strings.ReplaceAll(slug, " ", "-")
	if slug == "" {
		return "document"
	}
	return slug
}

func (s *ServiceImpl) failure(ctx context.Context, format renderer.Format, serr *domain.StageError) domain.Result {
	logger.FromContext(ctx).Warn("request failed",
		zap.String("format", string(format)),
		zap.String("stage", serr.Stage),
		zap.Error(serr.Err),
	)
	return domain.Result{Format: format, Err: serr}
}

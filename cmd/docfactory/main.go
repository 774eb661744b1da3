package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ingenia/docfactory/internal/catalog"
	"github.com/ingenia/docfactory/internal/clock"
	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/factory"
	factorydomain "github.com/ingenia/docfactory/internal/factory/domain"
	"github.com/ingenia/docfactory/internal/identity"
	"github.com/ingenia/docfactory/internal/observability/logger"
	"github.com/ingenia/docfactory/internal/observability/tracing"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
	"github.com/ingenia/docfactory/internal/template"
)

var version = "dev"

// requestDoc is the on-disk request shape accepted by the CLI.
type requestDoc struct {
	Header struct {
		RequesterID    string `yaml:"requester_id"`
		ServiceID      string `yaml:"service_id"`
		DocumentTypeID string `yaml:"document_type_id"`
		TemplateKey    string `yaml:"template_key"`
	} `yaml:"header"`
	Branding struct {
		CompanyName    string `yaml:"company_name"`
		PrimaryColor   string `yaml:"primary_color"`
		SecondaryColor string `yaml:"secondary_color"`
		FontFamily     string `yaml:"font_family"`
		LogoRef        string `yaml:"logo_ref"`
	} `yaml:"branding"`
	OutputFormat string      `yaml:"output_format"`
	Payload      payload.Raw `yaml:"payload"`
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to the service configuration file")
		requestPath = flag.String("request", "", "path to the render request file")
		outDir      = flag.String("out", ".", "directory the rendered documents are written to")
		mirror      = flag.Bool("mirror", false, "render every supported format from one request")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "docfactory: -request is required")
		os.Exit(2)
	}

	app := fx.New(
		fx.Provide(func() (config.Config, error) {
			return config.Load(*configPath)
		}),
		logger.Module,
		fx.Provide(tracing.NewProvider),
		fx.Invoke(func(*sdktrace.TracerProvider) {}),
		clock.Module,
		template.Module,
		catalog.Module,
		identity.Module,
		factory.Module,
		fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, svc factorydomain.Service, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						code := run(context.Background(), svc, log, *requestPath, *outDir, *mirror)
						_ = shutdowner.Shutdown(fx.ExitCode(code))
					}()
					return nil
				},
			})
		}),
	)
	app.Run()
}

func run(ctx context.Context, svc factorydomain.Service, log *zap.Logger, requestPath, outDir string, mirror bool) int {
	req, echo, err := loadRequest(requestPath)
	if err != nil {
		log.Error("load request", zap.Error(err))
		return 1
	}
	log.Debug("request accepted", zap.Any("request", logger.MaskFields(echo)))

	var results []factorydomain.Result
	if mirror {
		results = svc.Mirror(ctx, req)
	} else {
		results = []factorydomain.Result{svc.Process(ctx, req)}
	}

	code := 0
	for _, res := range results {
		if !res.Success {
			log.Error("render failed",
				zap.String("format", string(res.Format)),
				zap.String("stage", res.Err.Stage),
				zap.Error(res.Err),
			)
			code = 1
			continue
		}
		path := filepath.Join(outDir, res.Filename)
		if err := os.WriteFile(path, res.Binary, 0o644); err != nil {
			log.Error("write output", zap.String("path", path), zap.Error(err))
			code = 1
			continue
		}
		log.Info("document written",
			zap.String("path", path),
			zap.String("engine", res.Engine),
			zap.Int("size_bytes", res.SizeBytes),
		)
	}
	return code
}

// loadRequest parses the request file and also returns its generic form for
// masked logging.
func loadRequest(path string) (factorydomain.Request, map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return factorydomain.Request{}, nil, fmt.Errorf("read request %s: %w", path, err)
	}
	var doc requestDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return factorydomain.Request{}, nil, fmt.Errorf("parse request %s: %w", path, err)
	}
	var echo map[string]any
	_ = yaml.Unmarshal(raw, &echo)
	return factorydomain.Request{
		Header: factorydomain.Header{
			RequesterID:    doc.Header.RequesterID,
			ServiceID:      doc.Header.ServiceID,
			DocumentTypeID: doc.Header.DocumentTypeID,
			TemplateKey:    doc.Header.TemplateKey,
		},
		Branding: renderer.Branding{
			CompanyName:    doc.Branding.CompanyName,
			PrimaryColor:   doc.Branding.PrimaryColor,
			SecondaryColor: doc.Branding.SecondaryColor,
			FontFamily:     doc.Branding.FontFamily,
			LogoRef:        doc.Branding.LogoRef,
		},
		OutputFormat: doc.OutputFormat,
		Payload:      doc.Payload,
	}, echo, nil
}

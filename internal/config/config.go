package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the process-wide settings for the document factory.
type Config struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`

	// TemplateRoot is the directory holding template bundles, one
	// subdirectory per template key.
	TemplateRoot string `yaml:"template_root"`

	CatalogPath  string `yaml:"catalog_path"`
	IdentityPath string `yaml:"identity_path"`

	DefaultCurrency string `yaml:"default_currency"`
	DefaultLocale   string `yaml:"default_locale"`

	Converter ConverterConfig `yaml:"converter"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ConverterConfig controls the external flow-document to fixed-layout
// conversion collaborator.
type ConverterConfig struct {
	// Command is the argv template. The placeholders {input} and {outdir}
	// are substituted before execution.
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// TracingConfig mirrors the exporter settings consumed by the tracing module.
type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:     "docfactory",
		Environment:     "dev",
		TemplateRoot:    "templates",
		DefaultCurrency: "USD",
		DefaultLocale:   "en",
		Converter: ConverterConfig{
			Timeout: 30 * time.Second,
			Retries: 2,
		},
	}
}

// Load reads a yaml config file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ServiceName == "" {
		c.ServiceName = defaults.ServiceName
	}
	if c.Environment == "" {
		c.Environment = defaults.Environment
	}
	if c.TemplateRoot == "" {
		c.TemplateRoot = defaults.TemplateRoot
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = defaults.DefaultCurrency
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = defaults.DefaultLocale
	}
	if c.Converter.Timeout <= 0 {
		c.Converter.Timeout = defaults.Converter.Timeout
	}
	if c.Converter.Retries <= 0 {
		c.Converter.Retries = defaults.Converter.Retries
	}
	return c
}

package domain

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
)

// Request is the single entry-point input: template reference or lookup
// keys, branding, payload and the desired output format.
type Request struct {
	Header       Header
	Branding     renderer.Branding
	Payload      payload.Raw
	OutputFormat string
}

// Header identifies the requester and the template lookup keys.
type Header struct {
	RequesterID    string
	ServiceID      string
	DocumentTypeID string
	TemplateKey    string
}

// Result is the outcome of one render. A failed render carries no binary,
// never a truncated one.
type Result struct {
	Success   bool
	Format    renderer.Format
	Binary    []byte
	Filename  string
	Engine    string
	SizeBytes int
	Err       *StageError
}

// BinaryBase64 encodes the binary for transport-oriented callers.
func (r Result) BinaryBase64() string {
	if len(r.Binary) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(r.Binary)
}

// Pipeline stages, in execution order.
const (
	StageValidateRequest  = "VALIDATE_REQUEST"
	StageResolveTemplate  = "RESOLVE_TEMPLATE"
	StageCompileMapping   = "COMPILE_MAPPING"
	StageNormalizePayload = "NORMALIZE_PAYLOAD"
	StageRender           = "RENDER"
	StageEncode           = "ENCODE"
)

// StageError is a stage-tagged failure. The orchestrator short-circuits on
// the first failing stage and reports both the stage and the cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Service is the binary factory: one call per rendered document.
type Service interface {
	// Process renders the requested format.
	Process(ctx context.Context, req Request) Result
	// Mirror renders all three formats from a single resolve/compile/
	// normalize pass, the scenario that exercises cross-format numeric
	// consistency.
	Mirror(ctx context.Context, req Request) []Result
}

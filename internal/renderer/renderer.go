package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
)

// Format is the closed set of output formats.
type Format string

const (
	FormatSpreadsheet  Format = "SPREADSHEET"
	FormatFlowDocument Format = "FLOW_DOCUMENT"
	FormatFixedLayout  Format = "FIXED_LAYOUT"
)

// ErrUnsupportedFormat rejects any format outside the closed enumeration.
var ErrUnsupportedFormat = errors.New("unsupported_format")

// ParseFormat validates a caller-supplied format string.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToUpper(strings.TrimSpace(raw))) {
	case FormatSpreadsheet:
		return FormatSpreadsheet, nil
	case FormatFlowDocument:
		return FormatFlowDocument, nil
	case FormatFixedLayout:
		return FormatFixedLayout, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// Extension returns the file extension for the format's binary.
func (f Format) Extension() string {
	switch f {
	case FormatSpreadsheet:
		return "xlsx"
	case FormatFlowDocument:
		return "docx"
	case FormatFixedLayout:
		return "pdf"
	default:
		return "bin"
	}
}

// Renderer is the contract all three backends share. Implementations keep no
// cross-request state; everything they need arrives in the call.
type Renderer interface {
	Engine() string
	Render(ctx context.Context, model *mapping.LayoutModel, p *payload.Normalized, branding Branding) ([]byte, error)
}

// ErrCollision tags table regions that overlap static content.
var ErrCollision = errors.New("render_collision")

// CollisionError reports the exact cell where a table region ran into a
// static placement.
type CollisionError struct {
	Cell string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("table region collides with static cell %s", e.Cell)
}

func (e *CollisionError) Unwrap() error { return ErrCollision }

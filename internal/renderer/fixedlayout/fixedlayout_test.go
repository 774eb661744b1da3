package fixedlayout

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
	"github.com/ingenia/docfactory/internal/template/domain"
)

func compiledModel(t *testing.T) *mapping.LayoutModel {
	t.Helper()
	spec := domain.MappingSpec{
		Title: "Quotation",
		StaticRegions: []domain.StaticRegion{
			{Region: "footer", Text: "Thank you for your business."},
		},
		Bindings: []domain.Binding{
			{Field: "client_info.name", Region: "client", Label: "Client"},
			{Field: "totals.grand_total", Region: "totals", Label: "Grand Total"},
		},
		Tables: []domain.TableRegion{
			{
				DataKey: "items",
				Start:   "A7",
				Columns: []domain.Column{
					{Header: "Description", Field: "description", Width: 60},
					{Header: "Qty", Field: "quantity", Width: 20},
					{Header: "Unit Price", Field: "unit_price", Width: 30},
					{Header: "Total", Field: "line_total", Formula: "B{row}*C{row}", Width: 30},
				},
			},
		},
	}
	model, err := mapping.NewCompiler(zap.NewNop()).Compile(spec)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return model
}

func testPayload() *payload.Normalized {
	return &payload.Normalized{
		Client:   payload.Client{Name: "Acme Engineering"},
		Currency: "USD",
		Items: []payload.Item{
			{Description: "Site survey", Quantity: 1, UnitPrice: 50000, LineTotal: 50000},
			{Description: "Cabling", Quantity: 4, UnitPrice: 12000, LineTotal: 48000},
		},
		Totals: payload.Totals{Subtotal: 98000, Tax: 17640, GrandTotal: 115640, TaxRate: 0.18},
	}
}

func TestDirectRenderProducesPDF(t *testing.T) {
	r := NewDirect(zap.NewNop())
	out, err := r.Render(context.Background(), compiledModel(t), testPayload(), renderer.Branding{PrimaryColor: "#1f6feb"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF magic, got %q", out[:8])
	}
	if r.Engine() != "pdf-direct" {
		t.Fatalf("expected pdf-direct engine, got %s", r.Engine())
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "convert.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestConverterRoundTrip(t *testing.T) {
	// Fake collaborator: writes a PDF next to the input, soffice-style.
	script := writeScript(t, `printf '%%PDF-1.4 fake' > "$2"/document.pdf`)
	conv := NewConverter([]string{script, "{input}", "{outdir}"}, 5*time.Second, 1, zap.NewNop())

	out, err := conv.Convert(context.Background(), []byte("docx-bytes"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", out)
	}
}

func TestConverterTimeout(t *testing.T) {
	script := writeScript(t, "sleep 5")
	conv := NewConverter([]string{script, "{input}", "{outdir}"}, 50*time.Millisecond, 1, zap.NewNop())

	start := time.Now()
	_, err := conv.Convert(context.Background(), []byte("docx-bytes"))
	if !errors.Is(err, ErrConversionTimeout) {
		t.Fatalf("expected conversion timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("expected bounded retries, conversion took too long")
	}
}

func TestConverterTimeoutWithForkedChild(t *testing.T) {
	// Collaborator forks a worker that inherits our pipes and outlives the
	// kill at the deadline. The wait must still be bounded.
	script := writeScript(t, "sleep 5 &\nsleep 5\n")
	conv := NewConverter([]string{script, "{input}", "{outdir}"}, 50*time.Millisecond, 1, zap.NewNop())

	start := time.Now()
	_, err := conv.Convert(context.Background(), []byte("docx-bytes"))
	if !errors.Is(err, ErrConversionTimeout) {
		t.Fatalf("expected conversion timeout, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("expected the orphaned worker not to extend the wait")
	}
}

func TestConverterRetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "failed-once")
	script := filepath.Join(dir, "convert.sh")
	body := "#!/bin/sh\nif [ ! -f " + marker + " ]; then touch " + marker + "; exit 1; fi\nprintf '%%PDF-1.4 retry' > \"$2\"/document.pdf\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	conv := NewConverter([]string{script, "{input}", "{outdir}"}, 5*time.Second, 2, zap.NewNop())

	out, err := conv.Convert(context.Background(), []byte("docx-bytes"))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", out)
	}
}

func TestConverterUnavailable(t *testing.T) {
	conv := NewConverter(nil, time.Second, 0, zap.NewNop())
	if conv.Available() {
		t.Fatal("expected unavailable converter")
	}
	if _, err := conv.Convert(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error from unavailable converter")
	}
}

package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/clock"
	"github.com/ingenia/docfactory/internal/config"
	"github.com/ingenia/docfactory/internal/factory/domain"
	"github.com/ingenia/docfactory/internal/mapping"
	"github.com/ingenia/docfactory/internal/payload"
	"github.com/ingenia/docfactory/internal/renderer"
	"github.com/ingenia/docfactory/internal/renderer/fixedlayout"
	"github.com/ingenia/docfactory/internal/renderer/flowdoc"
	"github.com/ingenia/docfactory/internal/renderer/spreadsheet"
	templatedomain "github.com/ingenia/docfactory/internal/template/domain"
	"github.com/ingenia/docfactory/internal/template/repository"
	templateservice "github.com/ingenia/docfactory/internal/template/service"
)

const testMapping = `title: Quotation
static_cells:
  - at: A5
    text: Prepared by the sales desk
static_regions:
  - region: footer
    text: Thank you for your business
dynamic_bindings:
  - field: client_info.name
    at: B3
    region: client
    label: Client
  - field: totals.subtotal
    at: D11
    region: totals
    label: Subtotal
  - field: totals.grand_total
    at: D12
    region: totals
    label: Grand Total
table_regions:
  - data_key: items
    start: A7
    columns:
      - header: Description
        field: description
        width: 40
      - header: Qty
        field: quantity
        width: 10
      - header: Unit Price
        field: unit_price
        width: 14
      - header: Line Total
        field: line_total
        formula: "B{row}*C{row}"
        width: 14
`

const testStyle = `primary_color: "#1f6feb"
secondary_color: "#6b7280"
default_tax_rate: 0.18
print_direct: true
`

func writeTemplateTree(t *testing.T, root, key string) {
	t.Helper()
	dir := filepath.Join(root, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"layout.html":  "<html><body><h1>Quotation</h1></body></html>",
		"mapping.yaml": testMapping,
		"style.yaml":   testStyle,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newTestService(t *testing.T, root string, converterCmd []string) domain.Service {
	t.Helper()
	log := zap.NewNop()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	flow := flowdoc.New(log)
	conv := fixedlayout.NewConverter(converterCmd, 0, 0, log)
	return NewService(Params{
		Log:         log,
		Cfg:         config.Config{DefaultCurrency: "USD", TemplateRoot: root},
		Store:       templateservice.NewStore(repository.NewFSRepository(root, log), log),
		Compiler:    mapping.NewCompiler(log),
		Normalizer:  payload.NewNormalizer(log, nil, nil),
		Spreadsheet: spreadsheet.New(log),
		Flow:        flow,
		Convert:     fixedlayout.NewConvert(flow, conv, log),
		Direct:      fixedlayout.NewDirect(log),
		Node:        node,
		Clock:       clock.SystemClock{},
	})
}

func scenarioRequest(format string) domain.Request {
	return domain.Request{
		Header: domain.Header{
			RequesterID:    "u-17",
			ServiceID:      "3",
			DocumentTypeID: "Quotation",
			TemplateKey:    "quotation_standard",
		},
		Payload: payload.Raw{
			Client:   payload.RawClient{Name: "Acme Engineering", TaxID: "ES-B76543210"},
			Currency: "USD",
			Items: []payload.RawItem{
				{Description: "Consulting", Quantity: 1, UnitPrice: 500.0},
				{Description: "Widget", Quantity: 4, UnitPrice: 120.0},
			},
		},
		OutputFormat: format,
	}
}

func docxDocumentXML(t *testing.T, binary []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(binary), int64(len(binary)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open document.xml: %v", err)
		}
		defer rc.Close()
		raw, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read document.xml: %v", err)
		}
		return string(raw)
	}
	t.Fatal("docx has no word/document.xml")
	return ""
}

func TestProcessSpreadsheet(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	svc := newTestService(t, root, nil)

	res := svc.Process(context.Background(), scenarioRequest("SPREADSHEET"))
	if !res.Success {
		t.Fatalf("process failed: %v", res.Err)
	}
	if res.Engine != "xlsx" {
		t.Fatalf("expected engine xlsx, got %q", res.Engine)
	}
	if res.SizeBytes != len(res.Binary) || res.SizeBytes == 0 {
		t.Fatalf("inconsistent size: %d bytes, binary %d", res.SizeBytes, len(res.Binary))
	}
	if !strings.HasPrefix(res.Filename, "quotation_standard_quotation_") || !strings.HasSuffix(res.Filename, ".xlsx") {
		t.Fatalf("unexpected filename %q", res.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Binary))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	name, _ := f.GetCellValue("Sheet1", "B3")
	if name != "Acme Engineering" {
		t.Fatalf("expected client at B3, got %q", name)
	}
	formula, _ := f.GetCellFormula("Sheet1", "D8")
	if formula != "B8*C8" {
		t.Fatalf("expected live formula B8*C8, got %q", formula)
	}
	total, _ := f.GetCellValue("Sheet1", "D12")
	if total != "1156.4" {
		t.Fatalf("expected grand total 1156.4, got %q", total)
	}
}

func TestProcessUnsupportedFormat(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	svc := newTestService(t, root, nil)

	res := svc.Process(context.Background(), scenarioRequest("XML"))
	if res.Success {
		t.Fatal("expected failure for unsupported format")
	}
	if len(res.Binary) != 0 {
		t.Fatal("failed request must not carry a binary")
	}
	if res.Err == nil || res.Err.Stage != domain.StageValidateRequest {
		t.Fatalf("expected stage %s, got %+v", domain.StageValidateRequest, res.Err)
	}
	if !errors.Is(res.Err, renderer.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported_format, got %v", res.Err)
	}
}

func TestProcessUnknownTemplate(t *testing.T) {
	svc := newTestService(t, t.TempDir(), nil)

	req := scenarioRequest("SPREADSHEET")
	req.Header.TemplateKey = "ghost"
	res := svc.Process(context.Background(), req)
	if res.Success {
		t.Fatal("expected failure for unknown template")
	}
	if res.Err == nil || res.Err.Stage != domain.StageResolveTemplate {
		t.Fatalf("expected stage %s, got %+v", domain.StageResolveTemplate, res.Err)
	}
	if !errors.Is(res.Err, templatedomain.ErrTemplateNotFound) {
		t.Fatalf("expected template_not_found, got %v", res.Err)
	}
}

func TestProcessMalformedPayload(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	svc := newTestService(t, root, nil)

	req := scenarioRequest("FLOW_DOCUMENT")
	req.Payload.Items[0].Quantity = "a few"
	res := svc.Process(context.Background(), req)
	if res.Success {
		t.Fatal("expected failure for malformed payload")
	}
	if len(res.Binary) != 0 {
		t.Fatal("failed request must not carry a binary")
	}
	if res.Err == nil || res.Err.Stage != domain.StageNormalizePayload {
		t.Fatalf("expected stage %s, got %+v", domain.StageNormalizePayload, res.Err)
	}
	if !errors.Is(res.Err, payload.ErrValidation) {
		t.Fatalf("expected validation_error, got %v", res.Err)
	}
	var verr *payload.ValidationError
	if !errors.As(res.Err, &verr) || !strings.Contains(verr.Field, "quantity") {
		t.Fatalf("expected quantity field in error, got %v", res.Err)
	}
}

func TestMirrorCrossFormatConsistency(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	svc := newTestService(t, root, nil)

	results := svc.Mirror(context.Background(), scenarioRequest("SPREADSHEET"))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	byFormat := map[renderer.Format]domain.Result{}
	for _, res := range results {
		if !res.Success {
			t.Fatalf("%s render failed: %v", res.Format, res.Err)
		}
		byFormat[res.Format] = res
	}

	f, err := excelize.OpenReader(bytes.NewReader(byFormat[renderer.FormatSpreadsheet].Binary))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	total, _ := f.GetCellValue("Sheet1", "D12")
	if total != "1156.4" {
		t.Fatalf("spreadsheet grand total %q", total)
	}

	xml := docxDocumentXML(t, byFormat[renderer.FormatFlowDocument].Binary)
	if !strings.Contains(xml, "USD 1156.40") {
		t.Fatal("flow document does not carry grand total USD 1156.40")
	}
	if strings.Contains(xml, "{row}") {
		t.Fatal("formula template leaked into flow document")
	}

	pdf := byFormat[renderer.FormatFixedLayout].Binary
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("fixed layout output is not a PDF")
	}
	if byFormat[renderer.FormatFixedLayout].Engine != "pdf-direct" {
		t.Fatalf("expected pdf-direct for print_direct bundle, got %q", byFormat[renderer.FormatFixedLayout].Engine)
	}
}

func TestMirrorFailureTagsEveryFormat(t *testing.T) {
	svc := newTestService(t, t.TempDir(), nil)

	req := scenarioRequest("SPREADSHEET")
	req.Header.TemplateKey = "ghost"
	results := svc.Mirror(context.Background(), req)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Success || len(res.Binary) != 0 {
			t.Fatalf("%s should have failed without a binary", res.Format)
		}
		if res.Err == nil || res.Err.Stage != domain.StageResolveTemplate {
			t.Fatalf("%s: expected stage %s, got %+v", res.Format, domain.StageResolveTemplate, res.Err)
		}
	}
}

func TestFixedLayoutFallsBackWithoutConverter(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	// The bundle asks for print_direct anyway, so drop that hint to prove
	// the fallback alone selects the direct painter.
	style := "primary_color: \"#1f6feb\"\ndefault_tax_rate: 0.18\n"
	if err := os.WriteFile(filepath.Join(root, "quotation_standard", "style.yaml"), []byte(style), 0o600); err != nil {
		t.Fatalf("write style: %v", err)
	}
	svc := newTestService(t, root, nil)

	res := svc.Process(context.Background(), scenarioRequest("FIXED_LAYOUT"))
	if !res.Success {
		t.Fatalf("process failed: %v", res.Err)
	}
	if res.Engine != "pdf-direct" {
		t.Fatalf("expected pdf-direct fallback, got %q", res.Engine)
	}
	if !bytes.HasPrefix(res.Binary, []byte("%PDF")) {
		t.Fatal("fixed layout output is not a PDF")
	}
}

func TestBinaryBase64RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTemplateTree(t, root, "quotation_standard")
	svc := newTestService(t, root, nil)

	res := svc.Process(context.Background(), scenarioRequest("FLOW_DOCUMENT"))
	if !res.Success {
		t.Fatalf("process failed: %v", res.Err)
	}
	if res.BinaryBase64() == "" {
		t.Fatal("expected base64 payload for successful render")
	}
}

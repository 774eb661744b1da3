package renderer

import (
	"testing"

	"github.com/ingenia/docfactory/internal/template/domain"
)

func TestMergeBrandingOverridesStyle(t *testing.T) {
	merged := MergeBranding(
		Branding{PrimaryColor: "#ff0000"},
		domain.Style{PrimaryColor: "#1f6feb", FontFamily: "Space Grotesk", LogoRef: "logo.png"},
	)
	if merged.PrimaryColor != "#ff0000" {
		t.Fatalf("expected request color to win, got %s", merged.PrimaryColor)
	}
	if merged.FontFamily != "Space Grotesk" {
		t.Fatalf("expected style font kept, got %s", merged.FontFamily)
	}
	if merged.LogoRef != "logo.png" {
		t.Fatalf("expected style logo kept, got %s", merged.LogoRef)
	}
}

func TestMergeBrandingSanitizes(t *testing.T) {
	merged := MergeBranding(
		Branding{PrimaryColor: "javascript:alert(1)", FontFamily: "<script>"},
		domain.Style{},
	)
	if merged.PrimaryColor != defaultPrimaryColor {
		t.Fatalf("expected fallback color, got %s", merged.PrimaryColor)
	}
	if merged.FontFamily != defaultFontFamily {
		t.Fatalf("expected fallback font, got %s", merged.FontFamily)
	}
}

func TestRGB(t *testing.T) {
	r, g, b := RGB("#1f6feb")
	if r != 31 || g != 111 || b != 235 {
		t.Fatalf("RGB(#1f6feb) = %d,%d,%d", r, g, b)
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("XML"); err == nil {
		t.Fatal("expected unsupported format error")
	}
	f, err := ParseFormat("spreadsheet")
	if err != nil || f != FormatSpreadsheet {
		t.Fatalf("expected SPREADSHEET, got %v %v", f, err)
	}
	if FormatFlowDocument.Extension() != "docx" {
		t.Fatalf("expected docx extension, got %s", FormatFlowDocument.Extension())
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

const fixture = `services:
  - service_id: "3"
    items:
      - code: SRV-01
        description: Site survey
        unit_price: 500.00
      - code: CBL-01
        description: Cabling
        unit_price: 120.00
`

func loadFixture(t *testing.T) *Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	src, err := Load(path, zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return src
}

func TestLookupFound(t *testing.T) {
	src := loadFixture(t)
	result := src.Lookup("3")
	if !result.Found {
		t.Fatal("expected found")
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if result.Items[1].UnitPrice != 12000 {
		t.Fatalf("expected 12000 minor units, got %d", result.Items[1].UnitPrice)
	}
}

func TestLookupNotFoundIsTagged(t *testing.T) {
	src := loadFixture(t)
	result := src.Lookup("99")
	if result.Found {
		t.Fatal("expected explicit miss")
	}
	if result.Items != nil {
		t.Fatal("expected no items on miss")
	}
}

func TestUnitPrice(t *testing.T) {
	src := loadFixture(t)
	price, ok := src.UnitPrice("3", "SRV-01")
	if !ok || price != 50000 {
		t.Fatalf("expected 50000, got %d ok=%v", price, ok)
	}
	if _, ok := src.UnitPrice("3", "NOPE"); ok {
		t.Fatal("expected unknown code miss")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	src, err := Load("", zap.NewNop())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.Lookup("3").Found {
		t.Fatal("expected empty source")
	}
}

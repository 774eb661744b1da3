package logger

import "testing"

func TestMaskTaxID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"20601234567", "*******4567"},
	}
	for _, tc := range cases {
		if got := MaskTaxID(tc.in); got != tc.want {
			t.Fatalf("MaskTaxID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskFields(t *testing.T) {
	in := map[string]any{
		"client": map[string]any{
			"name":   "Acme Engineering",
			"tax_id": "20601234567",
		},
		"api_key": "sk-verysecretvalue",
		"count":   3,
	}
	out := MaskFields(in)

	client, ok := out["client"].(map[string]any)
	if !ok {
		t.Fatal("expected nested client map")
	}
	if client["name"] != "Acme Engineering" {
		t.Fatalf("expected name untouched, got %v", client["name"])
	}
	if client["tax_id"] != "*******4567" {
		t.Fatalf("expected masked tax_id, got %v", client["tax_id"])
	}
	if out["api_key"] == in["api_key"] {
		t.Fatal("expected api_key masked")
	}
	if out["count"] != 3 {
		t.Fatalf("expected count untouched, got %v", out["count"])
	}
	if in["client"].(map[string]any)["tax_id"] != "20601234567" {
		t.Fatal("expected input map untouched")
	}
}

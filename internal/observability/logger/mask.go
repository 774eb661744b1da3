package logger

import "strings"

var sensitiveKeys = []string{
	"tax_id",
	"password",
	"secret",
	"token",
	"api_key",
	"authorization",
}

// MaskTaxID masks a client tax identifier, preserving the last 4 characters.
func MaskTaxID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return maskLast4(value)
}

// MaskFields returns a copy of the map with sensitive fields masked. Nested
// maps are masked recursively.
func MaskFields(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		switch v := value.(type) {
		case map[string]any:
			out[key] = MaskFields(v)
		case string:
			if isSensitiveKey(key) {
				out[key] = maskLast4(v)
			} else {
				out[key] = v
			}
		default:
			if isSensitiveKey(key) {
				out[key] = "****"
			} else {
				out[key] = value
			}
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskLast4(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

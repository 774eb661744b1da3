package renderer

import (
	"regexp"
	"strings"

	"github.com/ingenia/docfactory/internal/template/domain"
)

// Branding is the per-request color/logo override merged over the bundle's
// style reference. Values are sanitized before any renderer sees them.
type Branding struct {
	CompanyName    string
	PrimaryColor   string
	SecondaryColor string
	FontFamily     string
	LogoRef        string
}

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontFamilyFilter = regexp.MustCompile(`^[A-Za-z0-9 \-]+$`)
)

const (
	defaultPrimaryColor   = "#111827"
	defaultSecondaryColor = "#6b7280"
	defaultFontFamily     = "Helvetica"
)

// MergeBranding overlays request branding on the bundle style and sanitizes
// the result. Unusable values fall back to defaults, never rendered raw.
func MergeBranding(req Branding, style domain.Style) Branding {
	merged := Branding{
		CompanyName:    strings.TrimSpace(req.CompanyName),
		PrimaryColor:   firstNonEmpty(req.PrimaryColor, style.PrimaryColor),
		SecondaryColor: firstNonEmpty(req.SecondaryColor, style.SecondaryColor),
		FontFamily:     firstNonEmpty(req.FontFamily, style.FontFamily),
		LogoRef:        firstNonEmpty(req.LogoRef, style.LogoRef),
	}
	merged.PrimaryColor = sanitizeColor(merged.PrimaryColor, defaultPrimaryColor)
	merged.SecondaryColor = sanitizeColor(merged.SecondaryColor, defaultSecondaryColor)
	merged.FontFamily = sanitizeFont(merged.FontFamily)
	return merged
}

// HexRGB returns the color without its leading '#', uppercased, the form
// OOXML wants.
func HexRGB(color string) string {
	return strings.ToUpper(strings.TrimPrefix(color, "#"))
}

// RGB splits a sanitized hex color into components for PDF painting.
func RGB(color string) (r, g, b int) {
	hex := HexRGB(sanitizeColor(color, defaultPrimaryColor))
	return hexByte(hex[0:2]), hexByte(hex[2:4]), hexByte(hex[4:6])
}

func hexByte(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v *= 16
		switch {
		case s[i] >= '0' && s[i] <= '9':
			v += int(s[i] - '0')
		case s[i] >= 'a' && s[i] <= 'f':
			v += int(s[i]-'a') + 10
		case s[i] >= 'A' && s[i] <= 'F':
			v += int(s[i]-'A') + 10
		}
	}
	return v
}

func sanitizeColor(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return fallback
}

func sanitizeFont(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && fontFamilyFilter.MatchString(trimmed) {
		return trimmed
	}
	return defaultFontFamily
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

package scapeid

import "strings"

// Normalize canonicalizes scape names and common aliases so lookups and CLI
// flags tolerate underscore, case and suffix variants.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalScapeName(normalized); ok {
		return canonical
	}
	return normalized
}

func canonicalScapeName(alias string) (string, bool) {
	switch alias {
	case "xor":
		return "xor", true
	case "cart-pole-lite":
		return "cart-pole-lite", true
	}

	compact := strings.ReplaceAll(alias, "-", "")
	switch compact {
	case "xor":
		return "xor", true
	case "cartpolelite", "cartpole", "cp":
		return "cart-pole-lite", true
	default:
		return "", false
	}
}

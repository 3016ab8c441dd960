package utils

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlSanitizer = bluemonday.UGCPolicy()

// SanitizeHTML cleans rich content fields, keeping safe markup while
// stripping anything executable.
func SanitizeHTML(input string) string {
	return htmlSanitizer.Sanitize(input)
}

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	jsURIRe        = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+\s*=`)
	angleBracketRe = regexp.MustCompile(`[<>]`)
)

// SanitizeText strips script blocks, javascript: URIs, inline event handler
// attributes, and angle brackets from a string, or recursively from every
// string value of a map. Any other value passes through unchanged, nil included.
func SanitizeText(input interface{}) interface{} {
	switch v := input.(type) {
	case string:
		return sanitizeString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = SanitizeText(val)
		}
		return out
	default:
		return input
	}
}

// SanitizeString is the string-only convenience form of SanitizeText.
func SanitizeString(s string) string {
	return sanitizeString(s)
}

func sanitizeString(s string) string {
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = jsURIRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = angleBracketRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

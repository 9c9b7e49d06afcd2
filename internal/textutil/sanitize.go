package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
)

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons and asterisks become dashes; other unsafe
// characters are removed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// Stem returns the sanitized file name without its extension. Names that
// sanitize to nothing fall back to "video".
func Stem(name string) string {
	clean := SanitizeFileName(name)
	clean = strings.TrimSuffix(clean, filepath.Ext(clean))
	clean = strings.TrimSpace(clean)
	if clean == "" || clean == "." || clean == ".." {
		return "video"
	}
	return clean
}

// SanitizeToken lowercases value and maps everything outside [a-z0-9_-] to
// underscores, for directory names built from Drive ids. Empty results
// become "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}

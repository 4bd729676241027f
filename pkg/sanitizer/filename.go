// Package sanitizer cleans user-supplied strings that are echoed back to
// clients, such as the original filename of an upload.
package sanitizer

import (
	"html"
	"path"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// MaxDisplayNameLength is the rune limit for display names.
const MaxDisplayNameLength = 255

// FallbackDisplayName replaces names that are empty after cleaning.
const FallbackDisplayName = "file"

var strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)

// DisplayName turns a client-supplied filename into a safe label.
// It keeps only the last path element, strips markup and control
// characters, normalizes to NFC and caps the length while keeping the
// extension. The result is for display only and must never be used to build
// a filesystem path.
func DisplayName(name string) string {
	name = norm.NFC.String(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	name = html.UnescapeString(strictPolicy().Sanitize(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." {
		return FallbackDisplayName
	}

	return truncate(name, MaxDisplayNameLength)
}

// truncate shortens name to max runes, preserving a short extension.
func truncate(name string, max int) string {
	if utf8.RuneCountInString(name) <= max {
		return name
	}

	ext := path.Ext(name)
	if utf8.RuneCountInString(ext) >= max/2 {
		ext = ""
	}
	base := []rune(strings.TrimSuffix(name, ext))
	return string(base[:max-utf8.RuneCountInString(ext)]) + ext
}

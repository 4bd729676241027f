package storage

import (
	"path/filepath"
	"strings"
)

// MIME type constants.
const (
	MIMEOctetStream = "application/octet-stream"
	MIMEPDF         = "application/pdf"
	MIMEDoc         = "application/msword"
	MIMEDocx        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPNG         = "image/png"
	MIMEJPEG        = "image/jpeg"
	MIMEJPG         = "image/jpg" // non-standard, sent by some browsers
)

// DefaultMaxSize is the default upload ceiling (5 MiB).
const DefaultMaxSize int64 = 5 << 20

// DefaultAllowedMIMETypes returns the MIME types accepted for résumés,
// cover letters and images.
func DefaultAllowedMIMETypes() []string {
	return []string{MIMEPDF, MIMEDoc, MIMEDocx, MIMEPNG, MIMEJPEG, MIMEJPG}
}

// DefaultAllowedExtensions returns the extensions accepted by default.
func DefaultAllowedExtensions() []string {
	return []string{".pdf", ".doc", ".docx", ".png", ".jpg", ".jpeg"}
}

// extContentTypes maps stored extensions to the content type served back.
var extContentTypes = map[string]string{
	".pdf":  MIMEPDF,
	".doc":  MIMEDoc,
	".docx": MIMEDocx,
	".png":  MIMEPNG,
	".jpg":  MIMEJPEG,
	".jpeg": MIMEJPEG,
}

// Ext returns the lowercased suffix of filename starting at the last dot,
// or an empty string when there is none.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ContentTypeByExt returns the content type for an allowed extension.
// Unknown extensions are served as application/octet-stream.
func ContentTypeByExt(ext string) string {
	if ct, ok := extContentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return MIMEOctetStream
}

// normalizeMIME extracts the base MIME type, removing parameters like charset.
// Returns the lowercase MIME type.
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}

// matchesMIME checks if a MIME type matches any of the allowed patterns.
// Supports wildcards like "image/*".
func matchesMIME(mimeType string, allowed []string) bool {
	mimeType = normalizeMIME(mimeType)
	if mimeType == "" {
		return false
	}

	for _, pattern := range allowed {
		pattern = strings.TrimSpace(strings.ToLower(pattern))

		if mimeType == pattern {
			return true
		}

		if strings.HasSuffix(pattern, "/*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}

	return false
}

// matchesExt checks ext against allowed extensions, case-insensitively.
// Entries may be given with or without the leading dot.
func matchesExt(ext string, allowed []string) bool {
	ext = strings.ToLower(ext)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		a = strings.TrimSpace(strings.ToLower(a))
		if a != "" && !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if ext == a {
			return true
		}
	}
	return false
}

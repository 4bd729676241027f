package storage

import (
	"fmt"
	"slices"
)

// FileValidationError represents a rejected upload.
// It matches ErrInvalidType or ErrTooLarge with errors.Is, depending on Code.
type FileValidationError struct {
	Details map[string]any // Error-specific data
	Field   string         // Form field name (e.g., "file")
	Code    string         // Error code (e.g., "too_large", "invalid_type")
	Message string         // Human-readable message
}

// Error implements the error interface.
func (e *FileValidationError) Error() string {
	return e.Message
}

// Is maps the error code onto the package sentinels.
func (e *FileValidationError) Is(target error) bool {
	switch e.Code {
	case ErrCodeInvalidType:
		return target == ErrInvalidType
	case ErrCodeTooLarge:
		return target == ErrTooLarge
	}
	return false
}

// Error codes for FileValidationError.
const (
	ErrCodeInvalidType = "invalid_type"
	ErrCodeTooLarge    = "too_large"
	ErrCodeEmptyFile   = "empty_file"
)

// Upload describes an incoming file before any byte is persisted.
type Upload struct {
	Filename    string // Caller-supplied name; only its extension is used
	ContentType string // Declared MIME type
	Size        int64  // Declared size; negative when unknown
}

// ValidationRule defines a validation check for uploads.
type ValidationRule interface {
	// Validate checks the upload and returns an error if validation fails.
	Validate(u Upload) error
}

// ValidateUpload runs all rules against u.
// Returns the first validation error encountered, or nil if all pass.
func ValidateUpload(u Upload, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(u); err != nil {
			return err
		}
	}
	return nil
}

// maxSizeRule validates that file size is within limits.
type maxSizeRule struct {
	maxBytes int64
}

// MaxSize returns a rule that rejects files larger than the specified size.
// Uploads with unknown (negative) size pass; the limit is then enforced while
// streaming.
func MaxSize(bytes int64) ValidationRule {
	return &maxSizeRule{maxBytes: bytes}
}

// Validate implements ValidationRule.
func (r *maxSizeRule) Validate(u Upload) error {
	if u.Size > r.maxBytes {
		return tooLargeError(r.maxBytes, u.Size)
	}
	return nil
}

func tooLargeError(limit, got int64) *FileValidationError {
	return &FileValidationError{
		Field:   "file",
		Code:    ErrCodeTooLarge,
		Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", got, limit),
		Details: map[string]any{
			"limit": limit,
			"got":   got,
		},
	}
}

// notEmptyRule validates that the file is not empty.
type notEmptyRule struct{}

// NotEmpty returns a rule that rejects uploads declared as zero bytes.
func NotEmpty() ValidationRule {
	return &notEmptyRule{}
}

// Validate implements ValidationRule.
func (r *notEmptyRule) Validate(u Upload) error {
	if u.Size == 0 {
		return &FileValidationError{
			Field:   "file",
			Code:    ErrCodeEmptyFile,
			Message: "file is empty",
			Details: map[string]any{},
		}
	}
	return nil
}

// allowedTypesRule validates the declared MIME type against allowed patterns.
type allowedTypesRule struct {
	patterns []string
}

// AllowedTypes returns a rule that only accepts files whose declared MIME type
// matches one of the patterns. Supports wildcards like "image/*".
func AllowedTypes(patterns ...string) ValidationRule {
	return &allowedTypesRule{patterns: patterns}
}

// Validate implements ValidationRule.
func (r *allowedTypesRule) Validate(u Upload) error {
	if !matchesMIME(u.ContentType, r.patterns) {
		return &FileValidationError{
			Field:   "file",
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("file type %q is not allowed", normalizeMIME(u.ContentType)),
			Details: map[string]any{
				"type":    normalizeMIME(u.ContentType),
				"allowed": r.patterns,
			},
		}
	}
	return nil
}

// allowedExtensionsRule validates the filename extension.
type allowedExtensionsRule struct {
	extensions []string
}

// AllowedExtensions returns a rule that only accepts filenames whose
// lowercased extension is listed.
func AllowedExtensions(extensions ...string) ValidationRule {
	return &allowedExtensionsRule{extensions: extensions}
}

// Validate implements ValidationRule.
func (r *allowedExtensionsRule) Validate(u Upload) error {
	ext := Ext(u.Filename)
	if !matchesExt(ext, r.extensions) {
		return &FileValidationError{
			Field:   "file",
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("file extension %q is not allowed", ext),
			Details: map[string]any{
				"extension": ext,
				"allowed":   r.extensions,
			},
		}
	}
	return nil
}

// Validator is the upload gate applied before any byte is written.
// The declared MIME type and the filename extension are checked
// independently, then the size ceiling.
type Validator struct {
	mimeTypes  []string
	extensions []string
	extra      []ValidationRule
	maxSize    int64
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMaxSize overrides the size ceiling in bytes.
func WithMaxSize(bytes int64) ValidatorOption {
	return func(v *Validator) {
		if bytes > 0 {
			v.maxSize = bytes
		}
	}
}

// WithAllowedMIMETypes replaces the MIME allow-list.
func WithAllowedMIMETypes(types ...string) ValidatorOption {
	return func(v *Validator) {
		if len(types) > 0 {
			v.mimeTypes = slices.Clone(types)
		}
	}
}

// WithAllowedExtensions replaces the extension allow-list.
func WithAllowedExtensions(exts ...string) ValidatorOption {
	return func(v *Validator) {
		if len(exts) > 0 {
			v.extensions = slices.Clone(exts)
		}
	}
}

// WithRules appends extra rules evaluated after the built-in checks.
func WithRules(rules ...ValidationRule) ValidatorOption {
	return func(v *Validator) {
		v.extra = append(v.extra, rules...)
	}
}

// NewValidator creates a validator with the default allow-lists and a
// 5 MiB ceiling, modified by opts.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		mimeTypes:  DefaultAllowedMIMETypes(),
		extensions: DefaultAllowedExtensions(),
		maxSize:    DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MaxSize returns the configured ceiling in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate returns nil when the upload is accepted, or a *FileValidationError
// with code invalid_type or too_large.
func (v *Validator) Validate(declaredMIME, filename string, size int64) error {
	u := Upload{Filename: filename, ContentType: declaredMIME, Size: size}
	rules := append([]ValidationRule{
		AllowedTypes(v.mimeTypes...),
		AllowedExtensions(v.extensions...),
		MaxSize(v.maxSize),
	}, v.extra...)
	return ValidateUpload(u, rules...)
}

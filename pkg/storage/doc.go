// Package storage provides owner-scoped file storage for uploaded documents.
//
// Every file lives at <root>/<owner>/<key>, where key is a freshly minted
// UUID plus the original extension. The caller-supplied filename is kept for
// display only and never takes part in path construction.
//
// # Basic Usage
//
//	backend, err := storage.NewLocalBackend("/var/lib/careerdesk/uploads")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	m, err := storage.NewManager(backend,
//		storage.WithLogger(logger),
//		storage.WithPublicPrefix("/uploads"),
//	)
//
//	f, err := m.Store(ctx, userID, part, "application/pdf", "resume.pdf", -1)
//	if err != nil {
//		var verr *storage.FileValidationError
//		if errors.As(err, &verr) {
//			// verr.Code is "invalid_type" or "too_large"
//		}
//	}
//
//	ok, err := m.Exists(ctx, userID, f.Key)
//	href, err := m.URL(userID, f.Key)
//	err = m.Delete(ctx, userID, f.Key) // idempotent
//
// # Validation
//
// Uploads are checked before any byte is written: the declared MIME type and
// the filename extension must both appear in their allow-lists, and the size
// must not exceed the ceiling (5 MiB by default). The ceiling is enforced a
// second time while streaming, so an understated size cannot slip through.
//
//	v := storage.NewValidator(
//		storage.WithMaxSize(10<<20),
//		storage.WithAllowedMIMETypes("application/pdf"),
//		storage.WithAllowedExtensions(".pdf"),
//	)
//	m, err := storage.NewManager(backend, storage.WithValidator(v))
//
// # Backends
//
// LocalBackend writes to a temp file in the owner directory and renames it
// into place. S3Backend stores objects under "<prefix>/<owner>/<key>" in any
// S3-compatible bucket. Sweeper removes temp files left behind by
// interrupted local writes.
//
// # Errors
//
//   - [ErrUnauthenticated] - empty owner id
//   - [ErrInvalidType], [ErrTooLarge] - matched by *FileValidationError
//   - [ErrInvalidOwner], [ErrInvalidKey] - unsafe path segments
//   - [ErrNotFound] - Open on a missing file (Exists and Delete never return it)
//   - [ErrIOFailure] - filesystem or network failure, never retried internally
package storage

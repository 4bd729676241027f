package api

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/careerdesk/internal/identity"
	"github.com/dmitrymomot/careerdesk/pkg/storage"
)

// uploadField is the multipart field carrying the file.
const uploadField = "file"

// multipartOverhead is allowed on top of the size ceiling for boundaries,
// part headers and any small fields sent before the file.
const multipartOverhead = 64 << 10

type uploadResponse struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
}

type urlResponse struct {
	URL string `json:"url"`
}

func ownerFrom(r *http.Request) (string, error) {
	owner, ok := identity.OwnerID(r.Context())
	if !ok {
		return "", storage.ErrUnauthenticated
	}
	return owner, nil
}

// uploadFile streams the "file" part of a multipart body into storage
// without buffering it in memory.
func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	limit := s.files.Validator().MaxSize() + multipartOverhead
	if r.ContentLength > limit {
		return &HTTPError{Code: http.StatusRequestEntityTooLarge, ErrorCode: CodeTooLarge, Message: "file exceeds size limit"}
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mr, err := r.MultipartReader()
	if err != nil {
		return badRequest("expected a multipart/form-data body", err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return badRequest("missing \"file\" field", nil)
		}
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				return err
			}
			return badRequest("malformed multipart body", err)
		}

		if part.FormName() != uploadField {
			part.Close()
			continue
		}

		f, err := s.storePart(r, owner, part)
		part.Close()
		if err != nil {
			return err
		}

		href, err := s.files.URL(owner, f.Key)
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.ObserveUpload(f.Size)
		}

		w.Header().Set("Location", "/files/"+f.Key)
		s.writeJSON(w, r, http.StatusCreated, uploadResponse{
			Key:          f.Key,
			URL:          href,
			OriginalName: f.OriginalName,
			ContentType:  f.ContentType,
			Size:         f.Size,
		})
		return nil
	}
}

func (s *Server) storePart(r *http.Request, owner string, part *multipart.Part) (*storage.File, error) {
	return s.files.Store(r.Context(), owner, part,
		part.Header.Get("Content-Type"),
		part.FileName(),
		-1,
	)
}

func (s *Server) headFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	ok, err := s.files.Exists(r.Context(), owner, chi.URLParam(r, "key"))
	if err != nil {
		return err
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return nil
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	return s.streamFile(w, r, owner, chi.URLParam(r, "key"))
}

// serveUpload answers public upload URLs. Access is by knowledge of the
// unguessable key, as for any static file server.
func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) error {
	return s.streamFile(w, r, chi.URLParam(r, "owner"), chi.URLParam(r, "key"))
}

func (s *Server) streamFile(w http.ResponseWriter, r *http.Request, owner, key string) error {
	rc, err := s.files.Open(r.Context(), owner, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	h := w.Header()
	h.Set("Content-Type", storage.ContentTypeByExt(storage.Ext(key)))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": key}))
	h.Set("Cache-Control", "private, max-age=0")
	if st, ok := rc.(interface{ Stat() (fs.FileInfo, error) }); ok {
		if info, err := st.Stat(); err == nil {
			h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.WarnContext(r.Context(), "file stream interrupted",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return nil
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	if err := s.files.Delete(r.Context(), owner, chi.URLParam(r, "key")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) fileURL(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	href, err := s.files.URL(owner, chi.URLParam(r, "key"))
	if err != nil {
		return err
	}
	s.writeJSON(w, r, http.StatusOK, urlResponse{URL: href})
	return nil
}

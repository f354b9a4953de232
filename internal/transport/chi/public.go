package chi

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	domfb "github.com/kailas-cloud/vibesearch/internal/domain/feedback"
	uploaduc "github.com/kailas-cloud/vibesearch/internal/usecase/upload"
)

const (
	maxMultipartMemory = 32 << 20
	uploadField        = "images"
)

// bindQuery binds an optional form-style query parameter.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return domain.InvalidInput("query parameter %s: %v", name, err)
	}
	return nil
}

// GetPreview handles GET /api/apartments/{id}/preview.
func (s *Server) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var query string
	if err := bindQuery(r, "query", &query); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.previews.Preview(r.Context(), id, query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Apartment: p})
}

// GetDetails handles GET /api/apartments/{id}/details.
func (s *Server) GetDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.details.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailsResponse{Apartment: d})
}

// UploadImages handles POST /api/uploads.
func (s *Server) UploadImages(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil || !s.uploads.Enabled() {
		s.handleDomainError(w, r, domain.ErrUploadsDisabled)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "no images provided")
		return
	}

	files := make([]uploaduc.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.logger.Warn("Cannot open uploaded file", zap.String("file", fh.Filename), zap.Error(err))
			continue
		}
		defer func(f multipart.File) { _ = f.Close() }(f)
		files = append(files, uploaduc.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	urls := s.uploads.UploadMany(r.Context(), files)
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "no image could be uploaded")
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{URLs: urls})
}

// JoinWaitlist handles POST /api/waitlist.
func (s *Server) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req waitlistRequest
	if err := decodeBody(r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	entry, err := s.waitlist.Join(r.Context(), req.Email, req.Vibe)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, waitlistToResponse(entry))
}

// SubmitFeedback handles POST /api/feedback.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	entry, err := s.feedback.Submit(r.Context(), domfb.Category(req.Category), req.Feedback, req.UserID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackToResponse(entry))
}

// ListFeedback handles GET /api/feedback.
func (s *Server) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := s.feedback.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]feedbackResponse, len(entries))
	for i, e := range entries {
		items[i] = feedbackToResponse(e)
	}
	writeJSON(w, http.StatusOK, feedbackListResponse{Items: items})
}

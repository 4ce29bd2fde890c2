package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/aDarkMaker/JoinUs/internal/service"
)

const (
	overwriteKey      = "overwrite"
	duplicateHeader   = "X-Duplicate"
	multipartInMemory = 8 << 20
)

type SubmissionHandler struct {
	svc       *service.SubmissionService
	maxUpload int64
	logger    *slog.Logger
}

func NewSubmissionHandler(svc *service.SubmissionService, maxUpload int64, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, maxUpload: maxUpload, logger: logger}
}

// Submit accepts multipart (or urlencoded) form data from the widget.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	in, cleanup, err := parseSubmission(r)
	defer cleanup()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	sub, err := h.svc.Submit(r.Context(), in)
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrDuplicate):
		w.Header().Set(duplicateHeader, "true")
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "duplicate": true})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": verr.Error(), "fields": verr.Fields})
	case err != nil:
		h.logger.Error("submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": sub.ID})
	}
}

func parseSubmission(r *http.Request) (service.SubmitInput, func(), error) {
	noop := func() {}
	in := service.SubmitInput{
		Values: map[string]string{},
		Files:  map[string][]service.FileInput{},
	}

	err := r.ParseMultipartForm(multipartInMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return in, noop, err
	}
	cleanup := noop
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { form.RemoveAll() }
	}

	ov := r.PostForm.Get(overwriteKey)
	in.Overwrite = ov == "1" || ov == "true"
	for key, vs := range r.PostForm {
		if key == overwriteKey || len(vs) == 0 {
			continue
		}
		// Repeated keys keep the last value.
		in.Values[key] = vs[len(vs)-1]
	}
	if r.MultipartForm != nil {
		for key, headers := range r.MultipartForm.File {
			if key == overwriteKey {
				continue
			}
			for _, fh := range headers {
				if fh.Filename == "" {
					continue
				}
				in.Files[key] = append(in.Files[key], fileInput(fh))
			}
		}
	}
	return in, cleanup, nil
}

func fileInput(fh *multipart.FileHeader) service.FileInput {
	return service.FileInput{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

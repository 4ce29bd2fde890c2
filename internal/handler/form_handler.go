package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aDarkMaker/JoinUs/internal/render"
	"github.com/aDarkMaker/JoinUs/internal/service"
)

type FormHandler struct {
	svc    *service.FormService
	logger *slog.Logger
}

func NewFormHandler(svc *service.FormService, logger *slog.Logger) *FormHandler {
	return &FormHandler{svc: svc, logger: logger}
}

// Config serves the form configuration the widget renders from.
func (h *FormHandler) Config(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Get()
	if errors.Is(err, service.ErrFormNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// Page renders the form on the server. Query parameters pre-fill answers.
func (h *FormHandler) Page(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Get()
	if errors.Is(err, service.ErrFormNotFound) {
		http.Error(w, "form not configured", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("load form", "error", err)
		http.Error(w, "form unavailable", http.StatusInternalServerError)
		return
	}

	values := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			values[k] = vs[0]
		}
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, form, values); err != nil {
		h.logger.Error("render form", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

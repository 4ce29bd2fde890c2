package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aDarkMaker/JoinUs/internal/service"
)

type ExportHandler struct {
	svc    *service.ExportService
	logger *slog.Logger
}

func NewExportHandler(svc *service.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// Export sends the workbook and per-person attachment archives as one zip.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Build(r.Context())
	if err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(exp.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(exp.Data)
}

package handler

import (
	"net/http"

	"github.com/aDarkMaker/JoinUs/internal/service"
)

type DashboardHandler struct {
	svc *service.SearchService
}

func NewDashboardHandler(svc *service.SearchService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

package handler

import (
	"net/http"
)

type HealthHandler struct {
	store string
}

func NewHealthHandler(store string) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "store": h.store})
}

package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type handler struct {
	renderer Renderer
	examples map[string]string
	log      *zap.Logger
}

type previewRequest struct {
	Code string `json:"code"`
}

type previewResponse struct {
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

type exampleResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (h *handler) page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(HTMLPage))
}

// preview renders the posted code. Render failures are 422 with the message
// in the error field.
func (h *handler) preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req previewRequest
	body := http.MaxBytesReader(w, r.Body, 2*MaxSourceBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.log.Debug("invalid preview request", zap.Error(err))
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	html, err := h.renderer.Render(req.Code)
	if err != nil {
		status := http.StatusInternalServerError
		if IsRenderError(err) {
			status = http.StatusUnprocessableEntity
		}
		h.log.Info("render failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, previewResponse{Error: err.Error()})
		return
	}

	h.log.Debug("rendered preview", zap.Int("source_bytes", len(req.Code)), zap.Int("html_bytes", len(html)))
	writeJSON(w, http.StatusOK, previewResponse{HTML: html})
}

func (h *handler) example(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	code, ok := h.examples[name]
	if !ok {
		http.Error(w, "Unknown example", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, exampleResponse{Name: name, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"insulight/internal/csvdata"
	"insulight/internal/identity"
	"insulight/internal/upload"
)

// PreviewHandler serves POST /upload/preview: parse and normalize a file
// without touching the completion service, so the caller can review the
// readings before requesting insights.
type PreviewHandler struct{}

func NewPreviewHandler() *PreviewHandler {
	return &PreviewHandler{}
}

type previewRequest struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

type previewResponse struct {
	Count      int               `json:"count"`
	Readings   []csvdata.Reading `json:"readings"`
	Anonymized string            `json:"anonymized"`
}

func (h *PreviewHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := identity.UserFrom(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var in previewRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if in.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	session := upload.NewSession()
	if err := session.SelectFile(in.FileName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := session.Parse(in.Content); err != nil {
		var verr *csvdata.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings := session.Readings()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(previewResponse{
		Count:      len(readings),
		Readings:   readings,
		Anonymized: csvdata.Anonymize(readings),
	})
}

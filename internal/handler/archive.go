package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"insulight/internal/identity"
	"insulight/internal/insight/archive"
	"insulight/internal/insight/navigator"
	"insulight/internal/render"
)

// ArchiveHandler serves the read side: the per-user insight history and the
// rendered detail view.
type ArchiveHandler struct {
	store archive.Store
}

func NewArchiveHandler(store archive.Store) *ArchiveHandler {
	return &ArchiveHandler{store: store}
}

// HandleList serves GET /insights. Optional start/end query parameters
// restrict the read to records whose data timeframe overlaps the window.
// Without explicit bounds, span (days) and shift (day offset) select a
// sliding window ending today.
func (h *ArchiveHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := identity.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var bounds archive.Bounds
	if raw := strings.TrimSpace(r.URL.Query().Get("start")); raw != "" {
		t, err := parseBound(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		bounds.Start = &t
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end")); raw != "" {
		t, err := parseBound(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be an RFC3339 timestamp or YYYY-MM-DD date")
			return
		}
		bounds.End = &t
	}
	if bounds.Start != nil && bounds.End != nil && bounds.Start.After(*bounds.End) {
		writeError(w, http.StatusBadRequest, "start must not be after end")
		return
	}
	if bounds.Start == nil && bounds.End == nil {
		if rawSpan := strings.TrimSpace(r.URL.Query().Get("span")); rawSpan != "" {
			span, err := strconv.Atoi(rawSpan)
			if err != nil || span < 1 {
				writeError(w, http.StatusBadRequest, "span must be a positive number of days")
				return
			}
			nav := navigator.New()
			nav.SetSpan(span)
			if rawShift := strings.TrimSpace(r.URL.Query().Get("shift")); rawShift != "" {
				shift, err := strconv.Atoi(rawShift)
				if err != nil {
					writeError(w, http.StatusBadRequest, "shift must be a number of days")
					return
				}
				nav.Shift(shift)
			}
			win := nav.Window()
			bounds.Start, bounds.End = &win.Start, &win.End
		}
	}

	records, err := h.store.ListByUser(r.Context(), user.ID, bounds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"insights": records})
}

// HandleHTML serves GET /insights/html?id=... with the stored narrative
// rendered as sanitized HTML.
func (h *ArchiveHandler) HandleHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := identity.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	record, found, err := h.store.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load insight")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "insight not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(render.InsightHTML(record.Insights)))
}

func parseBound(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

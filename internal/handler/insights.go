package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"insulight/internal/identity"
	"insulight/internal/insight"
	"insulight/internal/llm"
	"insulight/internal/profile"
)

// responseCacheTTL matches the private max-age the endpoint advertises.
const responseCacheTTL = time.Hour

// InsightsHandler serves POST /generate-insights.
type InsightsHandler struct {
	orchestrator *insight.Orchestrator
	profiles     profile.Store
	respCache    *expirable.LRU[string, string]
}

func NewInsightsHandler(orchestrator *insight.Orchestrator, profiles profile.Store) *InsightsHandler {
	return &InsightsHandler{
		orchestrator: orchestrator,
		profiles:     profiles,
		respCache:    expirable.NewLRU[string, string](256, nil, responseCacheTTL),
	}
}

type generateRequest struct {
	CSVData     string          `json:"csvData"`
	TargetRange json.RawMessage `json:"targetRange"`
	FileName    string          `json:"fileName"`
}

type rangePayload struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

func (h *InsightsHandler) HandleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, ok := identity.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var in generateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(in.CSVData) == "" {
		writeError(w, http.StatusBadRequest, insight.ErrMissingData.Error())
		return
	}
	rng, ok := h.resolveRange(r, user.ID, in.TargetRange)
	if !ok {
		writeError(w, http.StatusBadRequest, insight.ErrMissingRange.Error())
		return
	}

	// Identical re-submissions within the cache window are answered without
	// another completion call.
	key := cacheKey(user.ID, in.CSVData, rng)
	if cached, ok := h.respCache.Get(key); ok {
		writeInsights(w, cached, "")
		return
	}

	result, err := h.orchestrator.Generate(r.Context(), insight.GenerateInput{
		UserID:      user.ID,
		CSVData:     in.CSVData,
		TargetRange: rng,
		SourceLabel: in.FileName,
	})
	if err != nil {
		status, msg := classifyGenerateErr(err)
		writeError(w, status, msg)
		return
	}

	warning := ""
	if result.PersistErr != nil {
		warning = "Insights were generated but could not be saved to your history."
	} else {
		h.respCache.Add(key, result.Insights)
	}
	writeInsights(w, result.Insights, warning)
}

// resolveRange merges the request's target range over the stored profile
// range. A missing or non-object targetRange is a caller error; absent
// fields fall back to the profile, then to the defaults.
func (h *InsightsHandler) resolveRange(r *http.Request, userID string, raw json.RawMessage) (profile.TargetRange, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return profile.TargetRange{}, false
	}
	var in rangePayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return profile.TargetRange{}, false
	}

	rng := profile.DefaultRange()
	if stored, ok, err := h.profiles.TargetRange(r.Context(), userID); err == nil && ok && stored.Valid() {
		rng = stored
	}
	if in.Min != nil {
		rng.Min = *in.Min
	}
	if in.Max != nil {
		rng.Max = *in.Max
	}
	return rng, true
}

func classifyGenerateErr(err error) (int, string) {
	var serr *llm.StatusError
	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, insight.ErrMissingData),
		errors.Is(err, insight.ErrMissingRange),
		errors.Is(err, insight.ErrInvalidRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, llm.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "API quota exceeded. Please try again later."
	case errors.Is(err, insight.ErrTimeout):
		return http.StatusGatewayTimeout, "Insight generation timed out. Please try again."
	case errors.As(err, &serr):
		return serr.Status, serr.Message
	default:
		log.Printf("generate insights failed: %v", err)
		return http.StatusInternalServerError, "Failed to generate insights"
	}
}

func cacheKey(userID, csvData string, rng profile.TargetRange) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%d\x00%s", userID, rng.Min, rng.Max, csvData)))
	return hex.EncodeToString(sum[:])
}

func writeInsights(w http.ResponseWriter, insights, warning string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	body := map[string]string{"insights": insights}
	if warning != "" {
		body["warning"] = warning
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

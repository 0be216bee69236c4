package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"insulight/internal/handler"
	"insulight/internal/identity"
	"insulight/internal/insight"
	"insulight/internal/insight/archive"
	"insulight/internal/llm"
	"insulight/internal/profile"
	"insulight/internal/server"
)

const anonCSV = "timestamp,glucose_level,insulin_value\n" +
	"2024-01-03T08:00:00,120,2.5\n" +
	"2024-01-01T08:00:00,95,0\n"

type env struct {
	mux      http.Handler
	fake     *llm.FakeClient
	store    *archive.MemoryStore
	profiles *profile.MemoryStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	verifier := identity.NewStaticVerifier()
	verifier.Add("tok-alice", identity.User{ID: "alice"})

	fake := llm.NewFakeClient()
	store := archive.NewMemoryStore()
	profiles := profile.NewMemoryStore()
	orchestrator := insight.NewOrchestrator(fake, store, nil, time.Minute)

	mux := server.NewMux(
		verifier,
		handler.NewInsightsHandler(orchestrator, profiles),
		handler.NewArchiveHandler(store),
		handler.NewPreviewHandler(),
	)
	return &env{mux: mux, fake: fake, store: store, profiles: profiles}
}

func (e *env) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func generateBody(csv string) string {
	b, _ := json.Marshal(map[string]any{
		"csvData":     csv,
		"targetRange": map[string]int{"min": 70, "max": 180},
		"fileName":    "export.csv",
	})
	return string(b)
}

func TestGenerateInsights_UnauthenticatedScenarioC(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/generate-insights", "", generateBody(anonCSV))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Unauthorized")
	require.Equal(t, 0, e.fake.Calls(), "no completion call may happen")

	records, _ := e.store.ListByUser(context.Background(), "alice", archive.Bounds{})
	require.Empty(t, records, "nothing may be persisted")
}

func TestGenerateInsights_BadToken(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/generate-insights", "wrong", generateBody(anonCSV))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 0, e.fake.Calls())
}

func TestGenerateInsights_SuccessScenarioD(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", generateBody(anonCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body["insights"])

	records, _ := e.store.ListByUser(context.Background(), "alice", archive.Bounds{})
	require.Len(t, records, 1)
	require.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), records[0].DataTimeframeStart)
	require.Equal(t, time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), records[0].DataTimeframeEnd)
	require.Equal(t, "Insights from export.csv", records[0].Title)
}

func TestGenerateInsights_MissingCSVData(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", `{"targetRange":{"min":70,"max":180}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "CSV data is required")
	require.Equal(t, 0, e.fake.Calls())
}

func TestGenerateInsights_MissingTargetRange(t *testing.T) {
	e := newEnv(t)
	body, _ := json.Marshal(map[string]any{"csvData": anonCSV})
	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Target range is required")
	require.Equal(t, 0, e.fake.Calls())
}

func TestGenerateInsights_NonObjectTargetRange(t *testing.T) {
	e := newEnv(t)
	body, _ := json.Marshal(map[string]any{"csvData": anonCSV, "targetRange": "70-180"})
	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Target range is required")
}

func TestGenerateInsights_ProfileRangeUsedWhenBodyOmitsFields(t *testing.T) {
	e := newEnv(t)
	e.profiles.Put("alice", profile.TargetRange{Min: 80, Max: 160})

	body, _ := json.Marshal(map[string]any{"csvData": anonCSV, "targetRange": map[string]int{}})
	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	system, _ := e.fake.LastPrompt()
	require.Contains(t, system, "80 mg/dL to 160 mg/dL")
}

func TestGenerateInsights_DefaultsWhenNoProfile(t *testing.T) {
	e := newEnv(t)
	body, _ := json.Marshal(map[string]any{"csvData": anonCSV, "targetRange": map[string]int{}})
	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	system, _ := e.fake.LastPrompt()
	require.Contains(t, system, "70 mg/dL to 180 mg/dL")
}

func TestGenerateInsights_QuotaMapsToTryAgainLater(t *testing.T) {
	e := newEnv(t)
	e.fake.Err = llm.ErrQuotaExceeded

	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", generateBody(anonCSV))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Contains(t, rec.Body.String(), "API quota exceeded. Please try again later.")
}

func TestGenerateInsights_ProviderStatusSurfaced(t *testing.T) {
	e := newEnv(t)
	e.fake.Err = &llm.StatusError{Status: http.StatusServiceUnavailable, Message: "model overloaded"}

	rec := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", generateBody(anonCSV))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "model overloaded")
}

func TestGenerateInsights_IdenticalResubmissionServedFromCache(t *testing.T) {
	e := newEnv(t)

	first := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", generateBody(anonCSV))
	require.Equal(t, http.StatusOK, first.Code)
	second := e.do(t, http.MethodPost, "/generate-insights", "tok-alice", generateBody(anonCSV))
	require.Equal(t, http.StatusOK, second.Code)

	require.Equal(t, 1, e.fake.Calls(), "identical payload within the cache window must not hit the provider again")
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestListInsights_WindowBounds(t *testing.T) {
	e := newEnv(t)
	seedRecord := func(startDay, endDay int) {
		_, err := e.store.Append(context.Background(), archive.Record{
			UserID:             "alice",
			Insights:           "n",
			DataTimeframeStart: time.Date(2024, 1, startDay, 0, 0, 0, 0, time.UTC),
			DataTimeframeEnd:   time.Date(2024, 1, endDay, 0, 0, 0, 0, time.UTC),
			CreatedAt:          time.Date(2024, 2, startDay, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	seedRecord(1, 2)
	seedRecord(10, 12)

	rec := e.do(t, http.MethodGet, "/insights?start=2024-01-09&end=2024-01-11", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Insights []archive.Record `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Insights, 1)
	require.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), body.Insights[0].DataTimeframeStart)
}

func TestListInsights_SpanWindow(t *testing.T) {
	e := newEnv(t)
	now := time.Now().UTC()
	appendRecord := func(start, end time.Time) {
		_, err := e.store.Append(context.Background(), archive.Record{
			UserID:             "alice",
			Insights:           "n",
			DataTimeframeStart: start,
			DataTimeframeEnd:   end,
		})
		require.NoError(t, err)
	}
	appendRecord(now.AddDate(0, 0, -2), now.AddDate(0, 0, -1))
	appendRecord(now.AddDate(0, 0, -40), now.AddDate(0, 0, -38))

	rec := e.do(t, http.MethodGet, "/insights?span=7", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Insights []archive.Record `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Insights, 1, "only the record inside the last 7 days is in the window")

	rec = e.do(t, http.MethodGet, "/insights?span=7&shift=-36", "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Insights, 1, "a shifted window picks up the older record")

	rec = e.do(t, http.MethodGet, "/insights?span=zero", "tok-alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInsights_Unauthenticated(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/insights", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListInsights_InvalidBounds(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/insights?start=notadate", "tok-alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/insights?start=2024-02-01&end=2024-01-01", "tok-alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsightHTML_RenderedAndScoped(t *testing.T) {
	e := newEnv(t)
	stored, err := e.store.Append(context.Background(), archive.Record{
		UserID:   "alice",
		Insights: "## Summary\n\n<script>alert(1)</script>",
	})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/insights/html?id="+stored.ID, "tok-alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<h2>Summary</h2>")
	require.NotContains(t, rec.Body.String(), "<script>")

	rec = e.do(t, http.MethodGet, "/insights/html?id=unknown", "tok-alice", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreview_ScenarioA(t *testing.T) {
	e := newEnv(t)
	body, _ := json.Marshal(map[string]string{
		"fileName": "export.csv",
		"content": "Timestamp (YYYY-MM-DDThh:mm:ss),Glucose Value (mg/dL),Insulin Value (u)\n" +
			"\"2024-01-01T08:00:00\",\"120\",\"2.5\"\n",
	})
	rec := e.do(t, http.MethodPost, "/upload/preview", "tok-alice", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Count    int `json:"count"`
		Readings []struct {
			Timestamp    string  `json:"timestamp"`
			GlucoseLevel float64 `json:"glucose_level"`
			InsulinValue float64 `json:"insulin_value"`
		} `json:"readings"`
		Anonymized string `json:"anonymized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	require.Equal(t, "2024-01-01T08:00:00", out.Readings[0].Timestamp)
	require.Equal(t, 120.0, out.Readings[0].GlucoseLevel)
	require.Equal(t, 2.5, out.Readings[0].InsulinValue)
	require.Contains(t, out.Anonymized, "timestamp,glucose_level,insulin_value")
}

func TestPreview_MissingHeaderScenarioB(t *testing.T) {
	e := newEnv(t)
	body, _ := json.Marshal(map[string]string{
		"fileName": "export.csv",
		"content":  "Timestamp (YYYY-MM-DDThh:mm:ss),Glucose Value (mg/dL)\n\"2024-01-01T08:00:00\",\"120\"\n",
	})
	rec := e.do(t, http.MethodPost, "/upload/preview", "tok-alice", string(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Insulin Value (u)")
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

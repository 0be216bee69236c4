package server

import (
	"net/http"

	"insulight/internal/handler"
	"insulight/internal/identity"
	"insulight/internal/middleware"
)

func NewMux(
	verifier identity.Verifier,
	insightsHandler *handler.InsightsHandler,
	archiveHandler *handler.ArchiveHandler,
	previewHandler *handler.PreviewHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Authenticated API
	mux.Handle("/generate-insights", middleware.RequireSession(verifier, http.HandlerFunc(insightsHandler.HandleGenerateInsights)))
	mux.Handle("/insights", middleware.RequireSession(verifier, http.HandlerFunc(archiveHandler.HandleList)))
	mux.Handle("/insights/html", middleware.RequireSession(verifier, http.HandlerFunc(archiveHandler.HandleHTML)))
	mux.Handle("/upload/preview", middleware.RequireSession(verifier, http.HandlerFunc(previewHandler.HandlePreview)))

	// Liveness
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}

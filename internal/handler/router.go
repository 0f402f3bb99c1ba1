package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/jamjam-ai/jamjam/internal/handler/chat"
	streamHandler "github.com/jamjam-ai/jamjam/internal/handler/stream"
	"github.com/jamjam-ai/jamjam/pkg/utils"
)

// NewRouter wires HTTP routes to core services. stream may be nil when the
// agent is not configured; the chat handler degrades on its own.
func NewRouter(chat *chatHandler.Handler, stream *streamHandler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		chat.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			message := r.URL.Query().Get("message")

			if stream == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "streaming unavailable")
				return
			}
			if message == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := stream.HandleStreamRequest(r.Context(), w, r, sessionID, message); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

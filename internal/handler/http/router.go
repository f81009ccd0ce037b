package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(chat *ChatHandler, search *SearchHandler, health *HealthHandler) *mux.Router {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1/chat").Subrouter()
	v1.HandleFunc("/sessions", chat.PostSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions", chat.ListSessions).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{session_id}", chat.GetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{session_id}", chat.DeleteSession).Methods(http.MethodDelete)
	v1.HandleFunc("/sessions/{session_id}/messages", chat.PostMessage).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{session_id}/messages", chat.GetMessages).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{session_id}/summary", chat.GetSummary).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{session_id}/context", chat.DeleteContext).Methods(http.MethodDelete)
	v1.HandleFunc("/ask-from-selection", chat.PostSelection).Methods(http.MethodPost)

	r.HandleFunc("/api/search", search.Search).Methods(http.MethodGet)
	r.HandleFunc("/api/search/", search.Search).Methods(http.MethodGet)

	r.HandleFunc("/health", health.Live).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

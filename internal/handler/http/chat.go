package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/service/chat"
)

const (
	defaultContextWindow = 5
	maxBodyBytes         = 1 << 20
)

type messageRequest struct {
	Content       string `json:"content"`
	ContextWindow *int   `json:"context_window"`
}

func (m messageRequest) window() int {
	if m.ContextWindow == nil {
		return defaultContextWindow
	}
	return *m.ContextWindow
}

type ChatHandler struct {
	chat *chat.Service
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	result, err := h.chat.HandleMessage(r.Context(), chat.Request{
		Origin:        origin(r),
		SessionId:     sessionId,
		Content:       req.Content,
		ContextWindow: req.window(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) PostSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.Admit(origin(r)); err != nil {
		writeError(w, r, err)
		return
	}

	req, ok := decodeMessage(w, r)
	if !ok {
		return
	}

	result, err := h.chat.AnswerFromSelection(r.Context(), chat.SelectionRequest{
		Content:       req.Content,
		ContextWindow: req.window(),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) PostSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.CreateSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID(),
		"created_at": session.CreatedAt().Format(time.RFC3339),
	})
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.chat.ListSessions(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": ids,
		"count":    len(ids),
	})
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.Session(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID(),
		"created_at": session.CreatedAt().Format(time.RFC3339),
	})
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	if err := h.chat.DeleteSession(r.Context(), sessionId); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionId,
		"deleted":    true,
	})
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	msgs, err := h.chat.History(r.Context(), sessionId)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if msgs == nil {
		msgs = []conversation.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages":      msgs,
		"session_id":    sessionId,
		"message_count": len(msgs),
	})
}

func (h *ChatHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.chat.Summary(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	if summary.Messages == nil {
		summary.Messages = []conversation.Message{}
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *ChatHandler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	sessionId := mux.Vars(r)["session_id"]

	if err := h.chat.Clear(r.Context(), sessionId); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionId,
		"cleared":    true,
	})
}

func decodeMessage(w http.ResponseWriter, r *http.Request) (messageRequest, bool) {
	var req messageRequest

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read body")
		return req, false
	}
	defer r.Body.Close()

	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, r, fault.New(fault.KindInvalidInput, "http.decode", "invalid json"))
		return req, false
	}

	return req, true
}

func NewChatHandler(c *chat.Service) *ChatHandler {
	return &ChatHandler{chat: c}
}

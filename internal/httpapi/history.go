package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	"aichat/internal/store"
)

type saveHistoryRequest struct {
	ChatID    string          `json:"chatId"`
	Title     string          `json:"title"`
	Timestamp string          `json:"timestamp"`
	Messages  []store.Message `json:"messages"`
}

// HistoryGet returns one full chat when chatId is given, otherwise the
// summary listing.
func (h Handler) HistoryGet(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatID := r.URL.Query().Get("chatId")
	if chatID != "" {
		chat, err := h.history.Get(r.Context(), user.ID, chatID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Chat not found")
			return
		}
		if err != nil {
			log.Printf("get chat failed: user_id=%s chat_id=%s err=%v", user.ID, chatID, err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch history")
			return
		}
		writeJSON(w, http.StatusOK, chat)
		return
	}

	summaries, err := h.history.ListRecent(r.Context(), user.ID)
	if err != nil {
		log.Printf("list history failed: user_id=%s err=%v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HistoryPost upserts a chat unless an accepted save for the same chat id
// landed within the debounce window, in which case the write is skipped and
// reported as debounced.
func (h Handler) HistoryPost(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req saveHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ChatID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: chatId and title")
		return
	}

	if !h.saves.ShouldPersist(req.ChatID, time.Now()) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "debounced": true})
		return
	}

	chat := store.ChatSession{
		ID:        req.ChatID,
		Title:     req.Title,
		Timestamp: req.Timestamp,
		Messages:  req.Messages,
	}
	if err := h.history.Upsert(r.Context(), user.ID, chat); err != nil {
		log.Printf("save chat failed: user_id=%s chat_id=%s err=%v", user.ID, req.ChatID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h Handler) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		writeError(w, http.StatusBadRequest, "Missing chatId parameter")
		return
	}

	if err := h.history.Delete(r.Context(), user.ID, chatID); err != nil {
		log.Printf("delete chat failed: user_id=%s chat_id=%s err=%v", user.ID, chatID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete chat")
		return
	}
	h.saves.Forget(chatID)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

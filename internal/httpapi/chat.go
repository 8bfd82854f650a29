package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"aichat/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	Model     string        `json:"model"`
	WebSearch bool          `json:"webSearch"`
}

type chatResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Chat sends the last user message to the provider the requested model routes
// to and returns the generated reply. The response carries the model that
// actually answered, which differs from the requested one after a fallback.
func (h Handler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid messages array")
		return
	}

	prompt := strings.TrimSpace(req.Messages[len(req.Messages)-1].Content)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "Empty message content")
		return
	}

	log.Printf("chat request: user=%s model=%s message_len=%d web_search=%t", user.Email, req.Model, len(prompt), req.WebSearch)

	completion, err := h.models.Dispatch(r.Context(), req.Model, prompt)
	if errors.Is(err, llm.ErrAllProvidersUnavailable) {
		writeError(w, http.StatusInternalServerError, "Both AI models are unavailable. Please try again later.")
		return
	}
	if err != nil {
		log.Printf("chat dispatch failed: user=%s model=%s err=%v", user.Email, req.Model, err)
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Role:    "assistant",
		Content: completion.Content,
		Model:   completion.Model,
	})
}

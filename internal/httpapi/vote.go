package httpapi

import (
	"log"
	"net/http"

	"aichat/internal/store"
)

type castVoteRequest struct {
	MessageID      string `json:"messageId"`
	ChatID         string `json:"chatId"`
	Vote           string `json:"vote"`
	MessageContent string `json:"messageContent,omitempty"`
	Model          string `json:"model,omitempty"`
}

// VotePost casts a vote with toggle semantics: repeating the vote already on
// record removes it.
func (h Handler) VotePost(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req castVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.MessageID == "" || req.ChatID == "" || req.Vote == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: messageId, chatId, vote")
		return
	}
	if !store.ValidVoteValue(req.Vote) {
		writeError(w, http.StatusBadRequest, `Invalid vote. Must be "up" or "down"`)
		return
	}

	action, err := h.votes.Cast(r.Context(), store.Vote{
		MessageID:      req.MessageID,
		ChatID:         req.ChatID,
		UserID:         user.ID,
		Value:          req.Vote,
		MessageContent: req.MessageContent,
		Model:          req.Model,
	})
	if err != nil {
		log.Printf("cast vote failed: user_id=%s message_id=%s err=%v", user.ID, req.MessageID, err)
		writeError(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	var resultingVote any
	if action != store.VoteRemoved {
		resultingVote = req.Vote
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  action,
		"vote":    resultingVote,
	})
}

// VoteGet fetches either a single message's vote or all of the caller's
// votes for a chat.
func (h Handler) VoteGet(w http.ResponseWriter, r *http.Request) {
	user, ok := sessionUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if messageID := r.URL.Query().Get("messageId"); messageID != "" {
		vote, exists, err := h.votes.Get(r.Context(), user.ID, messageID)
		if err != nil {
			log.Printf("get vote failed: user_id=%s message_id=%s err=%v", user.ID, messageID, err)
			writeError(w, http.StatusInternalServerError, "Failed to get votes")
			return
		}

		var value any
		if exists {
			value = vote.Value
		}
		writeJSON(w, http.StatusOK, map[string]any{"vote": value})
		return
	}

	if chatID := r.URL.Query().Get("chatId"); chatID != "" {
		votes, err := h.votes.ListForChat(r.Context(), user.ID, chatID)
		if err != nil {
			log.Printf("list votes failed: user_id=%s chat_id=%s err=%v", user.ID, chatID, err)
			writeError(w, http.StatusInternalServerError, "Failed to get votes")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"votes": votes})
		return
	}

	writeError(w, http.StatusBadRequest, "Missing messageId or chatId")
}

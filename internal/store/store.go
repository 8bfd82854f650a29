package store

import (
	"context"
	"errors"
)

// HistoryLimit bounds each user's chat collection. Inserting past the limit
// evicts the oldest chat by insertion order.
const HistoryLimit = 15

var ErrNotFound = errors.New("chat not found")

type Message struct {
	ID            string `json:"id"`
	Role          string `json:"role"`
	Content       string `json:"content"`
	Timestamp     string `json:"timestamp"`
	AttachmentURL string `json:"attachmentUrl,omitempty"`
	Vote          string `json:"vote,omitempty"`
	Model         string `json:"model,omitempty"`
}

type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Timestamp string    `json:"timestamp"`
	Messages  []Message `json:"messages"`
	OwnerID   string    `json:"userId"`
}

// ChatSummary is the listing shape: message bodies are excluded so a history
// listing stays small no matter how long the transcripts are.
type ChatSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// HistoryStore maps a user to a bounded, ordered collection of chat sessions.
// Upsert fully replaces title/timestamp/messages for an existing id and never
// partially patches. Delete is idempotent.
type HistoryStore interface {
	Upsert(ctx context.Context, userID string, chat ChatSession) error
	Get(ctx context.Context, userID, chatID string) (ChatSession, error)
	ListRecent(ctx context.Context, userID string) ([]ChatSummary, error)
	Delete(ctx context.Context, userID, chatID string) error
}

const (
	VoteUp   = "up"
	VoteDown = "down"
)

type Vote struct {
	MessageID      string `json:"messageId"`
	ChatID         string `json:"chatId"`
	UserID         string `json:"userId"`
	Value          string `json:"vote"`
	Timestamp      string `json:"timestamp"`
	MessageContent string `json:"messageContent,omitempty"`
	Model          string `json:"model,omitempty"`
}

type VoteAction string

const (
	VoteCreated VoteAction = "created"
	VoteUpdated VoteAction = "updated"
	VoteRemoved VoteAction = "removed"
)

// VoteStore keeps at most one vote per (user, message). Casting the value
// already on record removes it entirely; a toggled-off vote is never stored
// as "none".
type VoteStore interface {
	Cast(ctx context.Context, vote Vote) (VoteAction, error)
	Get(ctx context.Context, userID, messageID string) (Vote, bool, error)
	ListForChat(ctx context.Context, userID, chatID string) ([]Vote, error)
}

func ValidVoteValue(value string) bool {
	return value == VoteUp || value == VoteDown
}

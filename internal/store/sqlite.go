package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteHistory persists chats through database/sql and is the durable swap
// for MemoryHistory. It works against both a local sqlite file and a remote
// libsql database.
type SQLiteHistory struct {
	db *sql.DB
}

func NewSQLiteHistory(db *sql.DB) SQLiteHistory {
	return SQLiteHistory{db: db}
}

func (s SQLiteHistory) Upsert(ctx context.Context, userID string, chat ChatSession) error {
	chat.OwnerID = userID
	if chat.Timestamp == "" {
		chat.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(chat.Messages)
	if err != nil {
		return fmt.Errorf("encode chat messages: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert chat: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO chats (user_id, id, title, timestamp, messages)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, id) DO UPDATE SET
  title = excluded.title,
  timestamp = excluded.timestamp,
  messages = excluded.messages;
`, userID, chat.ID, chat.Title, chat.Timestamp, string(payload)); err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	// Conflict updates keep their original rowid, so rowid order is insertion
	// order and the eviction below always removes the oldest chats first.
	if _, err := tx.ExecContext(ctx, `
DELETE FROM chats
WHERE user_id = ? AND rowid NOT IN (
  SELECT rowid FROM chats WHERE user_id = ? ORDER BY rowid DESC LIMIT ?
);
`, userID, userID, HistoryLimit); err != nil {
		return fmt.Errorf("evict old chats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert chat: %w", err)
	}
	return nil
}

func (s SQLiteHistory) Get(ctx context.Context, userID, chatID string) (ChatSession, error) {
	var chat ChatSession
	var payload string

	err := s.db.QueryRowContext(ctx, `
SELECT id, title, timestamp, messages
FROM chats
WHERE user_id = ? AND id = ?
LIMIT 1;
`, userID, chatID).Scan(&chat.ID, &chat.Title, &chat.Timestamp, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ChatSession{}, ErrNotFound
	}
	if err != nil {
		return ChatSession{}, fmt.Errorf("get chat: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &chat.Messages); err != nil {
		return ChatSession{}, fmt.Errorf("decode chat messages: %w", err)
	}
	chat.OwnerID = userID
	return chat, nil
}

func (s SQLiteHistory) ListRecent(ctx context.Context, userID string) ([]ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, timestamp
FROM chats
WHERE user_id = ?
ORDER BY rowid DESC
LIMIT ?;
`, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := make([]ChatSummary, 0, HistoryLimit)
	for rows.Next() {
		var summary ChatSummary
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat summary: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

func (s SQLiteHistory) Delete(ctx context.Context, userID, chatID string) error {
	if _, err := s.db.ExecContext(ctx, `
DELETE FROM chats WHERE user_id = ? AND id = ?;
`, userID, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

type SQLiteVotes struct {
	db *sql.DB
}

func NewSQLiteVotes(db *sql.DB) SQLiteVotes {
	return SQLiteVotes{db: db}
}

func (s SQLiteVotes) Cast(ctx context.Context, vote Vote) (VoteAction, error) {
	if vote.Timestamp == "" {
		vote.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin cast vote: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `
SELECT vote FROM votes WHERE user_id = ? AND message_id = ? LIMIT 1;
`, vote.UserID, vote.MessageID).Scan(&existing)

	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return "", fmt.Errorf("read existing vote: %w", err)
	}

	if exists && existing == vote.Value {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM votes WHERE user_id = ? AND message_id = ?;
`, vote.UserID, vote.MessageID); err != nil {
			return "", fmt.Errorf("remove vote: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("commit remove vote: %w", err)
		}
		return VoteRemoved, nil
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO votes (user_id, message_id, chat_id, vote, timestamp, message_content, model)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id, message_id) DO UPDATE SET
  chat_id = excluded.chat_id,
  vote = excluded.vote,
  timestamp = excluded.timestamp,
  message_content = excluded.message_content,
  model = excluded.model;
`, vote.UserID, vote.MessageID, vote.ChatID, vote.Value, vote.Timestamp, vote.MessageContent, vote.Model); err != nil {
		return "", fmt.Errorf("write vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit cast vote: %w", err)
	}

	if exists {
		return VoteUpdated, nil
	}
	return VoteCreated, nil
}

func (s SQLiteVotes) Get(ctx context.Context, userID, messageID string) (Vote, bool, error) {
	var vote Vote
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, message_id, chat_id, vote, timestamp, message_content, model
FROM votes
WHERE user_id = ? AND message_id = ?
LIMIT 1;
`, userID, messageID).Scan(
		&vote.UserID,
		&vote.MessageID,
		&vote.ChatID,
		&vote.Value,
		&vote.Timestamp,
		&vote.MessageContent,
		&vote.Model,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Vote{}, false, nil
	}
	if err != nil {
		return Vote{}, false, fmt.Errorf("get vote: %w", err)
	}
	return vote, true, nil
}

func (s SQLiteVotes) ListForChat(ctx context.Context, userID, chatID string) ([]Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT user_id, message_id, chat_id, vote, timestamp, message_content, model
FROM votes
WHERE user_id = ? AND chat_id = ?;
`, userID, chatID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	out := make([]Vote, 0, 8)
	for rows.Next() {
		var vote Vote
		if err := rows.Scan(
			&vote.UserID,
			&vote.MessageID,
			&vote.ChatID,
			&vote.Value,
			&vote.Timestamp,
			&vote.MessageContent,
			&vote.Model,
		); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out = append(out, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return out, nil
}

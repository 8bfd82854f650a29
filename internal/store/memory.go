package store

import (
	"context"
	"sync"
	"time"
)

// MemoryHistory is the default process-lifetime backend: a restart discards
// everything it holds.
type MemoryHistory struct {
	mu    sync.Mutex
	chats map[string][]ChatSession
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{chats: make(map[string][]ChatSession)}
}

func (s *MemoryHistory) Upsert(_ context.Context, userID string, chat ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat.OwnerID = userID
	if chat.Timestamp == "" {
		chat.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	history := s.chats[userID]
	for i := range history {
		if history[i].ID == chat.ID {
			history[i].Title = chat.Title
			history[i].Timestamp = chat.Timestamp
			history[i].Messages = chat.Messages
			return nil
		}
	}

	history = append(history, chat)
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	s.chats[userID] = history
	return nil
}

func (s *MemoryHistory) Get(_ context.Context, userID, chatID string) (ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chat := range s.chats[userID] {
		if chat.ID == chatID {
			return chat, nil
		}
	}
	return ChatSession{}, ErrNotFound
}

func (s *MemoryHistory) ListRecent(_ context.Context, userID string) ([]ChatSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.chats[userID]

	// Deduplicate by id, keeping the latest occurrence, before bounding and
	// reversing into newest-first order.
	seen := make(map[string]ChatSummary, len(history))
	order := make([]string, 0, len(history))
	for _, chat := range history {
		if _, ok := seen[chat.ID]; !ok {
			order = append(order, chat.ID)
		}
		seen[chat.ID] = ChatSummary{ID: chat.ID, Title: chat.Title, Timestamp: chat.Timestamp}
	}

	if len(order) > HistoryLimit {
		order = order[len(order)-HistoryLimit:]
	}

	out := make([]ChatSummary, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, seen[order[i]])
	}
	return out, nil
}

func (s *MemoryHistory) Delete(_ context.Context, userID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.chats[userID]
	kept := history[:0]
	for _, chat := range history {
		if chat.ID != chatID {
			kept = append(kept, chat)
		}
	}
	s.chats[userID] = kept
	return nil
}

type voteKey struct {
	userID    string
	messageID string
}

type MemoryVotes struct {
	mu    sync.Mutex
	votes map[voteKey]Vote
}

func NewMemoryVotes() *MemoryVotes {
	return &MemoryVotes{votes: make(map[voteKey]Vote)}
}

func (s *MemoryVotes) Cast(_ context.Context, vote Vote) (VoteAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := voteKey{userID: vote.UserID, messageID: vote.MessageID}
	existing, exists := s.votes[key]

	if exists && existing.Value == vote.Value {
		delete(s.votes, key)
		return VoteRemoved, nil
	}

	if vote.Timestamp == "" {
		vote.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	s.votes[key] = vote

	if exists {
		return VoteUpdated, nil
	}
	return VoteCreated, nil
}

func (s *MemoryVotes) Get(_ context.Context, userID, messageID string) (Vote, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, ok := s.votes[voteKey{userID: userID, messageID: messageID}]
	return vote, ok, nil
}

func (s *MemoryVotes) ListForChat(_ context.Context, userID, chatID string) ([]Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Vote, 0, 8)
	for _, vote := range s.votes {
		if vote.UserID == userID && vote.ChatID == chatID {
			out = append(out, vote)
		}
	}
	return out, nil
}

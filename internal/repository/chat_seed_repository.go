package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/findmyteacher-api/internal/models"
)

// ChatSeedRepository hands out copies of the static chat threads. Each caller
// gets its own message slices, so appends in one session never leak into
// another.
type ChatSeedRepository struct {
	chats []models.Chat
}

// NewChatSeedRepository decodes and validates a JSON array of chats. A nil
// validate falls back to a fresh validator.
func NewChatSeedRepository(raw []byte, validate *validator.Validate) (*ChatSeedRepository, error) {
	var chats []models.Chat
	if err := json.Unmarshal(raw, &chats); err != nil {
		return nil, fmt.Errorf("decode chat seed: %w", err)
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := validateChats(validate, chats); err != nil {
		return nil, err
	}
	return &ChatSeedRepository{chats: chats}, nil
}

// validateChats enforces field rules plus per-thread invariants: unique chat
// ids, unique message ids and non-decreasing timestamps.
func validateChats(validate *validator.Validate, chats []models.Chat) error {
	seenChats := make(map[string]struct{}, len(chats))
	for i := range chats {
		chat := &chats[i]
		if err := validate.Struct(chat); err != nil {
			return fmt.Errorf("invalid chat %q: %w", chat.ID, err)
		}
		if _, dup := seenChats[chat.ID]; dup {
			return fmt.Errorf("duplicate chat id %q", chat.ID)
		}
		seenChats[chat.ID] = struct{}{}

		seenMessages := make(map[string]struct{}, len(chat.Messages))
		for j, msg := range chat.Messages {
			if _, dup := seenMessages[msg.ID]; dup {
				return fmt.Errorf("chat %q: duplicate message id %q", chat.ID, msg.ID)
			}
			seenMessages[msg.ID] = struct{}{}
			if j > 0 && msg.Timestamp.Before(chat.Messages[j-1].Timestamp) {
				return fmt.Errorf("chat %q: message %q is older than the one before it", chat.ID, msg.ID)
			}
		}
	}
	return nil
}

// Chats returns a deep copy of the seeded threads in seed order.
func (r *ChatSeedRepository) Chats(ctx context.Context) ([]models.Chat, error) {
	out := make([]models.Chat, len(r.chats))
	for i, chat := range r.chats {
		out[i] = chat.Clone()
	}
	return out, nil
}

package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ConversationStore persists conversations and messages to PostgreSQL for
// long-term history. It also carries the qualification status column so the
// sub-dialogue state does not need to be re-derived from transcripts.
type ConversationStore struct {
	db db
}

// NewConversationStore creates a new conversation store. A nil database
// yields a nil store; every method on a nil store is a no-op, so callers in
// development mode can run without PostgreSQL.
func NewConversationStore(pool db) *ConversationStore {
	if pool == nil {
		return nil
	}
	return &ConversationStore{db: pool}
}

// EnsureConversation creates the conversation row if it does not exist.
func (s *ConversationStore) EnsureConversation(ctx context.Context, conversationID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if strings.TrimSpace(conversationID) == "" {
		return errors.New("conversation: conversation id is required")
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO conversations (conversation_id, qualification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (conversation_id) DO NOTHING
	`, conversationID, QualificationUnasked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("conversation: failed to ensure conversation: %w", err)
	}
	return nil
}

// AppendMessage persists one transcript message and bumps the conversation's
// activity timestamp.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID, role, content string) error {
	if s == nil || s.db == nil {
		return nil
	}

	if err := s.EnsureConversation(ctx, conversationID); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversation_messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), conversationID, role, content, now)
	if err != nil {
		return fmt.Errorf("conversation: failed to insert message: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE conversations SET last_message_at = $1, updated_at = $1
		WHERE conversation_id = $2
	`, now, conversationID)
	if err != nil {
		return fmt.Errorf("conversation: failed to update activity: %w", err)
	}
	return nil
}

// GetMessages retrieves the ordered transcript for a conversation. A limit
// of zero returns the full transcript; a positive limit returns the most
// recent messages, still in chronological order.
func (s *ConversationStore) GetMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}

	query := `
		SELECT role, content
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	args := []any{conversationID}
	if limit > 0 {
		// Take the newest rows, then flip them back to chronological order.
		query = `
		SELECT role, content
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, fmt.Errorf("conversation: failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if limit > 0 {
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}

// GetQualificationStatus reads the persisted qualification status. An empty
// status is returned when the conversation row does not exist, letting the
// engine fall back to history derivation.
func (s *ConversationStore) GetQualificationStatus(ctx context.Context, conversationID string) (QualificationStatus, error) {
	if s == nil || s.db == nil {
		return "", nil
	}

	var status string
	err := s.db.QueryRow(ctx, `
		SELECT qualification_status FROM conversations WHERE conversation_id = $1
	`, conversationID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("conversation: failed to read qualification status: %w", err)
	}
	return QualificationStatus(status), nil
}

// SetQualificationStatus persists the qualification status for a
// conversation.
func (s *ConversationStore) SetQualificationStatus(ctx context.Context, conversationID string, status QualificationStatus) error {
	if s == nil || s.db == nil {
		return nil
	}

	_, err := s.db.Exec(ctx, `
		UPDATE conversations SET qualification_status = $1, updated_at = $2
		WHERE conversation_id = $3
	`, status, time.Now().UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("conversation: failed to set qualification status: %w", err)
	}
	return nil
}

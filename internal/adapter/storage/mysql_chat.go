package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

// ChatStore persists chat sessions and their messages in MySQL.
type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

func (s *ChatStore) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	session.CreatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (user_id, title, created_at) VALUES (?, ?, ?)`,
		session.UserID, session.Title, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert session id: %w", err)
	}
	return nil
}

func (s *ChatStore) GetSession(ctx context.Context, id int64) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &session, nil
}

func (s *ChatStore) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at
		FROM chat_sessions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *ChatStore) UpdateSessionTitle(ctx context.Context, id int64, title string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("update session title: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// MySQL also reports zero rows for an unchanged title, so only a
		// genuinely missing session is an error.
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChatStore) DeleteSession(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete session messages: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: session %d", domain.ErrNotFound, id)
	}

	return tx.Commit()
}

func (s *ChatStore) AppendMessage(ctx context.Context, message *domain.ChatMessage) error {
	message.CreatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		message.SessionID, string(message.Role), message.Content, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	message.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert message id: %w", err)
	}
	return nil
}

func (s *ChatStore) ListMessages(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (s *ChatStore) GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	message, err := scanMessage(s.db.QueryRowContext(ctx, `
		SELECT id, session_id, role, content, created_at FROM chat_messages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query message: %w", err)
	}
	return message, nil
}

func (s *ChatStore) UpdateMessageContent(ctx context.Context, id int64, content string) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages SET content = ? WHERE id = ?`, content, id); err != nil {
		return fmt.Errorf("update message content: %w", err)
	}
	return nil
}

func scanMessage(row rowScanner) (*domain.ChatMessage, error) {
	var (
		message domain.ChatMessage
		role    string
	)
	err := row.Scan(&message.ID, &message.SessionID, &role, &message.Content, &message.CreatedAt)
	if err != nil {
		return nil, err
	}
	message.Role = domain.MessageRole(role)
	return &message, nil
}

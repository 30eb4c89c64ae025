package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, email, name, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// UpsertUser inserts or refreshes the row keyed by subject. The
// LAST_INSERT_ID(id) trick makes LastInsertId return the existing id on
// the update path too.
func (s *UserStore) UpsertUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (subject, email, name)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), email = VALUES(email), name = VALUES(name)`,
		user.Subject, user.Email, user.Name,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("upsert user id: %w", err)
	}
	return nil
}

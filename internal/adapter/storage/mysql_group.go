package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

// GroupStore persists inventory groups and their memberships in MySQL.
type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func (s *GroupStore) CreateGroup(ctx context.Context, group *domain.InventoryGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_groups (group_name, join_code, created_by)
		VALUES (?, ?, ?)`,
		group.Name, group.JoinCode, group.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	group.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert group id: %w", err)
	}

	for _, userID := range group.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`,
			group.ID, userID,
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}

	return tx.Commit()
}

func (s *GroupStore) GetGroup(ctx context.Context, id int64) (*domain.InventoryGroup, error) {
	group, err := s.scanGroup(s.db.QueryRowContext(ctx, `
		SELECT id, group_name, join_code, created_by, created_at
		FROM inventory_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}

	group.Members, err = s.listMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupStore) FindByJoinCode(ctx context.Context, code string) (*domain.InventoryGroup, error) {
	group, err := s.scanGroup(s.db.QueryRowContext(ctx, `
		SELECT id, group_name, join_code, created_by, created_at
		FROM inventory_groups WHERE join_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group with code %q", domain.ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("query group: %w", err)
	}

	group.Members, err = s.listMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupStore) DeleteGroup(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete group items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("delete group members: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM inventory_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: group %d", domain.ErrNotFound, id)
	}

	return tx.Commit()
}

func (s *GroupStore) ListByMember(ctx context.Context, userID int64) ([]domain.InventoryGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.group_name, g.join_code, g.created_by, g.created_at
		FROM inventory_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query member groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.InventoryGroup
	for rows.Next() {
		group, err := s.scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

func (s *GroupStore) ListWithItemsByMember(ctx context.Context, userID int64) ([]domain.InventoryGroup, error) {
	groups, err := s.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return groups, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items i
		LEFT JOIN categories c ON c.id = i.category_id
		JOIN group_members m ON m.group_id = i.group_id
		WHERE m.user_id = ?
		ORDER BY i.group_id, i.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query member items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[int64][]domain.InventoryItem, len(groups))
	for _, item := range items {
		byGroup[item.GroupID] = append(byGroup[item.GroupID], item)
	}
	for i := range groups {
		groups[i].Items = byGroup[groups[i].ID]
	}
	return groups, nil
}

func (s *GroupStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ? LIMIT 1`,
		groupID, userID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

func (s *GroupStore) AddMember(ctx context.Context, groupID, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *GroupStore) RemoveMember(ctx context.Context, groupID, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func (s *GroupStore) scanGroup(row rowScanner) (*domain.InventoryGroup, error) {
	var group domain.InventoryGroup
	err := row.Scan(&group.ID, &group.Name, &group.JoinCode, &group.CreatedBy, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *GroupStore) listMembers(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

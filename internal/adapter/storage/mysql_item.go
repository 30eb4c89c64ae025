package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

const itemColumns = `
	i.id, i.group_id, i.category_id, COALESCE(c.name, ''), i.name,
	i.quantity, i.kind, i.expiry_date, i.item_condition, i.created_by, i.created_at`

// ItemStore persists inventory items and categories in MySQL.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var (
		item      domain.InventoryItem
		quantity  sql.NullInt64
		kind      string
		expiry    sql.NullTime
		condition sql.NullString
		createdBy sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.GroupID, &item.CategoryID, &item.CategoryName, &item.Name,
		&quantity, &kind, &expiry, &condition, &createdBy, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	if quantity.Valid {
		q := int(quantity.Int64)
		item.Quantity = &q
	}
	item.Kind = domain.ItemKind(kind)
	if expiry.Valid {
		t := expiry.Time
		item.ExpiryDate = &t
	}
	if condition.Valid {
		item.Condition = domain.ItemCondition(condition.String)
	}
	if createdBy.Valid {
		item.CreatedBy = createdBy.Int64
	}
	return &item, nil
}

func (s *ItemStore) GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.id = ?`, id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

func (s *ItemStore) ListByGroup(ctx context.Context, groupID int64) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.group_id = ?
		ORDER BY i.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (s *ItemStore) CreateItem(ctx context.Context, item *domain.InventoryItem) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (group_id, category_id, name, quantity, kind, expiry_date, item_condition, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.GroupID, item.CategoryID, item.Name, nullableInt(item.Quantity), string(item.Kind),
		nullableTime(item.ExpiryDate), nullableString(string(item.Condition)), nullableID(item.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert item id: %w", err)
	}
	return nil
}

func (s *ItemStore) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET category_id = ?, name = ?, quantity = ?, kind = ?, expiry_date = ?, item_condition = ?
		WHERE id = ?`,
		item.CategoryID, item.Name, nullableInt(item.Quantity), string(item.Kind),
		nullableTime(item.ExpiryDate), nullableString(string(item.Condition)), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ReduceQuantity decrements under a row lock so concurrent reduces
// serialize instead of losing updates. The relative `quantity - ?`
// write keeps the decrement correct even against a stale read.
func (s *ItemStore) ReduceQuantity(ctx context.Context, id int64, amount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var quantity sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT quantity FROM inventory_items WHERE id = ? FOR UPDATE`, id,
	).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: item %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("query item quantity: %w", err)
	}

	if !quantity.Valid || quantity.Int64-int64(amount) <= 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE inventory_items SET quantity = quantity - ? WHERE id = ?`, amount, id); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return tx.Commit()
}

func (s *ItemStore) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: item %d", domain.ErrNotFound, id)
	}
	return nil
}

func (s *ItemStore) Search(ctx context.Context, query string) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.name LIKE CONCAT('%', ?, '%') OR c.name LIKE CONCAT('%', ?, '%')
		ORDER BY i.id`, query, query)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

// FindCategoryByName matches case-sensitively; the BINARY cast opts out
// of MySQL's case-insensitive default collation.
func (s *ItemStore) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM categories WHERE BINARY name = ?`, name,
	).Scan(&category.ID, &category.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &category, nil
}

func (s *ItemStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	result, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, category.Name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	category.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert category id: %w", err)
	}
	return nil
}

func collectItems(rows *sql.Rows) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

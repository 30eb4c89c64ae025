package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

// InventoryService owns the item write paths: consumption (quantity
// reduction with a delete-at-zero floor) and construction of new items
// with lazily created categories.
type InventoryService struct {
	items  port.ItemRepository
	groups port.GroupRepository
	log    *zap.Logger
}

func NewInventoryService(items port.ItemRepository, groups port.GroupRepository, log *zap.Logger) *InventoryService {
	return &InventoryService{items: items, groups: groups, log: log}
}

// ReduceItemQuantity is the sole write path for consumption. An item
// with nil quantity is untracked (binary present/absent) and any valid
// reduce deletes it. A tracked quantity reduced to zero or below deletes
// the item; storage never holds a zero or negative quantity. The
// decrement itself is a single atomic repository operation so
// concurrent reduces serialize instead of losing updates.
func (s *InventoryService) ReduceItemQuantity(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: reduce amount must be positive", domain.ErrInvalidArgument)
	}
	return s.items.ReduceQuantity(ctx, id, amount)
}

// AddItem attaches the target group and a resolved category to the item
// and persists it. The category is matched by exact name and created
// lazily when absent.
func (s *InventoryService) AddItem(ctx context.Context, groupID int64, item domain.InventoryItem, categoryName string) (*domain.InventoryItem, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	item.GroupID = group.ID
	item.CategoryID = category.ID
	item.CategoryName = category.Name
	if err := s.items.CreateItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces an existing item's fields, keeping its group and
// re-resolving the category by name.
func (s *InventoryService) UpdateItem(ctx context.Context, id int64, updated domain.InventoryItem, categoryName string) (*domain.InventoryItem, error) {
	existing, err := s.items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.GroupID = existing.GroupID
	updated.CategoryID = category.ID
	updated.CategoryName = category.Name
	if err := s.items.UpdateItem(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	return s.items.DeleteItem(ctx, id)
}

func (s *InventoryService) ListItemsByGroup(ctx context.Context, groupID int64) ([]domain.InventoryItem, error) {
	return s.items.ListByGroup(ctx, groupID)
}

func (s *InventoryService) Search(ctx context.Context, query string) ([]domain.InventoryItem, error) {
	return s.items.Search(ctx, query)
}

func (s *InventoryService) resolveCategory(ctx context.Context, name string) (*domain.Category, error) {
	category, err := s.items.FindCategoryByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	created := &domain.Category{Name: name}
	if err := s.items.CreateCategory(ctx, created); err != nil {
		return nil, err
	}
	s.log.Info("created category", zap.String("name", name), zap.Int64("id", created.ID))
	return created, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

// GroupService covers group membership plumbing: create with a short
// join code, join by code, and owner-or-leave deletion.
type GroupService struct {
	groups port.GroupRepository
	log    *zap.Logger
}

func NewGroupService(groups port.GroupRepository, log *zap.Logger) *GroupService {
	return &GroupService{groups: groups, log: log}
}

func (s *GroupService) CreateGroup(ctx context.Context, userID int64, name string) (*domain.InventoryGroup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", domain.ErrInvalidArgument)
	}

	group := &domain.InventoryGroup{
		Name:      name,
		JoinCode:  strings.ToUpper(uuid.NewString()[:6]),
		CreatedBy: userID,
		Members:   []int64{userID},
	}
	if err := s.groups.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	s.log.Info("created group", zap.Int64("id", group.ID), zap.String("joinCode", group.JoinCode))
	return group, nil
}

func (s *GroupService) ListGroups(ctx context.Context, userID int64) ([]domain.InventoryGroup, error) {
	return s.groups.ListByMember(ctx, userID)
}

func (s *GroupService) GetGroup(ctx context.Context, id int64) (*domain.InventoryGroup, error) {
	return s.groups.GetGroup(ctx, id)
}

// JoinGroup adds the user to the group matching the normalized code.
// Joining a group you already belong to is a no-op.
func (s *GroupService) JoinGroup(ctx context.Context, userID int64, code string) (*domain.InventoryGroup, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	group, err := s.groups.FindByJoinCode(ctx, normalized)
	if err != nil {
		return nil, err
	}

	member, err := s.groups.IsMember(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}
	if member {
		return group, nil
	}

	if err := s.groups.AddMember(ctx, group.ID, userID); err != nil {
		return nil, err
	}
	group.Members = append(group.Members, userID)
	return group, nil
}

// DeleteGroup removes the whole group when the owner calls it (items
// go with it); any other member just leaves.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID int64) error {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}

	if group.CreatedBy == userID {
		return s.groups.DeleteGroup(ctx, groupID)
	}

	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: group %d", domain.ErrNotFound, groupID)
	}
	return s.groups.RemoveMember(ctx, groupID, userID)
}

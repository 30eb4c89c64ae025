package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

// ExecuteProposal parses the structured block and applies it against
// the inventory. Each proposal item applies in its own storage
// transaction; a failing item is logged and skipped so the rest of the
// batch still lands. When messageID is given, the message must belong
// to one of the caller's sessions; the execution is then claimed
// through the cache first and the source message is flagged afterwards.
func (s *ChatService) ExecuteProposal(ctx context.Context, userID int64, proposalText string, messageID *int64) error {
	groups, err := s.groups.ListByMember(ctx, userID)
	if err != nil {
		return err
	}
	var defaultGroupID int64
	if len(groups) > 0 {
		defaultGroupID = groups[0].ID
	}

	proposal, err := ParseProposal(s.log, proposalText, defaultGroupID)
	if err != nil {
		return err
	}

	if messageID != nil {
		// The message must live in one of the caller's own sessions;
		// otherwise any user could claim the dedup slot for someone
		// else's message and rewrite it.
		msg, err := s.chats.GetMessage(ctx, *messageID)
		if err != nil {
			return err
		}
		if _, err := s.GetSession(ctx, userID, msg.SessionID); err != nil {
			return err
		}

		if s.cache != nil {
			ok, err := s.cache.AcquireExecution(ctx, *messageID)
			if err != nil {
				// Dedup is best effort; the marker flag still applies below.
				s.log.Warn("execution dedup unavailable", zap.Int64("message", *messageID), zap.Error(err))
			} else if !ok {
				return fmt.Errorf("%w: message %d", domain.ErrAlreadyExecuted, *messageID)
			}
		}
	}

	switch proposal.Action {
	case domain.ActionReduceQuantity:
		for _, it := range proposal.Reduce {
			if err := s.inventory.ReduceItemQuantity(ctx, it.ItemID, it.Quantity); err != nil {
				s.log.Warn("failed to reduce item",
					zap.Int64("item", it.ItemID),
					zap.String("name", it.Name),
					zap.Error(err))
			}
		}
	case domain.ActionAddItems:
		for _, it := range proposal.Add {
			item := domain.NewItem(string(it.Kind), it.Name, &it.Quantity, it.ExpiryDate)
			if _, err := s.inventory.AddItem(ctx, it.GroupID, item, it.Category); err != nil {
				s.log.Warn("failed to add item",
					zap.String("name", it.Name),
					zap.Int64("group", it.GroupID),
					zap.Error(err))
			}
		}
	}

	if messageID != nil {
		return s.markExecuted(ctx, *messageID)
	}
	return nil
}

// markExecuted flags the stored assistant message's proposal block with
// "executed": true so clients stop offering the action. The edit is
// structural: the block is located and decoded before the flag is
// spliced in immediately ahead of the action key, which keeps the call
// idempotent. Only the first proposal block of a message is considered.
func (s *ChatService) markExecuted(ctx context.Context, messageID int64) error {
	msg, err := s.chats.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	block, start, end, ok := locateProposalBlock(msg.Content)
	if !ok {
		return nil
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(block), &decoded); err != nil {
		return nil
	}
	if executed, _ := decoded["executed"].(bool); executed {
		return nil
	}

	idx := strings.Index(block, `"action"`)
	if idx < 0 {
		return nil
	}

	updated := block[:idx] + `"executed": true, ` + block[idx:]
	content := msg.Content[:start] + updated + msg.Content[end:]
	return s.chats.UpdateMessageContent(ctx, messageID, content)
}

package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

// locateProposalBlock finds the first fenced code block in text whose
// payload is a JSON object carrying an "action" key, and returns the
// inner payload together with its byte bounds. Fences holding anything
// else (recipe snippets, plain code) are skipped. When the text carries
// no fence at all but is itself such a JSON object, the whole (trimmed)
// text is treated as the payload.
func locateProposalBlock(text string) (payload string, start, end int, ok bool) {
	offset := 0
	for {
		block, s, e, resume, found := nextFencedBlock(text[offset:])
		if !found {
			break
		}
		if blockHasAction(block) {
			return block, offset + s, offset + e, true
		}
		offset += resume
	}

	if offset == 0 {
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && blockHasAction(trimmed) {
			start = strings.Index(text, trimmed)
			return trimmed, start, start + len(trimmed), true
		}
	}
	return "", 0, 0, false
}

// nextFencedBlock extracts the first fenced block of text, returning
// the inner payload, its byte bounds, and the offset just past the
// closing fence for resuming a scan.
func nextFencedBlock(text string) (payload string, start, end, resume int, ok bool) {
	open := strings.Index(text, "```")
	if open < 0 {
		return "", 0, 0, 0, false
	}

	inner := open + 3
	// Skip a language tag such as ```json up to the first newline.
	if nl := strings.IndexByte(text[inner:], '\n'); nl >= 0 {
		tag := strings.TrimSpace(text[inner : inner+nl])
		if tag != "" && !strings.ContainsAny(tag, "{}") {
			inner += nl + 1
		}
	}

	closing := strings.Index(text[inner:], "```")
	if closing < 0 {
		return "", 0, 0, 0, false
	}
	end = inner + closing
	return text[inner:end], inner, end, end + 3, true
}

func blockHasAction(payload string) bool {
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return false
	}
	_, ok := decoded["action"]
	return ok
}

type rawProposal struct {
	Action string            `json:"action"`
	Items  []json.RawMessage `json:"items"`
}

type rawReduceItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type rawAddItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	GroupID    int64  `json:"groupId"`
	Category   string `json:"category"`
	ExpiryDate string `json:"expiryDate"`
	Type       string `json:"type"`
}

// ParseProposal decodes the structured block embedded in raw into a
// typed mutation proposal. The action discriminator is strict; item
// decoding is lenient, malformed items are skipped with a warning
// rather than failing the batch. defaultGroupID is the caller's first available
// group, used when an ADD_ITEMS entry omits groupId. This fallback is a
// heuristic, not a membership check.
func ParseProposal(log *zap.Logger, raw string, defaultGroupID int64) (*domain.MutationProposal, error) {
	payload, _, _, ok := locateProposalBlock(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no structured block found", domain.ErrInvalidProposal)
	}

	var root rawProposal
	if err := json.Unmarshal([]byte(payload), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidProposal, err)
	}

	switch domain.ProposalAction(root.Action) {
	case domain.ActionReduceQuantity:
		return parseReduceItems(log, root.Items), nil
	case domain.ActionAddItems:
		return parseAddItems(log, root.Items, defaultGroupID), nil
	default:
		return nil, fmt.Errorf("%w: unrecognized action %q", domain.ErrInvalidProposal, root.Action)
	}
}

func parseReduceItems(log *zap.Logger, items []json.RawMessage) *domain.MutationProposal {
	prop := &domain.MutationProposal{Action: domain.ActionReduceQuantity}
	for _, raw := range items {
		var it rawReduceItem
		if err := json.Unmarshal(raw, &it); err != nil {
			log.Warn("skipping malformed reduce item", zap.Error(err))
			continue
		}
		// Non-positive ids and quantities are filtered, not errored.
		if it.ID <= 0 || it.Quantity <= 0 {
			continue
		}
		prop.Reduce = append(prop.Reduce, domain.ReduceItem{
			ItemID:   it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
		})
	}
	return prop
}

func parseAddItems(log *zap.Logger, items []json.RawMessage, defaultGroupID int64) *domain.MutationProposal {
	prop := &domain.MutationProposal{Action: domain.ActionAddItems}
	for _, raw := range items {
		var it rawAddItem
		if err := json.Unmarshal(raw, &it); err != nil {
			log.Warn("skipping malformed add item", zap.Error(err))
			continue
		}
		if it.Name == "" || it.Quantity <= 0 {
			log.Warn("skipping add item with missing name or quantity", zap.String("name", it.Name))
			continue
		}

		var expiry *time.Time
		if it.ExpiryDate != "" {
			parsed, err := time.Parse("2006-01-02", it.ExpiryDate)
			if err != nil {
				log.Warn("skipping add item with bad expiry date",
					zap.String("name", it.Name),
					zap.String("expiryDate", it.ExpiryDate))
				continue
			}
			expiry = &parsed
		}

		groupID := it.GroupID
		if groupID <= 0 {
			groupID = defaultGroupID
		}

		category := it.Category
		if category == "" {
			category = "General"
		}

		prop.Add = append(prop.Add, domain.AddItem{
			Name:       it.Name,
			Quantity:   it.Quantity,
			GroupID:    groupID,
			Category:   category,
			ExpiryDate: expiry,
			Kind:       domain.ParseItemKind(it.Type),
		})
	}
	return prop
}

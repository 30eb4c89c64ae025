package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

const defaultCompletionTimeout = 60 * time.Second

const systemPromptTemplate = `You are a chill, Gen Z roommate/friend. You help the user manage their shared inventory and cook stuff.
Don't be formal. Use casual language (e.g., "No cap", "Bet", "Yo").

CONTEXT:
Current Date: %s
User's Inventory:
%s

RULES:
1. Suggest recipes based on what the user has.
2. Prioritize items expiring within 7 days. Mention them explicitly (e.g. "Yo, your milk is expiring soon").
3. Check for specific tools (Category: 'Electronic' or 'Kitchenware'). If available, mention them in **bold** (e.g. "Use your **Air Fryer**").
4. If the user accepts a suggestion or asks to remove items, provide a JSON PROPOSAL at the end of your response inside a code block.

PROPOSAL FORMAT:
` + "```json" + `
{
   "action": "REDUCE_QUANTITY",
   "items": [
      {"id": 123, "name": "Milk", "quantity": 2},
      {"id": 456, "name": "Eggs", "quantity": 1}
   ]
}
` + "```" + `
OR
` + "```json" + `
{
   "action": "ADD_ITEMS",
   "items": [
      {
        "name": "Milk",
        "quantity": 1,
        "groupId": 1,
        "category": "Dairy",
        "expiryDate": "2024-12-31",
        "type": "Food"
      }
   ]
}
` + "```" + `

RULES FOR ADDING:
1. If the user provides a list or image of items, use "ADD_ITEMS".
2. Pick the most relevant Group ID from context. If unsure, use the first one.
3. ESTIMATE details if not provided:
   - category: Infer from name (e.g., Apple -> Produce/Food, Tylenol -> Medical).
   - expiryDate: ESTIMATE for Food/Medical. (Milk: +7 days, Veggies: +5 days, Canned: +1 year). Format YYYY-MM-DD.
   - type: 'Food', 'Medical', 'Electronics', 'Supply', 'Pantry'.
4. For Images: Analyze the image to identify items and quantities.

NEVER propose removing Non-Consumable items (like Tools) unless explicitly asked to.
For recipes, only reduce Ingredients (Food/Pantry).
IMPORTANT: You MUST include the exact "name" of the item in the JSON so the user knows what is being removed.`

// ChatService owns the per-session turn lifecycle and proposal
// execution against the inventory.
type ChatService struct {
	chats     port.ChatRepository
	groups    port.GroupRepository
	inventory *InventoryService
	completer port.Completer
	cache     port.CacheRepository // nil disables execution dedup
	log       *zap.Logger

	now     func() time.Time
	timeout time.Duration
}

func NewChatService(
	chats port.ChatRepository,
	groups port.GroupRepository,
	inventory *InventoryService,
	completer port.Completer,
	cache port.CacheRepository,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		chats:     chats,
		groups:    groups,
		inventory: inventory,
		completer: completer,
		cache:     cache,
		log:       log,
		now:       time.Now,
		timeout:   defaultCompletionTimeout,
	}
}

// SetCompletionTimeout overrides how long a single completion call may
// take before it is abandoned and surfaced as an upstream error.
func (s *ChatService) SetCompletionTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// --- session management ---

func (s *ChatService) StartSession(ctx context.Context, userID int64, title string) (*domain.ChatSession, error) {
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	session := &domain.ChatSession{UserID: userID, Title: title}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	return s.chats.ListSessionsByUser(ctx, userID)
}

// GetSession resolves a session owned by userID. A session owned by
// someone else is reported exactly like a missing one, so callers can't
// probe for existence.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID int64) (*domain.ChatSession, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session %d", domain.ErrNotFound, sessionID)
	}
	return session, nil
}

func (s *ChatService) GetSessionMessages(ctx context.Context, userID, sessionID int64) ([]domain.ChatMessage, error) {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, sessionID)
}

func (s *ChatService) RenameSession(ctx context.Context, userID, sessionID int64, title string) (*domain.ChatSession, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidArgument)
	}
	if err := s.chats.UpdateSessionTitle(ctx, sessionID, title); err != nil {
		return nil, err
	}
	session.Title = title
	return session, nil
}

func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	if _, err := s.GetSession(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.chats.DeleteSession(ctx, sessionID)
}

// --- the turn lifecycle ---

// SendMessage runs one conversational turn: persist the user's message,
// assemble the prompt from the inventory snapshot and prior turns, call
// the completion backend, and persist the reply. The user turn is kept
// even when the completion fails (at-least-once).
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID int64, text string, attachment *port.Attachment) (string, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	prior, err := s.chats.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}

	// The attachment itself is not persisted; the stored text notes it
	// was there.
	stored := text
	if attachment != nil {
		stored += " [Image Uploaded]"
	}
	userMsg := &domain.ChatMessage{SessionID: sessionID, Role: domain.RoleUser, Content: stored}
	if err := s.chats.AppendMessage(ctx, userMsg); err != nil {
		return "", err
	}

	groups, err := s.groups.ListWithItemsByMember(ctx, userID)
	if err != nil {
		return "", err
	}
	system := fmt.Sprintf(systemPromptTemplate, s.now().Format("2006-01-02"), BuildInventoryContext(groups))

	turns := make([]port.Turn, 0, len(prior)+1)
	for _, m := range prior {
		turns = append(turns, port.Turn{Role: m.Role, Text: m.Content})
	}
	turns = append(turns, port.Turn{Role: domain.RoleUser, Text: text})

	s.autoTitle(ctx, session, len(prior), text)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.completer.Complete(callCtx, system, turns, attachment)
	if err != nil {
		// The user turn stays persisted.
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	assistantMsg := &domain.ChatMessage{SessionID: sessionID, Role: domain.RoleAssistant, Content: reply}
	if err := s.chats.AppendMessage(ctx, assistantMsg); err != nil {
		return "", err
	}
	return reply, nil
}

// autoTitle replaces the placeholder title with the opening of the
// user's message while the conversation is still young.
func (s *ChatService) autoTitle(ctx context.Context, session *domain.ChatSession, priorTurns int, text string) {
	if session.Title != domain.DefaultSessionTitle || priorTurns > 2 {
		return
	}
	title := text
	if runes := []rune(text); len(runes) > 30 {
		title = string(runes[:30]) + "..."
	}
	if err := s.chats.UpdateSessionTitle(ctx, session.ID, title); err != nil {
		s.log.Warn("auto-title failed", zap.Int64("session", session.ID), zap.Error(err))
		return
	}
	session.Title = title
}

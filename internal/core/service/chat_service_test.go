package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
	"github.com/pranavsaigandikota/Satchel/internal/port"
)

// Mock ChatRepository
type mockChatRepo struct {
	sessions   map[int64]*domain.ChatSession
	messages   map[int64]*domain.ChatMessage
	nextSessID int64
	nextMsgID  int64
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{
		sessions: make(map[int64]*domain.ChatSession),
		messages: make(map[int64]*domain.ChatMessage),
	}
}

func (m *mockChatRepo) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	m.nextSessID++
	session.ID = m.nextSessID
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *mockChatRepo) GetSession(ctx context.Context, id int64) (*domain.ChatSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %d", domain.ErrNotFound, id)
	}
	c := *session
	return &c, nil
}

func (m *mockChatRepo) ListSessionsByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	var sessions []domain.ChatSession
	for id := int64(1); id <= m.nextSessID; id++ {
		session, ok := m.sessions[id]
		if ok && session.UserID == userID {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

func (m *mockChatRepo) UpdateSessionTitle(ctx context.Context, id int64, title string) error {
	session, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %d", domain.ErrNotFound, id)
	}
	session.Title = title
	return nil
}

func (m *mockChatRepo) DeleteSession(ctx context.Context, id int64) error {
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: session %d", domain.ErrNotFound, id)
	}
	delete(m.sessions, id)
	for msgID, msg := range m.messages {
		if msg.SessionID == id {
			delete(m.messages, msgID)
		}
	}
	return nil
}

func (m *mockChatRepo) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	m.nextMsgID++
	msg.ID = m.nextMsgID
	stored := *msg
	m.messages[msg.ID] = &stored
	return nil
}

func (m *mockChatRepo) ListMessages(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	for id := int64(1); id <= m.nextMsgID; id++ {
		msg, ok := m.messages[id]
		if ok && msg.SessionID == sessionID {
			msgs = append(msgs, *msg)
		}
	}
	return msgs, nil
}

func (m *mockChatRepo) GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
	}
	c := *msg
	return &c, nil
}

func (m *mockChatRepo) UpdateMessageContent(ctx context.Context, id int64, content string) error {
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("%w: message %d", domain.ErrNotFound, id)
	}
	msg.Content = content
	return nil
}

// Mock Completer
type mockCompleter struct {
	reply string
	err   error

	gotSystem     string
	gotTurns      []port.Turn
	gotAttachment *port.Attachment
	calls         int
}

func (m *mockCompleter) Complete(ctx context.Context, system string, turns []port.Turn, attachment *port.Attachment) (string, error) {
	m.calls++
	m.gotSystem = system
	m.gotTurns = turns
	m.gotAttachment = attachment
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// Mock CacheRepository
type mockCache struct {
	claimed map[int64]bool
	err     error
}

func newMockCache() *mockCache {
	return &mockCache{claimed: make(map[int64]bool)}
}

func (m *mockCache) AcquireExecution(ctx context.Context, messageID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[messageID] {
		return false, nil
	}
	m.claimed[messageID] = true
	return true, nil
}

type chatFixture struct {
	svc       *ChatService
	chats     *mockChatRepo
	items     *mockItemRepo
	groups    *mockGroupRepo
	completer *mockCompleter
	cache     *mockCache
}

func newChatFixture() *chatFixture {
	items := newMockItemRepo()
	groups := newMockGroupRepo(items)
	chats := newMockChatRepo()
	completer := &mockCompleter{reply: "bet, noted!"}
	cache := newMockCache()

	log := zap.NewNop()
	inventory := NewInventoryService(items, groups, log)
	svc := NewChatService(chats, groups, inventory, completer, cache, log)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	return &chatFixture{svc: svc, chats: chats, items: items, groups: groups, completer: completer, cache: cache}
}

func (f *chatFixture) session(userID int64, title string) *domain.ChatSession {
	session, err := f.svc.StartSession(context.Background(), userID, title)
	if err != nil {
		panic(err)
	}
	return session
}

func TestStartSession_DefaultTitle(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "")
	if session.Title != domain.DefaultSessionTitle {
		t.Errorf("expected default title, got %q", session.Title)
	}
}

func TestSendMessage_PersistsBothTurns(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "")

	reply, err := f.svc.SendMessage(context.Background(), 1, session.ID, "what do we have?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "bet, noted!" {
		t.Errorf("unexpected reply %q", reply)
	}

	msgs, _ := f.chats.ListMessages(context.Background(), session.ID)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "what do we have?" {
		t.Errorf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleAssistant || msgs[1].Content != "bet, noted!" {
		t.Errorf("unexpected assistant message: %+v", msgs[1])
	}
}

func TestSendMessage_PromptCarriesDateAndInventory(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})
	f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(2), Kind: domain.KindFood, GroupID: groupID, CategoryName: "Dairy"})
	session := f.session(1, "")

	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, "hey", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(f.completer.gotSystem, "Current Date: 2024-06-01") {
		t.Error("system prompt missing current date")
	}
	if !strings.Contains(f.completer.gotSystem, "Group: Kitchen [ID: 1]") {
		t.Error("system prompt missing inventory context")
	}
	if !strings.Contains(f.completer.gotSystem, "[ID: 1] Milk (Qty: 2) [Category: Dairy]") {
		t.Error("system prompt missing item line")
	}
}

func TestSendMessage_ReplaysPriorHistoryOnly(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")

	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, "first", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, "second", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns := f.completer.gotTurns
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns (2 prior + current), got %d", len(turns))
	}
	if turns[0].Text != "first" || turns[0].Role != domain.RoleUser {
		t.Errorf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != domain.RoleAssistant {
		t.Errorf("expected second turn to be the assistant reply, got %+v", turns[1])
	}
	if turns[2].Text != "second" {
		t.Errorf("expected current turn last, got %+v", turns[2])
	}
}

func TestSendMessage_AttachmentMarker(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")
	attachment := &port.Attachment{Data: []byte{0xFF, 0xD8}, MIMEType: "image/jpeg"}

	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, "what is this?", attachment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, _ := f.chats.ListMessages(context.Background(), session.ID)
	if msgs[0].Content != "what is this? [Image Uploaded]" {
		t.Errorf("expected stored marker suffix, got %q", msgs[0].Content)
	}
	// The live turn keeps the raw text; the bytes travel separately.
	last := f.completer.gotTurns[len(f.completer.gotTurns)-1]
	if last.Text != "what is this?" {
		t.Errorf("expected unsuffixed turn text, got %q", last.Text)
	}
	if f.completer.gotAttachment == nil || f.completer.gotAttachment.MIMEType != "image/jpeg" {
		t.Error("attachment not forwarded to completer")
	}
}

func TestSendMessage_AutoTitleTruncates(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "")
	text := strings.Repeat("a", 45)

	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, text, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.chats.GetSession(context.Background(), session.ID)
	want := strings.Repeat("a", 30) + "..."
	if stored.Title != want {
		t.Errorf("expected title %q, got %q", want, stored.Title)
	}
}

func TestSendMessage_ShortTextTitledVerbatim(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "")

	if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, "milk run", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.chats.GetSession(context.Background(), session.ID)
	if stored.Title != "milk run" {
		t.Errorf("expected title %q, got %q", "milk run", stored.Title)
	}
}

func TestSendMessage_NoRetitle(t *testing.T) {
	f := newChatFixture()

	// A custom title is never overwritten.
	custom := f.session(1, "weekly shop")
	if _, err := f.svc.SendMessage(context.Background(), 1, custom.ID, "hello there", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.chats.GetSession(context.Background(), custom.ID)
	if stored.Title != "weekly shop" {
		t.Errorf("custom title was overwritten: %q", stored.Title)
	}

	// An established conversation keeps its first auto title.
	session := f.session(1, "")
	for _, text := range []string{"one", "two"} {
		if _, err := f.svc.SendMessage(context.Background(), 1, session.ID, text, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	stored, _ = f.chats.GetSession(context.Background(), session.ID)
	if stored.Title != "one" {
		t.Errorf("expected first-message title to stick, got %q", stored.Title)
	}
}

func TestSendMessage_CompletionFailureKeepsUserTurn(t *testing.T) {
	f := newChatFixture()
	f.completer.err = errors.New("deadline exceeded")
	session := f.session(1, "groceries")

	_, err := f.svc.SendMessage(context.Background(), 1, session.ID, "hello", nil)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	msgs, _ := f.chats.ListMessages(context.Background(), session.ID)
	if len(msgs) != 1 || msgs[0].Role != domain.RoleUser {
		t.Errorf("expected only the user turn to persist, got %+v", msgs)
	}
}

func TestGetSession_ForeignLooksMissing(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")

	_, err := f.svc.GetSession(context.Background(), 2, session.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign session, got %v", err)
	}

	_, err = f.svc.SendMessage(context.Background(), 2, session.ID, "hi", nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on send to foreign session, got %v", err)
	}
}

func TestRenameSession(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "")

	if _, err := f.svc.RenameSession(context.Background(), 1, session.ID, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty title, got %v", err)
	}

	renamed, err := f.svc.RenameSession(context.Background(), 1, session.ID, "pantry talk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renamed.Title != "pantry talk" {
		t.Errorf("expected renamed title, got %q", renamed.Title)
	}
}

func TestExecuteProposal_Reduce(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})
	milkID := f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(3), Kind: domain.KindFood, GroupID: groupID})

	proposal := fmt.Sprintf("```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": [{\"id\": %d, \"name\": \"Milk\", \"quantity\": 2}]}\n```", milkID)
	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *f.items.items[milkID].Quantity != 1 {
		t.Errorf("expected quantity 1 after reduce, got %d", *f.items.items[milkID].Quantity)
	}
}

func TestExecuteProposal_ReduceFailureSkipsItem(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})
	milkID := f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(3), Kind: domain.KindFood, GroupID: groupID})

	proposal := fmt.Sprintf("```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": ["+
		"{\"id\": 999, \"name\": \"Ghost\", \"quantity\": 1},"+
		"{\"id\": %d, \"name\": \"Milk\", \"quantity\": 1}"+
		"]}\n```", milkID)
	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *f.items.items[milkID].Quantity != 2 {
		t.Errorf("expected surviving item reduced, got %d", *f.items.items[milkID].Quantity)
	}
}

func TestExecuteProposal_AddWithGroupFallback(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})

	proposal := "```json\n{\"action\": \"ADD_ITEMS\", \"items\": [" +
		"{\"name\": \"Milk\", \"quantity\": 2, \"category\": \"Dairy\", \"type\": \"FOOD\", \"expiryDate\": \"2024-12-31\"}" +
		"]}\n```"
	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	added, _ := f.items.ListByGroup(context.Background(), groupID)
	if len(added) != 1 {
		t.Fatalf("expected 1 item in fallback group, got %d", len(added))
	}
	item := added[0]
	if item.Name != "Milk" || *item.Quantity != 2 || item.Kind != domain.KindFood {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.CategoryName != "Dairy" {
		t.Errorf("expected lazy category Dairy, got %q", item.CategoryName)
	}
	if item.ExpiryDate == nil || item.ExpiryDate.Format("2006-01-02") != "2024-12-31" {
		t.Errorf("unexpected expiry: %v", item.ExpiryDate)
	}
}

func TestExecuteProposal_InvalidText(t *testing.T) {
	f := newChatFixture()
	f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})

	err := f.svc.ExecuteProposal(context.Background(), 1, "no json here", nil)
	if !errors.Is(err, domain.ErrInvalidProposal) {
		t.Errorf("expected ErrInvalidProposal, got %v", err)
	}
}

func TestExecuteProposal_DedupByMessage(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})
	milkID := f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(5), Kind: domain.KindFood, GroupID: groupID})

	session := f.session(1, "groceries")
	proposal := fmt.Sprintf("Here you go!\n```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": [{\"id\": %d, \"quantity\": 1}]}\n```", milkID)
	msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: proposal}
	if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, &msg.ID); err != nil {
		t.Fatalf("first execution failed: %v", err)
	}
	if *f.items.items[milkID].Quantity != 4 {
		t.Errorf("expected quantity 4, got %d", *f.items.items[milkID].Quantity)
	}

	err := f.svc.ExecuteProposal(context.Background(), 1, proposal, &msg.ID)
	if !errors.Is(err, domain.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
	if *f.items.items[milkID].Quantity != 4 {
		t.Error("duplicate execution mutated inventory")
	}
}

func TestExecuteProposal_ForeignMessageRejected(t *testing.T) {
	f := newChatFixture()
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1, 2}})
	milkID := f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(5), Kind: domain.KindFood, GroupID: groupID})

	session := f.session(1, "groceries")
	proposal := fmt.Sprintf("```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": [{\"id\": %d, \"quantity\": 1}]}\n```", milkID)
	msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: proposal}
	if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	err := f.svc.ExecuteProposal(context.Background(), 2, proposal, &msg.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user's message, got %v", err)
	}
	if *f.items.items[milkID].Quantity != 5 {
		t.Error("foreign execution mutated inventory")
	}
	if len(f.cache.claimed) != 0 {
		t.Error("foreign execution claimed the dedup slot")
	}
	stored, _ := f.chats.GetMessage(context.Background(), msg.ID)
	if stored.Content != proposal {
		t.Error("foreign execution rewrote the message")
	}

	// The owner can still execute afterwards.
	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, &msg.ID); err != nil {
		t.Fatalf("owner execution failed: %v", err)
	}
	if *f.items.items[milkID].Quantity != 4 {
		t.Errorf("expected quantity 4 after owner execution, got %d", *f.items.items[milkID].Quantity)
	}
}

func TestExecuteProposal_MissingMessage(t *testing.T) {
	f := newChatFixture()
	f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})

	missing := int64(404)
	proposal := "```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": []}\n```"
	err := f.svc.ExecuteProposal(context.Background(), 1, proposal, &missing)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing message, got %v", err)
	}
}

func TestExecuteProposal_CacheDownDegrades(t *testing.T) {
	f := newChatFixture()
	f.cache.err = errors.New("connection refused")
	groupID := f.groups.put(domain.InventoryGroup{Name: "Kitchen", Members: []int64{1}})
	milkID := f.items.put(domain.InventoryItem{Name: "Milk", Quantity: intPtr(5), Kind: domain.KindFood, GroupID: groupID})

	session := f.session(1, "groceries")
	proposal := fmt.Sprintf("```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": [{\"id\": %d, \"quantity\": 1}]}\n```", milkID)
	msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: proposal}
	if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.ExecuteProposal(context.Background(), 1, proposal, &msg.ID); err != nil {
		t.Fatalf("expected degraded execution to succeed, got %v", err)
	}
	if *f.items.items[milkID].Quantity != 4 {
		t.Error("execution did not apply while cache was down")
	}
}

func TestMarkExecuted_SplicesFlag(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")
	content := "Done!\n```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": []}\n```\nEnjoy."
	msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: content}
	if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.markExecuted(context.Background(), msg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := f.chats.GetMessage(context.Background(), msg.ID)
	if !strings.Contains(updated.Content, `"executed": true, "action"`) {
		t.Errorf("flag not spliced before action key: %q", updated.Content)
	}
	if !strings.HasPrefix(updated.Content, "Done!\n") || !strings.HasSuffix(updated.Content, "\nEnjoy.") {
		t.Errorf("prose around the block was disturbed: %q", updated.Content)
	}

	// A second pass must not add the flag twice.
	if err := f.svc.markExecuted(context.Background(), msg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	final, _ := f.chats.GetMessage(context.Background(), msg.ID)
	if strings.Count(final.Content, `"executed": true`) != 1 {
		t.Errorf("flag applied more than once: %q", final.Content)
	}
}

func TestMarkExecuted_SkipsLeadingNonProposalFence(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")
	content := "Recipe:\n```\nboil water\n```\n" +
		"```json\n{\"action\": \"REDUCE_QUANTITY\", \"items\": []}\n```"
	msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: content}
	if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.markExecuted(context.Background(), msg.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, _ := f.chats.GetMessage(context.Background(), msg.ID)
	if !strings.Contains(updated.Content, `"executed": true, "action"`) {
		t.Errorf("flag not spliced into the proposal block: %q", updated.Content)
	}
	if !strings.Contains(updated.Content, "```\nboil water\n```") {
		t.Errorf("recipe fence was disturbed: %q", updated.Content)
	}
}

func TestMarkExecuted_IgnoresNonProposalContent(t *testing.T) {
	f := newChatFixture()
	session := f.session(1, "groceries")

	cases := []struct {
		name    string
		content string
	}{
		{"no block", "just chatting, nothing structured"},
		{"code without action", "```json\n{\"note\": \"hi\"}\n```"},
		{"not json", "```\nfunc main() {}\n```"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &domain.ChatMessage{SessionID: session.ID, Role: domain.RoleAssistant, Content: tc.content}
			if err := f.chats.AppendMessage(context.Background(), msg); err != nil {
				t.Fatal(err)
			}
			if err := f.svc.markExecuted(context.Background(), msg.ID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			stored, _ := f.chats.GetMessage(context.Background(), msg.ID)
			if stored.Content != tc.content {
				t.Errorf("content changed: %q", stored.Content)
			}
		})
	}
}

func TestMarkExecuted_MissingMessageIsNoop(t *testing.T) {
	f := newChatFixture()
	if err := f.svc.markExecuted(context.Background(), 404); err != nil {
		t.Errorf("expected nil for missing message, got %v", err)
	}
}

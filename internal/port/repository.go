package port

import (
	"context"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

type UserRepository interface {
	// GetUser retrieves a user by id; domain.ErrNotFound if absent.
	GetUser(ctx context.Context, id int64) (*domain.User, error)

	// UpsertUser creates or refreshes a user row keyed by subject and
	// fills in the resulting id.
	UpsertUser(ctx context.Context, user *domain.User) error
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, group *domain.InventoryGroup) error
	GetGroup(ctx context.Context, id int64) (*domain.InventoryGroup, error)
	FindByJoinCode(ctx context.Context, code string) (*domain.InventoryGroup, error)
	DeleteGroup(ctx context.Context, id int64) error

	// ListByMember returns the groups the user belongs to, oldest first.
	ListByMember(ctx context.Context, userID int64) ([]domain.InventoryGroup, error)

	// ListWithItemsByMember is ListByMember with each group's items
	// (category names resolved) populated. Feeds the context builder.
	ListWithItemsByMember(ctx context.Context, userID int64) ([]domain.InventoryGroup, error)

	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
}

type ItemRepository interface {
	GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error)
	ListByGroup(ctx context.Context, groupID int64) ([]domain.InventoryItem, error)
	CreateItem(ctx context.Context, item *domain.InventoryItem) error
	UpdateItem(ctx context.Context, item *domain.InventoryItem) error

	// ReduceQuantity applies a consumption decrement atomically: the row
	// is locked for the whole read-modify-write, an untracked (NULL)
	// quantity or a result of zero or below deletes the row, anything
	// else persists the decremented quantity. Concurrent reduces must
	// serialize; stored quantities never reach zero or below.
	ReduceQuantity(ctx context.Context, id int64, amount int) error

	DeleteItem(ctx context.Context, id int64) error

	// Search matches item or category names case-insensitively.
	Search(ctx context.Context, query string) ([]domain.InventoryItem, error)

	FindCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
}

type ChatRepository interface {
	CreateSession(ctx context.Context, session *domain.ChatSession) error
	GetSession(ctx context.Context, id int64) (*domain.ChatSession, error)

	// ListSessionsByUser returns the user's sessions, newest first.
	ListSessionsByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error)

	UpdateSessionTitle(ctx context.Context, id int64, title string) error

	// DeleteSession removes the session and its messages.
	DeleteSession(ctx context.Context, id int64) error

	AppendMessage(ctx context.Context, message *domain.ChatMessage) error

	// ListMessages returns the session's messages in creation order.
	ListMessages(ctx context.Context, sessionID int64) ([]domain.ChatMessage, error)

	GetMessage(ctx context.Context, id int64) (*domain.ChatMessage, error)
	UpdateMessageContent(ctx context.Context, id int64, content string) error
}

package port

import (
	"context"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

// Turn is one prompt message handed to the completion backend.
type Turn struct {
	Role domain.MessageRole
	Text string
}

// Attachment is an opaque binary (typically an image) sent alongside
// the final user turn. It is never persisted.
type Attachment struct {
	Data     []byte
	MIMEType string
}

// Completer is the language-model call: system instruction plus the
// conversation replayed in creation order, the final turn being the
// user's new message. The returned text is treated as opaque.
type Completer interface {
	Complete(ctx context.Context, system string, turns []Turn, attachment *Attachment) (string, error)
}

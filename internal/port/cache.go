package port

import "context"

type CacheRepository interface {
	// AcquireExecution claims the one-shot execution slot for a proposal
	// message, returning false if another execution already claimed it.
	AcquireExecution(ctx context.Context, messageID int64) (bool, error)
}

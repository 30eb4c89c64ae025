package domain

import "time"

// ProposalAction discriminates the two mutation proposal variants the
// assistant may embed in a reply.
type ProposalAction string

const (
	ActionReduceQuantity ProposalAction = "REDUCE_QUANTITY"
	ActionAddItems       ProposalAction = "ADD_ITEMS"
)

type ReduceItem struct {
	ItemID   int64
	Name     string
	Quantity int
}

type AddItem struct {
	Name       string
	Quantity   int
	GroupID    int64
	Category   string
	ExpiryDate *time.Time
	Kind       ItemKind
}

// MutationProposal is the decoded form of the structured block embedded
// in an assistant message. Exactly one of Reduce/Add is populated,
// matching Action.
type MutationProposal struct {
	Action ProposalAction
	Reduce []ReduceItem
	Add    []AddItem
}

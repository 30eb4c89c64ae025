package domain

import (
	"strings"
	"time"
)

// ItemKind discriminates the concrete shape of an inventory item.
// Food, Pantry and Medical items can expire; Electronics and Supply
// items carry a qualitative condition instead.
type ItemKind string

const (
	KindFood        ItemKind = "Food"
	KindPantry      ItemKind = "Pantry"
	KindMedical     ItemKind = "Medical"
	KindElectronics ItemKind = "Electronics"
	KindSupply      ItemKind = "Supply"
)

// ParseItemKind maps a wire `type` string to an ItemKind. Matching is
// case-insensitive; anything unrecognized (including the empty string)
// falls back to Supply.
func ParseItemKind(s string) ItemKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "food":
		return KindFood
	case "pantry":
		return KindPantry
	case "medical":
		return KindMedical
	case "electronics":
		return KindElectronics
	default:
		return KindSupply
	}
}

// Expirable reports whether items of this kind carry an expiry date.
func (k ItemKind) Expirable() bool {
	switch k {
	case KindFood, KindPantry, KindMedical:
		return true
	}
	return false
}

type ItemCondition string

const (
	ConditionNew    ItemCondition = "NEW"
	ConditionGood   ItemCondition = "GOOD"
	ConditionWorn   ItemCondition = "WORN"
	ConditionBroken ItemCondition = "BROKEN"
)

type Category struct {
	ID   int64
	Name string
}

// InventoryItem is owned by exactly one inventory group.
// Quantity is nil for untracked items (binary present/absent).
// Tracked quantities never go below 1 in storage; reducing to zero
// deletes the row instead.
type InventoryItem struct {
	ID           int64
	GroupID      int64
	Name         string
	Quantity     *int
	Kind         ItemKind
	CategoryID   int64
	CategoryName string
	ExpiryDate   *time.Time    // expirable kinds only
	Condition    ItemCondition // condition-bearing kinds only
	CreatedBy    int64
	CreatedAt    time.Time
}

// NewItem builds an item of the kind named by the wire `type` string.
// Expiry is attached only to expirable kinds; condition-bearing kinds
// start out in GOOD condition.
func NewItem(wireType, name string, quantity *int, expiry *time.Time) InventoryItem {
	kind := ParseItemKind(wireType)
	item := InventoryItem{
		Name:     name,
		Quantity: quantity,
		Kind:     kind,
	}
	if kind.Expirable() {
		item.ExpiryDate = expiry
	} else {
		item.Condition = ConditionGood
	}
	return item
}

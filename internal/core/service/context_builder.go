package service

import (
	"fmt"
	"strings"

	"github.com/pranavsaigandikota/Satchel/internal/core/domain"
)

const emptyInventory = "Inventory is empty."

// BuildInventoryContext renders the groups visible to the acting user
// into the text block injected into the system prompt. Pure projection,
// no side effects.
func BuildInventoryContext(groups []domain.InventoryGroup) string {
	total := 0
	for _, g := range groups {
		total += len(g.Items)
	}
	if total == 0 {
		return emptyInventory
	}

	var sb strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&sb, "Group: %s [ID: %d]\n", g.Name, g.ID)
		for _, item := range g.Items {
			category := item.CategoryName
			if category == "" {
				category = "Unknown"
			}

			qty := "n/a"
			if item.Quantity != nil {
				qty = fmt.Sprintf("%d", *item.Quantity)
			}

			fmt.Fprintf(&sb, "  - [ID: %d] %s (Qty: %s) [Category: %s]", item.ID, item.Name, qty, category)
			if item.Kind.Expirable() && item.ExpiryDate != nil {
				fmt.Fprintf(&sb, " [Expires: %s]", item.ExpiryDate.Format("2006-01-02"))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

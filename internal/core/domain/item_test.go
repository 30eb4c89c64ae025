package domain

import (
	"testing"
	"time"
)

func TestParseItemKind(t *testing.T) {
	cases := []struct {
		in   string
		want ItemKind
	}{
		{"Food", KindFood},
		{"food", KindFood},
		{"  PANTRY ", KindPantry},
		{"medical", KindMedical},
		{"Electronics", KindElectronics},
		{"Supply", KindSupply},
		{"", KindSupply},
		{"gadget", KindSupply},
	}
	for _, tc := range cases {
		if got := ParseItemKind(tc.in); got != tc.want {
			t.Errorf("ParseItemKind(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestNewItem_ExpiryOnlyOnExpirableKinds(t *testing.T) {
	qty := 2
	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	food := NewItem("food", "Milk", &qty, &expiry)
	if food.ExpiryDate == nil {
		t.Error("expected expiry on food item")
	}
	if food.Condition != "" {
		t.Errorf("food item should carry no condition, got %q", food.Condition)
	}

	gadget := NewItem("electronics", "Blender", &qty, &expiry)
	if gadget.ExpiryDate != nil {
		t.Error("expected expiry to be dropped for electronics")
	}
	if gadget.Condition != ConditionGood {
		t.Errorf("expected GOOD starting condition, got %q", gadget.Condition)
	}
}

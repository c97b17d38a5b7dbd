package calculator

import (
	"fmt"
	"strings"
)

// ItemKind says how a line item is priced.
type ItemKind int

const (
	// kindUnset is the zero value and is never valid.
	kindUnset ItemKind = iota
	// KindPerPerson scales with the guest count (or per-item quantity in Variable mode).
	KindPerPerson
	// KindServiceFee is a percentage applied to the per-person total.
	KindServiceFee
	// KindFlatFee is charged once regardless of guest count.
	KindFlatFee
)

// String returns the storage name of the kind.
func (k ItemKind) String() string {
	switch k {
	case KindPerPerson:
		return "per_person"
	case KindServiceFee:
		return "service_fee"
	case KindFlatFee:
		return "flat_fee"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the three defined kinds.
func (k ItemKind) Valid() bool {
	return k == KindPerPerson || k == KindServiceFee || k == KindFlatFee
}

// ParseItemKind parses "per_person", "service_fee" or "flat_fee".
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_person":
		return KindPerPerson, nil
	case "service_fee":
		return KindServiceFee, nil
	case "flat_fee":
		return KindFlatFee, nil
	case "":
		return kindUnset, invalid("kind", "required")
	default:
		return kindUnset, invalid("kind", "unknown item kind %q", s)
	}
}

// LineItem is a single line on a bill calculator.
//
// Amount means different things per kind:
//   - PerPerson: cost per guest, or per unit in Variable mode
//   - ServiceFee: a percentage rate (20 means 20%)
//   - FlatFee: a one-time amount
type LineItem struct {
	ID     string
	Kind   ItemKind
	Name   string
	Amount float64

	// Quantity is the unit count for per-person items in Variable mode. Nil otherwise.
	Quantity *int

	SortOrder int
}

// Valid reports whether the item has a name. Unnamed items exist while a
// user is still editing and are priced like any other item.
func (it LineItem) Valid() bool {
	return strings.TrimSpace(it.Name) != ""
}

// QuantityValue returns the quantity, or 0 when none is set.
func (it LineItem) QuantityValue() int {
	if it.Quantity == nil {
		return 0
	}
	return *it.Quantity
}

func (it LineItem) clone() LineItem {
	if it.Quantity != nil {
		q := *it.Quantity
		it.Quantity = &q
	}
	return it
}

// ItemInput describes an item to add. ID and SortOrder are assigned when nil/empty.
type ItemInput struct {
	ID        string
	Kind      ItemKind
	Name      string
	Amount    float64
	Quantity  *int
	SortOrder *int
}

// ItemUpdate lists the fields to replace on an existing item. Nil fields are left as is.
type ItemUpdate struct {
	Name      *string
	Amount    *float64
	Quantity  *int
	SortOrder *int
}

func intPtr(n int) *int { return &n }

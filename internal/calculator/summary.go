package calculator

import (
	"fmt"
	"strings"
)

// Summarize describes items by count per kind, e.g.
// "3 per-person items, 1 service fee, 2 flat fees". Kinds with no items
// are left out; an empty list gives "No items".
func Summarize(items []LineItem) string {
	var perPerson, serviceFees, flatFees int
	for _, it := range items {
		switch it.Kind {
		case KindPerPerson:
			perPerson++
		case KindServiceFee:
			serviceFees++
		case KindFlatFee:
			flatFees++
		}
	}

	var parts []string
	if perPerson > 0 {
		parts = append(parts, plural(perPerson, "per-person item", "per-person items"))
	}
	if serviceFees > 0 {
		parts = append(parts, plural(serviceFees, "service fee", "service fees"))
	}
	if flatFees > 0 {
		parts = append(parts, plural(flatFees, "flat fee", "flat fees"))
	}
	if len(parts) == 0 {
		return "No items"
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

package calculator

import "sort"

// Classification is the three-way split of a calculator's items by kind.
// Every item lands in exactly one slice.
type Classification struct {
	PerPerson   []LineItem
	ServiceFees []LineItem
	FlatFees    []LineItem
}

// Classify partitions items by kind. Each slice is ordered by SortOrder,
// with the original position breaking ties. items is not modified.
func Classify(items []LineItem) Classification {
	ordered := make([]LineItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	var c Classification
	for _, it := range ordered {
		switch it.Kind {
		case KindPerPerson:
			c.PerPerson = append(c.PerPerson, it)
		case KindServiceFee:
			c.ServiceFees = append(c.ServiceFees, it)
		case KindFlatFee:
			c.FlatFees = append(c.FlatFees, it)
		}
	}
	return c
}

// Of returns the slice for kind k.
func (c Classification) Of(k ItemKind) []LineItem {
	switch k {
	case KindPerPerson:
		return c.PerPerson
	case KindServiceFee:
		return c.ServiceFees
	case KindFlatFee:
		return c.FlatFees
	default:
		return nil
	}
}

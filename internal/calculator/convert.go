package calculator

// ConvertItems reshapes per-person items for a switch from one guest-count
// mode to another. It returns a new slice and never fails.
//
//   - Auto/Manual → Variable: every per-person item gets Quantity = guestCount,
//     so the per-person total is unchanged right after the switch.
//   - Variable → Auto/Manual: per-item quantities are cleared and pricing
//     falls back to amount × guestCount.
//   - Auto ⇄ Manual: items are returned unchanged.
func ConvertItems(items []LineItem, from, to GuestCountMode, guestCount int) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	if from == to {
		return out
	}

	switch {
	case to == ModeVariable:
		for i := range out {
			if out[i].Kind == KindPerPerson {
				out[i].Quantity = intPtr(guestCount)
			}
		}
	case from == ModeVariable:
		for i := range out {
			if out[i].Kind == KindPerPerson {
				out[i].Quantity = nil
			}
		}
	}
	return out
}

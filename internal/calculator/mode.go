package calculator

import (
	"fmt"
	"strings"
)

// GuestCountMode decides where the guest count comes from and how
// per-person items are priced.
type GuestCountMode int

const (
	// ModeAuto takes the guest count from the guest list.
	ModeAuto GuestCountMode = iota + 1
	// ModeManual lets the user edit the guest count directly.
	ModeManual
	// ModeVariable prices each per-person item by its own quantity.
	ModeVariable
)

func (m GuestCountMode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeManual:
		return "manual"
	case ModeVariable:
		return "variable"
	default:
		return fmt.Sprintf("GuestCountMode(%d)", int(m))
	}
}

// Valid reports whether m is Auto, Manual or Variable.
func (m GuestCountMode) Valid() bool {
	return m == ModeAuto || m == ModeManual || m == ModeVariable
}

// ParseGuestCountMode parses "auto", "manual" or "variable".
func ParseGuestCountMode(s string) (GuestCountMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, nil
	case "manual":
		return ModeManual, nil
	case "variable":
		return ModeVariable, nil
	default:
		return 0, invalid("guest_count_mode", "unknown mode %q", s)
	}
}

// GuestCountEditable reports whether the user may set the guest count directly.
func (m GuestCountMode) GuestCountEditable() bool {
	return m == ModeManual
}

// PricedAmount prices a per-person item under mode m.
//
//	Auto, Manual: amount × guestCount
//	Variable:     amount × quantity
func (m GuestCountMode) PricedAmount(item LineItem, guestCount int) float64 {
	if m == ModeVariable {
		return item.Amount * float64(item.QuantityValue())
	}
	return item.Amount * float64(guestCount)
}

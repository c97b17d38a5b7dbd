package models

// Calculator is the persisted form of a bill calculator.
// It holds every stored field; totals are never part of the record.
type Calculator struct {
	// ID is the unique identifier for the calculator (UUID format).
	ID string

	// TenantID scopes the calculator to its owner.
	TenantID string

	// Name is the display name (e.g., "Reception dinner").
	Name string

	// VendorID, EventID and TaxInfoID are opaque links owned by other features.
	VendorID  string
	EventID   string
	TaxInfoID string

	// TaxRegion is the region label that came with the tax info, if any.
	TaxRegion string

	// GuestCountMode is one of "auto", "manual" or "variable".
	GuestCountMode string

	// GuestCount is the aggregate guest count.
	GuestCount int

	// TaxRate is a percentage. Nil means no tax.
	TaxRate *float64

	// Notes is free text passed through unchanged.
	Notes string

	// Items are the line items in insertion order.
	Items []LineItem

	// Version increments on every successful update and guards against lost writes.
	Version int64

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// LineItem is the persisted form of one calculator line.
type LineItem struct {
	ID string

	// Kind is one of "per_person", "service_fee" or "flat_fee".
	Kind string

	Name string

	// Amount is a per-guest cost, a percentage rate or a flat amount depending on Kind.
	Amount float64

	// Quantity is only set for per-person items in variable mode.
	Quantity *int

	SortOrder int
}

package models

// GuestList is the guest-list summary a tenant syncs into Auto-mode calculators.
type GuestList struct {
	TenantID string

	// AttendingCount is the number of guests who have accepted.
	AttendingCount int

	UpdatedAt int64
}

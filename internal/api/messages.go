package api

// LineItem is an item as returned to clients, with its priced amount.
type LineItem struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount"`
	Quantity     *int    `json:"quantity,omitempty"`
	SortOrder    int     `json:"sortOrder"`
	Valid        bool    `json:"valid"`
	PricedAmount float64 `json:"pricedAmount"`
}

// ItemInput describes an item to add.
type ItemInput struct {
	ID        string  `json:"id,omitempty"`
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Quantity  *int    `json:"quantity,omitempty"`
	SortOrder *int    `json:"sortOrder,omitempty"`
}

// Totals are derived on every response and never stored.
type Totals struct {
	PerPersonTotal     float64 `json:"perPersonTotal"`
	ServiceFeeSubtotal float64 `json:"serviceFeeSubtotal"`
	ServiceFeeTotal    float64 `json:"serviceFeeTotal"`
	FlatFeeTotal       float64 `json:"flatFeeTotal"`
	Subtotal           float64 `json:"subtotal"`
	EffectiveTaxRate   float64 `json:"effectiveTaxRate"`
	TaxAmount          float64 `json:"taxAmount"`
	GrandTotal         float64 `json:"grandTotal"`
	PerGuestCost       float64 `json:"perGuestCost"`
	TotalItemCount     int     `json:"totalItemCount"`
}

// Calculator is the full view of one calculator.
type Calculator struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	VendorID       string     `json:"vendorId,omitempty"`
	EventID        string     `json:"eventId,omitempty"`
	TaxInfoID      string     `json:"taxInfoId,omitempty"`
	TaxRegion      string     `json:"taxRegion,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	GuestCountMode string     `json:"guestCountMode"`
	GuestCount     int        `json:"guestCount"`
	TaxRate        *float64   `json:"taxRate,omitempty"`
	Items          []LineItem `json:"items"`
	Totals         Totals     `json:"totals"`
	Summary        string     `json:"summary"`
	Version        int64      `json:"version"`
	CreatedAt      int64      `json:"createdAt"`
	UpdatedAt      int64      `json:"updatedAt"`
}

// CalculatorResponse wraps a calculator returned by a mutation or read.
type CalculatorResponse struct {
	Calculator *Calculator `json:"calculator"`
}

type CreateCalculatorRequest struct {
	Name           string      `json:"name"`
	VendorID       string      `json:"vendorId,omitempty"`
	EventID        string      `json:"eventId,omitempty"`
	TaxInfoID      string      `json:"taxInfoId,omitempty"`
	TaxRegion      string      `json:"taxRegion,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	GuestCountMode string      `json:"guestCountMode,omitempty"`
	GuestCount     int         `json:"guestCount"`
	TaxRate        *float64    `json:"taxRate,omitempty"`
	Items          []ItemInput `json:"items,omitempty"`
}

type GetCalculatorRequest struct {
	ID string `json:"id"`
}

type ListCalculatorsRequest struct{}

type ListCalculatorsResponse struct {
	Calculators []*Calculator `json:"calculators"`
}

type DeleteCalculatorRequest struct {
	ID string `json:"id"`
}

type DeleteCalculatorResponse struct{}

// UpdateDetailsRequest changes the descriptive fields. Nil fields are left as they are.
type UpdateDetailsRequest struct {
	CalculatorID string  `json:"calculatorId"`
	Name         *string `json:"name,omitempty"`
	VendorID     *string `json:"vendorId,omitempty"`
	EventID      *string `json:"eventId,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type AddItemRequest struct {
	CalculatorID string    `json:"calculatorId"`
	Item         ItemInput `json:"item"`
}

type ItemResponse struct {
	Item       LineItem    `json:"item"`
	Calculator *Calculator `json:"calculator"`
}

type UpdateItemRequest struct {
	CalculatorID string   `json:"calculatorId"`
	ItemID       string   `json:"itemId"`
	Name         *string  `json:"name,omitempty"`
	Amount       *float64 `json:"amount,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	SortOrder    *int     `json:"sortOrder,omitempty"`
}

// RemoveItemRequest removes by ItemID, or by Index within the Kind's ordered list.
type RemoveItemRequest struct {
	CalculatorID string `json:"calculatorId"`
	ItemID       string `json:"itemId,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Index        *int   `json:"index,omitempty"`
}

type MoveItemRequest struct {
	CalculatorID string `json:"calculatorId"`
	ItemID       string `json:"itemId"`
	SortOrder    int    `json:"sortOrder"`
}

type SetGuestCountModeRequest struct {
	CalculatorID string `json:"calculatorId"`
	Mode         string `json:"mode"`
}

// SetGuestCountRequest sets GuestCount when present, otherwise applies Delta.
type SetGuestCountRequest struct {
	CalculatorID string `json:"calculatorId"`
	GuestCount   *int   `json:"guestCount,omitempty"`
	Delta        int    `json:"delta,omitempty"`
}

type SetGuestCountResponse struct {
	Applied    bool        `json:"applied"`
	Calculator *Calculator `json:"calculator"`
}

type SetTaxInfoRequest struct {
	CalculatorID string   `json:"calculatorId"`
	TaxInfoID    string   `json:"taxInfoId,omitempty"`
	TaxRate      *float64 `json:"taxRate,omitempty"`
	TaxRegion    string   `json:"taxRegion,omitempty"`
}

type SetAttendingCountRequest struct {
	AttendingCount int `json:"attendingCount"`
}

type SetAttendingCountResponse struct {
	AttendingCount int `json:"attendingCount"`
	// IDs of Auto-mode calculators whose guest count changed.
	Resynced []string `json:"resynced"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

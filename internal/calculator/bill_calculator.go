package calculator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billcalc/internal/models"
)

// BillCalculator owns a set of line items, a guest-count mode and a tax rate,
// and derives every total from them on read.
//
// Mutations go through its methods only. A BillCalculator is not safe for
// concurrent use; callers load a snapshot, mutate it, and save it back.
type BillCalculator struct {
	ID        string
	TenantID  string
	Name      string
	VendorID  string
	EventID   string
	TaxInfoID string
	TaxRegion string
	Notes     string

	Version   int64
	CreatedAt int64
	UpdatedAt int64

	items      []LineItem
	mode       GuestCountMode
	guestCount int
	taxRate    *float64

	now func() time.Time
}

// New creates an empty calculator for tenantID in Manual mode.
func New(tenantID string, guestCount int) (*BillCalculator, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, invalid("tenant_id", "required")
	}
	if guestCount < 0 {
		return nil, invalid("guest_count", "must be >= 0, got %d", guestCount)
	}
	c := &BillCalculator{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		mode:       ModeManual,
		guestCount: guestCount,
		now:        time.Now,
	}
	c.CreatedAt = c.now().Unix()
	c.UpdatedAt = c.CreatedAt
	return c, nil
}

// FromRecord rebuilds a calculator from its persisted form.
// Records with unknown kinds or modes, or negative values, are rejected.
func FromRecord(r models.Calculator) (*BillCalculator, error) {
	mode, err := ParseGuestCountMode(r.GuestCountMode)
	if err != nil {
		return nil, err
	}
	if r.GuestCount < 0 {
		return nil, invalid("guest_count", "must be >= 0, got %d", r.GuestCount)
	}
	if err := validateRate(r.TaxRate); err != nil {
		return nil, err
	}

	c := &BillCalculator{
		ID:         r.ID,
		TenantID:   r.TenantID,
		Name:       r.Name,
		VendorID:   r.VendorID,
		EventID:    r.EventID,
		TaxInfoID:  r.TaxInfoID,
		TaxRegion:  r.TaxRegion,
		Notes:      r.Notes,
		Version:    r.Version,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		mode:       mode,
		guestCount: r.GuestCount,
		taxRate:    copyRate(r.TaxRate),
		now:        time.Now,
	}

	seen := make(map[string]bool, len(r.Items))
	for _, ri := range r.Items {
		kind, err := ParseItemKind(ri.Kind)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", ri.ID, err)
		}
		item := LineItem{
			ID:        ri.ID,
			Kind:      kind,
			Name:      ri.Name,
			Amount:    ri.Amount,
			SortOrder: ri.SortOrder,
		}
		if ri.Quantity != nil {
			item.Quantity = intPtr(*ri.Quantity)
		}
		if err := validateAmounts(item); err != nil {
			return nil, fmt.Errorf("item %s: %w", ri.ID, err)
		}
		if item.ID == "" || seen[item.ID] {
			return nil, invalid("item.id", "missing or duplicate id %q", item.ID)
		}
		seen[item.ID] = true
		c.items = append(c.items, c.normalizeQuantity(item))
	}
	return c, nil
}

// Record returns the flat persisted form. Totals are not included.
func (c *BillCalculator) Record() models.Calculator {
	r := models.Calculator{
		ID:             c.ID,
		TenantID:       c.TenantID,
		Name:           c.Name,
		VendorID:       c.VendorID,
		EventID:        c.EventID,
		TaxInfoID:      c.TaxInfoID,
		TaxRegion:      c.TaxRegion,
		GuestCountMode: c.mode.String(),
		GuestCount:     c.guestCount,
		TaxRate:        copyRate(c.taxRate),
		Notes:          c.Notes,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Items:          make([]models.LineItem, len(c.items)),
	}
	for i, it := range c.items {
		r.Items[i] = models.LineItem{
			ID:        it.ID,
			Kind:      it.Kind.String(),
			Name:      it.Name,
			Amount:    it.Amount,
			SortOrder: it.SortOrder,
		}
		if it.Quantity != nil {
			r.Items[i].Quantity = intPtr(*it.Quantity)
		}
	}
	return r
}

// SetClock replaces the time source used to stamp UpdatedAt.
func (c *BillCalculator) SetClock(now func() time.Time) {
	c.now = now
}

func (c *BillCalculator) touch() {
	if c.now == nil {
		c.now = time.Now
	}
	c.UpdatedAt = c.now().Unix()
}

// ---- items ----

// AddItem appends a new item and returns it as stored.
func (c *BillCalculator) AddItem(in ItemInput) (LineItem, error) {
	if !in.Kind.Valid() {
		return LineItem{}, invalid("kind", "unknown item kind %s", in.Kind)
	}
	item := LineItem{
		ID:     in.ID,
		Kind:   in.Kind,
		Name:   in.Name,
		Amount: in.Amount,
	}
	if in.Quantity != nil {
		item.Quantity = intPtr(*in.Quantity)
	}
	if err := validateAmounts(item); err != nil {
		return LineItem{}, err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	} else if c.indexOf(item.ID) >= 0 {
		return LineItem{}, invalid("id", "item %s already exists", item.ID)
	}

	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	} else {
		item.SortOrder = c.nextSortOrder()
	}

	if item.Kind == KindPerPerson && c.mode == ModeVariable && item.Quantity == nil {
		item.Quantity = intPtr(c.guestCount)
	}
	item = c.normalizeQuantity(item)

	c.items = append(c.items, item)
	c.touch()
	return item.clone(), nil
}

// RemoveItem removes the item with the given id.
func (c *BillCalculator) RemoveItem(id string) error {
	i := c.indexOf(id)
	if i < 0 {
		return &NotFoundError{What: "item", Key: id}
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.touch()
	return nil
}

// RemovePerPersonItem removes the index-th item of PerPersonItems.
func (c *BillCalculator) RemovePerPersonItem(index int) error {
	return c.removeClassified(KindPerPerson, index)
}

// RemoveServiceFeeItem removes the index-th item of ServiceFeeItems.
func (c *BillCalculator) RemoveServiceFeeItem(index int) error {
	return c.removeClassified(KindServiceFee, index)
}

// RemoveFlatFeeItem removes the index-th item of FlatFeeItems.
func (c *BillCalculator) RemoveFlatFeeItem(index int) error {
	return c.removeClassified(KindFlatFee, index)
}

// RemoveClassifiedItem removes the index-th item of the given kind's view.
// An index that no longer exists returns a NotFoundError.
func (c *BillCalculator) RemoveClassifiedItem(kind ItemKind, index int) error {
	if !kind.Valid() {
		return invalid("kind", "unknown item kind %s", kind)
	}
	return c.removeClassified(kind, index)
}

func (c *BillCalculator) removeClassified(kind ItemKind, index int) error {
	view := Classify(c.items).Of(kind)
	if index < 0 || index >= len(view) {
		return &NotFoundError{What: kind.String() + " item", Key: "index " + strconv.Itoa(index)}
	}
	return c.RemoveItem(view[index].ID)
}

// UpdateItem replaces the fields set in u on the item with the given id.
// The item's kind never changes.
func (c *BillCalculator) UpdateItem(id string, u ItemUpdate) (LineItem, error) {
	i := c.indexOf(id)
	if i < 0 {
		return LineItem{}, &NotFoundError{What: "item", Key: id}
	}
	item := c.items[i].clone()

	if u.Name != nil {
		item.Name = *u.Name
	}
	if u.Amount != nil {
		item.Amount = *u.Amount
	}
	if u.Quantity != nil {
		if item.Kind != KindPerPerson || c.mode != ModeVariable {
			return LineItem{}, invalid("quantity", "only per-person items in variable mode carry a quantity")
		}
		item.Quantity = intPtr(*u.Quantity)
	}
	if u.SortOrder != nil {
		item.SortOrder = *u.SortOrder
	}
	if err := validateAmounts(item); err != nil {
		return LineItem{}, err
	}

	c.items[i] = item
	c.touch()
	return item.clone(), nil
}

// MoveItem sets an item's sort order explicitly.
func (c *BillCalculator) MoveItem(id string, sortOrder int) error {
	_, err := c.UpdateItem(id, ItemUpdate{SortOrder: &sortOrder})
	return err
}

// ---- guest count ----

// SetGuestCountMode converts the items for the new mode and switches to it.
// attendingCount is the current guest-list count; it only matters when the
// target is Auto, where it replaces the guest count immediately.
func (c *BillCalculator) SetGuestCountMode(mode GuestCountMode, attendingCount int) error {
	if !mode.Valid() {
		return invalid("guest_count_mode", "unknown mode %d", int(mode))
	}
	if mode == ModeAuto && attendingCount < 0 {
		return invalid("attending_count", "must be >= 0, got %d", attendingCount)
	}
	if mode == c.mode && (mode != ModeAuto || c.guestCount == attendingCount) {
		return nil
	}

	if mode == ModeAuto {
		c.guestCount = attendingCount
	}
	c.items = ConvertItems(c.items, c.mode, mode, c.guestCount)
	c.mode = mode
	c.touch()
	return nil
}

// SetGuestCount sets the guest count in Manual mode. In Auto and Variable
// mode the control is disabled: the call does nothing and returns false.
func (c *BillCalculator) SetGuestCount(n int) (bool, error) {
	if !c.mode.GuestCountEditable() {
		return false, nil
	}
	if n < 0 {
		return false, invalid("guest_count", "must be >= 0, got %d", n)
	}
	if n != c.guestCount {
		c.guestCount = n
		c.touch()
	}
	return true, nil
}

// IncrementGuestCount adds one guest in Manual mode.
func (c *BillCalculator) IncrementGuestCount() bool {
	changed, _ := c.SetGuestCount(c.guestCount + 1)
	return changed
}

// DecrementGuestCount removes one guest in Manual mode, stopping at zero.
func (c *BillCalculator) DecrementGuestCount() bool {
	if c.guestCount == 0 {
		return false
	}
	changed, _ := c.SetGuestCount(c.guestCount - 1)
	return changed
}

// SyncGuestCount applies an externally supplied guest count. It only takes
// effect in Auto mode and reports whether the count changed.
func (c *BillCalculator) SyncGuestCount(n int) (bool, error) {
	if n < 0 {
		return false, invalid("guest_count", "must be >= 0, got %d", n)
	}
	if c.mode != ModeAuto || c.guestCount == n {
		return false, nil
	}
	c.guestCount = n
	c.touch()
	return true, nil
}

// ---- tax ----

// SetTaxRate sets the tax percentage. Nil means no tax.
func (c *BillCalculator) SetTaxRate(rate *float64) error {
	if err := validateRate(rate); err != nil {
		return err
	}
	c.taxRate = copyRate(rate)
	c.touch()
	return nil
}

// SetTaxInfo links a tax info record and takes its rate and region.
func (c *BillCalculator) SetTaxInfo(id string, rate *float64, region string) error {
	if err := c.SetTaxRate(rate); err != nil {
		return err
	}
	c.TaxInfoID = id
	c.TaxRegion = region
	return nil
}

// ---- details ----

// UpdateDetails replaces the descriptive fields that are non-nil and reports
// whether any of them changed. They take no part in any calculation.
func (c *BillCalculator) UpdateDetails(name, vendorID, eventID, notes *string) bool {
	changed := false
	for _, f := range []struct {
		dst *string
		src *string
	}{{&c.Name, name}, {&c.VendorID, vendorID}, {&c.EventID, eventID}, {&c.Notes, notes}} {
		if f.src != nil && *f.src != *f.dst {
			*f.dst = *f.src
			changed = true
		}
	}
	if changed {
		c.touch()
	}
	return changed
}

// ---- reads ----

// Items returns a copy of all items in insertion order.
func (c *BillCalculator) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

func (c *BillCalculator) PerPersonItems() []LineItem  { return Classify(c.Items()).PerPerson }
func (c *BillCalculator) ServiceFeeItems() []LineItem { return Classify(c.Items()).ServiceFees }
func (c *BillCalculator) FlatFeeItems() []LineItem    { return Classify(c.Items()).FlatFees }

func (c *BillCalculator) GuestCountMode() GuestCountMode { return c.mode }
func (c *BillCalculator) GuestCount() int                { return c.guestCount }

// TaxRate returns the configured rate, or nil when none is set.
func (c *BillCalculator) TaxRate() *float64 { return copyRate(c.taxRate) }

// Totals recomputes every derived amount from the current state.
func (c *BillCalculator) Totals() Totals {
	return CalculateTotals(c.items, c.mode, c.guestCount, c.taxRate)
}

func (c *BillCalculator) PerPersonTotal() float64     { return c.Totals().PerPersonTotal }
func (c *BillCalculator) ServiceFeeSubtotal() float64 { return c.Totals().ServiceFeeSubtotal }
func (c *BillCalculator) ServiceFeeTotal() float64    { return c.Totals().ServiceFeeTotal }
func (c *BillCalculator) FlatFeeTotal() float64       { return c.Totals().FlatFeeTotal }
func (c *BillCalculator) Subtotal() float64           { return c.Totals().Subtotal }
func (c *BillCalculator) EffectiveTaxRate() float64   { return effectiveTaxRate(c.taxRate) }
func (c *BillCalculator) TaxAmount() float64          { return c.Totals().TaxAmount }
func (c *BillCalculator) GrandTotal() float64         { return c.Totals().GrandTotal }
func (c *BillCalculator) PerGuestCost() float64       { return c.Totals().PerGuestCost }
func (c *BillCalculator) TotalItemCount() int         { return len(c.items) }

// SummaryDescription returns a one-line item count,
// e.g. "3 per-person items, 1 service fee, 2 flat fees".
func (c *BillCalculator) SummaryDescription() string {
	return Summarize(c.items)
}

// ---- helpers ----

func (c *BillCalculator) indexOf(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *BillCalculator) nextSortOrder() int {
	if len(c.items) == 0 {
		return 0
	}
	highest := c.items[0].SortOrder
	for _, it := range c.items[1:] {
		if it.SortOrder > highest {
			highest = it.SortOrder
		}
	}
	return highest + 1
}

// normalizeQuantity drops quantities that pricing would ignore.
func (c *BillCalculator) normalizeQuantity(it LineItem) LineItem {
	if it.Kind != KindPerPerson || c.mode != ModeVariable {
		it.Quantity = nil
	}
	return it
}

func validateAmounts(it LineItem) error {
	if !finite(it.Amount) || it.Amount < 0 {
		return invalid("amount", "must be a finite number >= 0, got %v", it.Amount)
	}
	if it.Quantity != nil && *it.Quantity < 0 {
		return invalid("quantity", "must be >= 0, got %d", *it.Quantity)
	}
	return nil
}

func validateRate(rate *float64) error {
	if rate != nil && (!finite(*rate) || *rate < 0) {
		return invalid("tax_rate", "must be a finite number >= 0, got %v", *rate)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func copyRate(rate *float64) *float64 {
	if rate == nil {
		return nil
	}
	r := *rate
	return &r
}

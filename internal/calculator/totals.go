package calculator

// PricedLine is one item with the amount it contributes to the subtotal.
type PricedLine struct {
	Item   LineItem
	Amount float64
}

// Totals is the full stack of derived amounts for a bill.
type Totals struct {
	PerPersonTotal     float64
	ServiceFeeSubtotal float64
	ServiceFeeTotal    float64
	FlatFeeTotal       float64
	Subtotal           float64
	EffectiveTaxRate   float64
	TaxAmount          float64
	GrandTotal         float64
	PerGuestCost       float64
	TotalItemCount     int

	// Lines itemizes every item in display order: per-person items, then
	// service fees, then flat fees.
	Lines []PricedLine
}

// CalculateTotals derives all totals from scratch.
//
//	subtotal   = perPerson + serviceFees + flatFees
//	tax        = subtotal × taxRate / 100
//	grandTotal = subtotal + tax
//	perGuest   = grandTotal / guestCount, or 0 when guestCount is 0
//
// A nil taxRate is treated as 0%. Inputs are assumed valid; negative values
// are rejected by BillCalculator before they get here.
func CalculateTotals(items []LineItem, mode GuestCountMode, guestCount int, taxRate *float64) Totals {
	c := Classify(items)
	t := Totals{
		TotalItemCount: len(items),
		Lines:          make([]PricedLine, 0, len(items)),
	}

	for _, it := range c.PerPerson {
		amount := mode.PricedAmount(it, guestCount)
		t.PerPersonTotal += amount
		t.Lines = append(t.Lines, PricedLine{Item: it, Amount: amount})
	}

	fees := ComposeServiceFees(c, mode, guestCount)
	t.ServiceFeeSubtotal = fees.Basis
	t.ServiceFeeTotal = fees.Total
	for _, f := range fees.Fees {
		t.Lines = append(t.Lines, PricedLine(f))
	}

	for _, it := range c.FlatFees {
		t.FlatFeeTotal += it.Amount
		t.Lines = append(t.Lines, PricedLine{Item: it, Amount: it.Amount})
	}

	t.Subtotal = t.PerPersonTotal + t.ServiceFeeTotal + t.FlatFeeTotal
	t.EffectiveTaxRate = effectiveTaxRate(taxRate)
	t.TaxAmount = t.Subtotal * (t.EffectiveTaxRate / 100)
	t.GrandTotal = t.Subtotal + t.TaxAmount
	if guestCount > 0 {
		t.PerGuestCost = t.GrandTotal / float64(guestCount)
	}
	return t
}

func effectiveTaxRate(rate *float64) float64 {
	if rate == nil {
		return 0
	}
	return *rate
}

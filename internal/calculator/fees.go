package calculator

// FeeLine is one service fee with its computed amount.
type FeeLine struct {
	Item   LineItem
	Amount float64
}

// FeeComposition is the result of pricing all service fees on a bill.
type FeeComposition struct {
	// Basis is the per-person total that every fee percentage applies to.
	Basis float64
	Fees  []FeeLine
	Total float64
}

// ServiceFeeBasis sums the priced per-person items. Service fees and flat
// fees are never part of the basis, so fees do not compound.
func ServiceFeeBasis(perPerson []LineItem, mode GuestCountMode, guestCount int) float64 {
	var basis float64
	for _, it := range perPerson {
		basis += mode.PricedAmount(it, guestCount)
	}
	return basis
}

// ServiceFeeAmount applies a percentage rate to basis.
func ServiceFeeAmount(basis, rate float64) float64 {
	return basis * (rate / 100)
}

// ComposeServiceFees prices each service fee independently against the same basis.
// With no per-person items the basis is 0 and every fee is 0.
func ComposeServiceFees(c Classification, mode GuestCountMode, guestCount int) FeeComposition {
	comp := FeeComposition{
		Basis: ServiceFeeBasis(c.PerPerson, mode, guestCount),
		Fees:  make([]FeeLine, 0, len(c.ServiceFees)),
	}
	for _, fee := range c.ServiceFees {
		amount := ServiceFeeAmount(comp.Basis, fee.Amount)
		comp.Fees = append(comp.Fees, FeeLine{Item: fee, Amount: amount})
		comp.Total += amount
	}
	return comp
}

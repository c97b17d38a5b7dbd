package service

import (
	"github.com/mmynk/billcalc/internal/api"
	"github.com/mmynk/billcalc/internal/calculator"
	"github.com/mmynk/billcalc/internal/models"
)

// toAPICalculator renders a calculator with freshly computed totals.
// Items are listed in display order: per-person, service fees, flat fees.
func toAPICalculator(calc *calculator.BillCalculator) *api.Calculator {
	totals := calc.Totals()

	out := &api.Calculator{
		ID:             calc.ID,
		Name:           calc.Name,
		VendorID:       calc.VendorID,
		EventID:        calc.EventID,
		TaxInfoID:      calc.TaxInfoID,
		TaxRegion:      calc.TaxRegion,
		Notes:          calc.Notes,
		GuestCountMode: calc.GuestCountMode().String(),
		GuestCount:     calc.GuestCount(),
		TaxRate:        calc.TaxRate(),
		Items:          make([]api.LineItem, 0, len(totals.Lines)),
		Summary:        calc.SummaryDescription(),
		Version:        calc.Version,
		CreatedAt:      calc.CreatedAt,
		UpdatedAt:      calc.UpdatedAt,
		Totals: api.Totals{
			PerPersonTotal:     totals.PerPersonTotal,
			ServiceFeeSubtotal: totals.ServiceFeeSubtotal,
			ServiceFeeTotal:    totals.ServiceFeeTotal,
			FlatFeeTotal:       totals.FlatFeeTotal,
			Subtotal:           totals.Subtotal,
			EffectiveTaxRate:   totals.EffectiveTaxRate,
			TaxAmount:          totals.TaxAmount,
			GrandTotal:         totals.GrandTotal,
			PerGuestCost:       totals.PerGuestCost,
			TotalItemCount:     totals.TotalItemCount,
		},
	}
	for _, line := range totals.Lines {
		item := toAPIItem(line.Item)
		item.PricedAmount = line.Amount
		out.Items = append(out.Items, item)
	}
	return out
}

// toAPIItem converts an item. PricedAmount is left for the caller.
func toAPIItem(item calculator.LineItem) api.LineItem {
	return api.LineItem{
		ID:        item.ID,
		Kind:      item.Kind.String(),
		Name:      item.Name,
		Amount:    item.Amount,
		Quantity:  item.Quantity,
		SortOrder: item.SortOrder,
		Valid:     item.Valid(),
	}
}

// pricedItem finds item in the calculator's priced lines.
func pricedItem(calc *calculator.BillCalculator, item calculator.LineItem) api.LineItem {
	out := toAPIItem(item)
	for _, line := range calc.Totals().Lines {
		if line.Item.ID == item.ID {
			out.PricedAmount = line.Amount
			break
		}
	}
	return out
}

func toItemInput(in api.ItemInput) (calculator.ItemInput, error) {
	kind, err := calculator.ParseItemKind(in.Kind)
	if err != nil {
		return calculator.ItemInput{}, err
	}
	return calculator.ItemInput{
		ID:        in.ID,
		Kind:      kind,
		Name:      in.Name,
		Amount:    in.Amount,
		Quantity:  in.Quantity,
		SortOrder: in.SortOrder,
	}, nil
}

func toAPIUser(user *models.User) api.User {
	return api.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

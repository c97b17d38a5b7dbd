package calculator

import "testing"

func TestConvertItems(t *testing.T) {
	items := []LineItem{
		{ID: "meal", Kind: KindPerPerson, Amount: 40},
		{ID: "bar", Kind: KindPerPerson, Amount: 15, SortOrder: 1},
		{ID: "tip", Kind: KindServiceFee, Amount: 20, SortOrder: 2},
		{ID: "dj", Kind: KindFlatFee, Amount: 900, SortOrder: 3},
	}

	for _, from := range []GuestCountMode{ModeAuto, ModeManual} {
		t.Run(from.String()+" to variable keeps per-person total", func(t *testing.T) {
			before := CalculateTotals(items, from, 120, nil)
			converted := ConvertItems(items, from, ModeVariable, 120)
			after := CalculateTotals(converted, ModeVariable, 120, nil)

			approx(t, "PerPersonTotal", after.PerPersonTotal, before.PerPersonTotal)
			approx(t, "GrandTotal", after.GrandTotal, before.GrandTotal)
			for _, it := range converted {
				if it.Kind == KindPerPerson && it.QuantityValue() != 120 {
					t.Errorf("%s quantity = %d, want 120", it.ID, it.QuantityValue())
				}
				if it.Kind != KindPerPerson && it.Quantity != nil {
					t.Errorf("%s got a quantity", it.ID)
				}
			}
		})
	}

	t.Run("variable to manual clears quantities", func(t *testing.T) {
		variable := ConvertItems(items, ModeManual, ModeVariable, 10)
		variable[0].Quantity = intPtr(3)

		manual := ConvertItems(variable, ModeVariable, ModeManual, 10)
		for _, it := range manual {
			if it.Quantity != nil {
				t.Errorf("%s still has quantity %d", it.ID, *it.Quantity)
			}
		}
		approx(t, "PerPersonTotal", CalculateTotals(manual, ModeManual, 10, nil).PerPersonTotal, 550)
	})

	t.Run("auto to manual leaves items alone", func(t *testing.T) {
		out := ConvertItems(items, ModeAuto, ModeManual, 50)
		for i := range items {
			if out[i].ID != items[i].ID || out[i].Quantity != nil {
				t.Errorf("item %d changed: %+v", i, out[i])
			}
		}
	})

	t.Run("input slice is not modified", func(t *testing.T) {
		ConvertItems(items, ModeManual, ModeVariable, 77)
		if items[0].Quantity != nil {
			t.Error("ConvertItems mutated its input")
		}
	})
}

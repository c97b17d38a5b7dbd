package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/mmynk/billcalc/internal/models"
	"github.com/mmynk/billcalc/internal/storage"
)

// newTestStore connects to BILLCALC_TEST_DATABASE_URL or skips the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("BILLCALC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BILLCALC_TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	tenant := "tenant-" + uuid.New().String()

	qty := 40
	calc := &models.Calculator{
		TenantID:       tenant,
		Name:           "Brunch",
		GuestCountMode: "variable",
		GuestCount:     40,
		Items: []models.LineItem{
			{ID: "brunch", Kind: "per_person", Name: "Brunch", Amount: 28, Quantity: &qty},
			{ID: "florals", Kind: "flat_fee", Name: "Florals", Amount: 600, SortOrder: 1},
		},
	}
	if err := store.CreateCalculator(ctx, calc); err != nil {
		t.Fatalf("CreateCalculator failed: %v", err)
	}

	got, err := store.GetCalculator(ctx, tenant, calc.ID)
	if err != nil {
		t.Fatalf("GetCalculator failed: %v", err)
	}
	if got.TaxRate != nil || got.VendorID != "" || len(got.Items) != 2 {
		t.Errorf("got = %+v", got)
	}
	if got.Items[0].Quantity == nil || *got.Items[0].Quantity != 40 {
		t.Errorf("quantity = %v, want 40", got.Items[0].Quantity)
	}

	stale := *got
	got.Name = "Late brunch"
	if err := store.UpdateCalculator(ctx, got); err != nil {
		t.Fatalf("UpdateCalculator failed: %v", err)
	}
	if err := store.UpdateCalculator(ctx, &stale); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}

	if err := store.SetAttendingCount(ctx, tenant, 75); err != nil {
		t.Fatalf("SetAttendingCount failed: %v", err)
	}
	if n, err := store.AttendingCount(ctx, tenant); err != nil || n != 75 {
		t.Errorf("AttendingCount = %d, %v; want 75", n, err)
	}

	if err := store.DeleteCalculator(ctx, tenant, calc.ID); err != nil {
		t.Fatalf("DeleteCalculator failed: %v", err)
	}
	if _, err := store.GetCalculator(ctx, tenant, calc.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

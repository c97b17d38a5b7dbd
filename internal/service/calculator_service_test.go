package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/billcalc/internal/api"
	"github.com/mmynk/billcalc/internal/calculator"
	"github.com/mmynk/billcalc/internal/middleware"
	"github.com/mmynk/billcalc/internal/models"
	"github.com/mmynk/billcalc/internal/storage"
	"github.com/mmynk/billcalc/internal/storage/sqlite"
)

const testTenant = "tenant-test"

// testAuthInterceptor sets the tenant from the X-Test-Tenant header, or testTenant.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			tenantID := req.Header().Get("X-Test-Tenant")
			if tenantID == "" {
				tenantID = testTenant
			}
			return next(middleware.WithTenant(ctx, tenantID), req)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSQLite(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) api.CalculatorServiceClient {
	t.Helper()
	store := newTestSQLite(t)

	svc := NewCalculatorService(store, discardLogger())
	path, handler := api.NewCalculatorServiceHandler(svc, connect.WithInterceptors(testAuthInterceptor()))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return api.NewCalculatorServiceClient(http.DefaultClient, server.URL)
}

func ptr[T any](v T) *T { return &v }

func approx(got, want float64) bool { return math.Abs(got-want) <= 0.01 }

func connectCode(err error) connect.Code {
	return connect.CodeOf(err)
}

func createReception(t *testing.T, client api.CalculatorServiceClient, mode string) *api.Calculator {
	t.Helper()
	resp, err := client.CreateCalculator(context.Background(), connect.NewRequest(&api.CreateCalculatorRequest{
		Name:           "Reception",
		VendorID:       "vendor-1",
		GuestCountMode: mode,
		GuestCount:     100,
		TaxRate:        ptr(8.0),
		Items: []api.ItemInput{
			{ID: "dinner", Kind: "per_person", Name: "Dinner", Amount: 50},
			{ID: "gratuity", Kind: "service_fee", Name: "Gratuity", Amount: 20},
			{ID: "venue", Kind: "flat_fee", Name: "Venue", Amount: 2000},
		},
	}))
	if err != nil {
		t.Fatalf("CreateCalculator failed: %v", err)
	}
	return resp.Msg.Calculator
}

func TestCreateCalculator_Totals(t *testing.T) {
	client := setupTestServer(t)
	calc := createReception(t, client, "manual")

	if calc.ID == "" || calc.Version != 1 {
		t.Errorf("id/version = %q/%d", calc.ID, calc.Version)
	}

	// 50 × 100 = 5000; 20% of 5000 = 1000; + 2000 flat = 8000; 8% tax = 640
	totals := calc.Totals
	checks := []struct {
		name      string
		got, want float64
	}{
		{"PerPersonTotal", totals.PerPersonTotal, 5000},
		{"ServiceFeeSubtotal", totals.ServiceFeeSubtotal, 5000},
		{"ServiceFeeTotal", totals.ServiceFeeTotal, 1000},
		{"FlatFeeTotal", totals.FlatFeeTotal, 2000},
		{"Subtotal", totals.Subtotal, 8000},
		{"TaxAmount", totals.TaxAmount, 640},
		{"GrandTotal", totals.GrandTotal, 8640},
		{"PerGuestCost", totals.PerGuestCost, 86.4},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %.2f, want %.2f", c.name, c.got, c.want)
		}
	}
	if totals.TotalItemCount != 3 {
		t.Errorf("TotalItemCount = %d, want 3", totals.TotalItemCount)
	}
	if calc.Summary != "1 per-person item, 1 service fee, 1 flat fee" {
		t.Errorf("Summary = %q", calc.Summary)
	}

	wantOrder := []string{"dinner", "gratuity", "venue"}
	for i, item := range calc.Items {
		if item.ID != wantOrder[i] {
			t.Errorf("Items[%d] = %s, want %s", i, item.ID, wantOrder[i])
		}
	}
	if !approx(calc.Items[1].PricedAmount, 1000) {
		t.Errorf("gratuity priced at %.2f, want 1000", calc.Items[1].PricedAmount)
	}

	got, err := client.GetCalculator(context.Background(), connect.NewRequest(&api.GetCalculatorRequest{ID: calc.ID}))
	if err != nil {
		t.Fatalf("GetCalculator failed: %v", err)
	}
	if !approx(got.Msg.Calculator.Totals.GrandTotal, 8640) {
		t.Errorf("reloaded GrandTotal = %.2f, want 8640", got.Msg.Calculator.Totals.GrandTotal)
	}
}

func TestItemOperations(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	t.Run("AddItem", func(t *testing.T) {
		resp, err := client.AddItem(ctx, connect.NewRequest(&api.AddItemRequest{
			CalculatorID: calc.ID,
			Item:         api.ItemInput{Kind: "flat_fee", Name: "Florist", Amount: 500},
		}))
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		if resp.Msg.Item.ID == "" || resp.Msg.Item.PricedAmount != 500 {
			t.Errorf("added item = %+v", resp.Msg.Item)
		}
		if !approx(resp.Msg.Calculator.Totals.FlatFeeTotal, 2500) {
			t.Errorf("FlatFeeTotal = %.2f, want 2500", resp.Msg.Calculator.Totals.FlatFeeTotal)
		}
		if resp.Msg.Calculator.Version != 2 {
			t.Errorf("Version = %d, want 2", resp.Msg.Calculator.Version)
		}
	})

	t.Run("AddItem rejects unknown kind", func(t *testing.T) {
		_, err := client.AddItem(ctx, connect.NewRequest(&api.AddItemRequest{
			CalculatorID: calc.ID,
			Item:         api.ItemInput{Kind: "discount", Name: "Promo", Amount: 10},
		}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})

	t.Run("AddItem rejects negative amount", func(t *testing.T) {
		_, err := client.AddItem(ctx, connect.NewRequest(&api.AddItemRequest{
			CalculatorID: calc.ID,
			Item:         api.ItemInput{Kind: "flat_fee", Name: "Refund", Amount: -10},
		}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})

	t.Run("UpdateItem", func(t *testing.T) {
		resp, err := client.UpdateItem(ctx, connect.NewRequest(&api.UpdateItemRequest{
			CalculatorID: calc.ID,
			ItemID:       "dinner",
			Amount:       ptr(60.0),
		}))
		if err != nil {
			t.Fatalf("UpdateItem failed: %v", err)
		}
		if !approx(resp.Msg.Item.PricedAmount, 6000) {
			t.Errorf("dinner priced at %.2f, want 6000", resp.Msg.Item.PricedAmount)
		}
		// The fee follows its basis.
		if !approx(resp.Msg.Calculator.Totals.ServiceFeeTotal, 1200) {
			t.Errorf("ServiceFeeTotal = %.2f, want 1200", resp.Msg.Calculator.Totals.ServiceFeeTotal)
		}
	})

	t.Run("UpdateItem quantity outside variable mode", func(t *testing.T) {
		_, err := client.UpdateItem(ctx, connect.NewRequest(&api.UpdateItemRequest{
			CalculatorID: calc.ID,
			ItemID:       "dinner",
			Quantity:     ptr(10),
		}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})

	t.Run("MoveItem", func(t *testing.T) {
		resp, err := client.MoveItem(ctx, connect.NewRequest(&api.MoveItemRequest{
			CalculatorID: calc.ID,
			ItemID:       "venue",
			SortOrder:    -1,
		}))
		if err != nil {
			t.Fatalf("MoveItem failed: %v", err)
		}
		if resp.Msg.Item.SortOrder != -1 {
			t.Errorf("SortOrder = %d, want -1", resp.Msg.Item.SortOrder)
		}
		var flat []string
		for _, item := range resp.Msg.Calculator.Items {
			if item.Kind == "flat_fee" {
				flat = append(flat, item.ID)
			}
		}
		if len(flat) != 2 || flat[0] != "venue" {
			t.Errorf("flat fee order = %v, want venue first", flat)
		}
	})

	t.Run("RemoveItem by kind and index", func(t *testing.T) {
		resp, err := client.RemoveItem(ctx, connect.NewRequest(&api.RemoveItemRequest{
			CalculatorID: calc.ID,
			Kind:         "service_fee",
			Index:        ptr(0),
		}))
		if err != nil {
			t.Fatalf("RemoveItem failed: %v", err)
		}
		if resp.Msg.Calculator.Totals.ServiceFeeTotal != 0 {
			t.Errorf("ServiceFeeTotal = %.2f, want 0", resp.Msg.Calculator.Totals.ServiceFeeTotal)
		}
	})

	t.Run("RemoveItem stale index", func(t *testing.T) {
		_, err := client.RemoveItem(ctx, connect.NewRequest(&api.RemoveItemRequest{
			CalculatorID: calc.ID,
			Kind:         "service_fee",
			Index:        ptr(0),
		}))
		if connectCode(err) != connect.CodeNotFound {
			t.Errorf("code = %v, want NotFound", connectCode(err))
		}
	})

	t.Run("RemoveItem by id", func(t *testing.T) {
		resp, err := client.RemoveItem(ctx, connect.NewRequest(&api.RemoveItemRequest{
			CalculatorID: calc.ID,
			ItemID:       "dinner",
		}))
		if err != nil {
			t.Fatalf("RemoveItem failed: %v", err)
		}
		if resp.Msg.Calculator.Totals.PerPersonTotal != 0 {
			t.Errorf("PerPersonTotal = %.2f, want 0", resp.Msg.Calculator.Totals.PerPersonTotal)
		}
	})

	t.Run("RemoveItem without target", func(t *testing.T) {
		_, err := client.RemoveItem(ctx, connect.NewRequest(&api.RemoveItemRequest{CalculatorID: calc.ID}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})
}

func TestSetGuestCountMode_VariableRoundTrip(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	resp, err := client.SetGuestCountMode(ctx, connect.NewRequest(&api.SetGuestCountModeRequest{
		CalculatorID: calc.ID,
		Mode:         "variable",
	}))
	if err != nil {
		t.Fatalf("SetGuestCountMode failed: %v", err)
	}
	dinner := resp.Msg.Calculator.Items[0]
	if dinner.Quantity == nil || *dinner.Quantity != 100 {
		t.Fatalf("dinner quantity = %v, want 100", dinner.Quantity)
	}

	upd, err := client.UpdateItem(ctx, connect.NewRequest(&api.UpdateItemRequest{
		CalculatorID: calc.ID,
		ItemID:       "dinner",
		Quantity:     ptr(80),
	}))
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if !approx(upd.Msg.Calculator.Totals.PerPersonTotal, 4000) {
		t.Errorf("PerPersonTotal = %.2f, want 4000", upd.Msg.Calculator.Totals.PerPersonTotal)
	}
	// 4000 + 800 + 2000 = 6800; ×1.08 = 7344; over the 100 aggregate guests.
	if !approx(upd.Msg.Calculator.Totals.PerGuestCost, 73.44) {
		t.Errorf("PerGuestCost = %.2f, want 73.44", upd.Msg.Calculator.Totals.PerGuestCost)
	}

	back, err := client.SetGuestCountMode(ctx, connect.NewRequest(&api.SetGuestCountModeRequest{
		CalculatorID: calc.ID,
		Mode:         "manual",
	}))
	if err != nil {
		t.Fatalf("SetGuestCountMode failed: %v", err)
	}
	if back.Msg.Calculator.Items[0].Quantity != nil {
		t.Errorf("quantity survived leaving variable mode: %d", *back.Msg.Calculator.Items[0].Quantity)
	}
	if !approx(back.Msg.Calculator.Totals.PerPersonTotal, 5000) {
		t.Errorf("PerPersonTotal = %.2f, want 5000", back.Msg.Calculator.Totals.PerPersonTotal)
	}
}

func TestSetGuestCountMode_UnknownMode(t *testing.T) {
	client := setupTestServer(t)
	calc := createReception(t, client, "manual")

	_, err := client.SetGuestCountMode(context.Background(), connect.NewRequest(&api.SetGuestCountModeRequest{
		CalculatorID: calc.ID,
		Mode:         "per_table",
	}))
	if connectCode(err) != connect.CodeInvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", connectCode(err))
	}
}

func TestNoOpMutationsKeepVersion(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	tests := []struct {
		name string
		call func() (*api.Calculator, error)
	}{
		{"same guest count", func() (*api.Calculator, error) {
			resp, err := client.SetGuestCount(ctx, connect.NewRequest(&api.SetGuestCountRequest{CalculatorID: calc.ID, GuestCount: ptr(100)}))
			if err != nil {
				return nil, err
			}
			if !resp.Msg.Applied {
				t.Error("Applied = false, want true in manual mode")
			}
			return resp.Msg.Calculator, nil
		}},
		{"same mode", func() (*api.Calculator, error) {
			resp, err := client.SetGuestCountMode(ctx, connect.NewRequest(&api.SetGuestCountModeRequest{CalculatorID: calc.ID, Mode: "manual"}))
			if err != nil {
				return nil, err
			}
			return resp.Msg.Calculator, nil
		}},
		{"empty details", func() (*api.Calculator, error) {
			resp, err := client.UpdateDetails(ctx, connect.NewRequest(&api.UpdateDetailsRequest{CalculatorID: calc.ID}))
			if err != nil {
				return nil, err
			}
			return resp.Msg.Calculator, nil
		}},
		{"unchanged name", func() (*api.Calculator, error) {
			resp, err := client.UpdateDetails(ctx, connect.NewRequest(&api.UpdateDetailsRequest{CalculatorID: calc.ID, Name: ptr("Reception")}))
			if err != nil {
				return nil, err
			}
			return resp.Msg.Calculator, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got.Version != calc.Version || got.UpdatedAt != calc.UpdatedAt {
				t.Errorf("version/updatedAt = %d/%d, want %d/%d", got.Version, got.UpdatedAt, calc.Version, calc.UpdatedAt)
			}
		})
	}
}

func TestSetGuestCount(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	tests := []struct {
		name        string
		req         *api.SetGuestCountRequest
		wantApplied bool
		wantCount   int
	}{
		{"set", &api.SetGuestCountRequest{GuestCount: ptr(50)}, true, 50},
		{"increment", &api.SetGuestCountRequest{Delta: 1}, true, 51},
		{"decrement", &api.SetGuestCountRequest{Delta: -1}, true, 50},
		{"large step clamps at zero", &api.SetGuestCountRequest{Delta: -80}, true, 0},
		{"decrement at zero", &api.SetGuestCountRequest{Delta: -1}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.CalculatorID = calc.ID
			resp, err := client.SetGuestCount(ctx, connect.NewRequest(tt.req))
			if err != nil {
				t.Fatalf("SetGuestCount failed: %v", err)
			}
			if resp.Msg.Applied != tt.wantApplied {
				t.Errorf("Applied = %v, want %v", resp.Msg.Applied, tt.wantApplied)
			}
			if resp.Msg.Calculator.GuestCount != tt.wantCount {
				t.Errorf("GuestCount = %d, want %d", resp.Msg.Calculator.GuestCount, tt.wantCount)
			}
		})
	}

	t.Run("zero guests gives zero per-guest cost", func(t *testing.T) {
		resp, err := client.GetCalculator(ctx, connect.NewRequest(&api.GetCalculatorRequest{ID: calc.ID}))
		if err != nil {
			t.Fatalf("GetCalculator failed: %v", err)
		}
		if resp.Msg.Calculator.Totals.PerGuestCost != 0 {
			t.Errorf("PerGuestCost = %v, want 0", resp.Msg.Calculator.Totals.PerGuestCost)
		}
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := client.SetGuestCount(ctx, connect.NewRequest(&api.SetGuestCountRequest{CalculatorID: calc.ID, GuestCount: ptr(-5)}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})

	t.Run("empty request", func(t *testing.T) {
		_, err := client.SetGuestCount(ctx, connect.NewRequest(&api.SetGuestCountRequest{CalculatorID: calc.ID}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})
}

func TestAutoMode_FollowsAttendingCount(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()

	if _, err := client.SetAttendingCount(ctx, connect.NewRequest(&api.SetAttendingCountRequest{AttendingCount: 80})); err != nil {
		t.Fatalf("SetAttendingCount failed: %v", err)
	}

	auto := createReception(t, client, "auto")
	if auto.GuestCount != 80 {
		t.Errorf("auto calculator guest count = %d, want 80 from guest list", auto.GuestCount)
	}
	manual := createReception(t, client, "manual")

	t.Run("manual edits are ignored in auto mode", func(t *testing.T) {
		resp, err := client.SetGuestCount(ctx, connect.NewRequest(&api.SetGuestCountRequest{CalculatorID: auto.ID, GuestCount: ptr(10)}))
		if err != nil {
			t.Fatalf("SetGuestCount failed: %v", err)
		}
		if resp.Msg.Applied || resp.Msg.Calculator.GuestCount != 80 {
			t.Errorf("applied=%v count=%d, want false/80", resp.Msg.Applied, resp.Msg.Calculator.GuestCount)
		}
		if resp.Msg.Calculator.Version != auto.Version {
			t.Errorf("no-op bumped version to %d", resp.Msg.Calculator.Version)
		}
	})

	t.Run("guest list change resyncs auto calculators only", func(t *testing.T) {
		resp, err := client.SetAttendingCount(ctx, connect.NewRequest(&api.SetAttendingCountRequest{AttendingCount: 120}))
		if err != nil {
			t.Fatalf("SetAttendingCount failed: %v", err)
		}
		if !slices.Equal(resp.Msg.Resynced, []string{auto.ID}) {
			t.Errorf("Resynced = %v, want [%s]", resp.Msg.Resynced, auto.ID)
		}

		got, _ := client.GetCalculator(ctx, connect.NewRequest(&api.GetCalculatorRequest{ID: auto.ID}))
		if got.Msg.Calculator.GuestCount != 120 {
			t.Errorf("auto guest count = %d, want 120", got.Msg.Calculator.GuestCount)
		}
		if !approx(got.Msg.Calculator.Totals.PerPersonTotal, 6000) {
			t.Errorf("auto PerPersonTotal = %.2f, want 6000", got.Msg.Calculator.Totals.PerPersonTotal)
		}

		other, _ := client.GetCalculator(ctx, connect.NewRequest(&api.GetCalculatorRequest{ID: manual.ID}))
		if other.Msg.Calculator.GuestCount != 100 {
			t.Errorf("manual guest count = %d, want 100", other.Msg.Calculator.GuestCount)
		}
	})

	t.Run("unchanged count resyncs nothing", func(t *testing.T) {
		resp, err := client.SetAttendingCount(ctx, connect.NewRequest(&api.SetAttendingCountRequest{AttendingCount: 120}))
		if err != nil {
			t.Fatalf("SetAttendingCount failed: %v", err)
		}
		if len(resp.Msg.Resynced) != 0 {
			t.Errorf("Resynced = %v, want none", resp.Msg.Resynced)
		}
	})

	t.Run("switching to auto takes the attending count", func(t *testing.T) {
		resp, err := client.SetGuestCountMode(ctx, connect.NewRequest(&api.SetGuestCountModeRequest{
			CalculatorID: manual.ID,
			Mode:         "auto",
		}))
		if err != nil {
			t.Fatalf("SetGuestCountMode failed: %v", err)
		}
		if resp.Msg.Calculator.GuestCount != 120 {
			t.Errorf("guest count = %d, want 120", resp.Msg.Calculator.GuestCount)
		}
	})

	t.Run("negative attending count", func(t *testing.T) {
		_, err := client.SetAttendingCount(ctx, connect.NewRequest(&api.SetAttendingCountRequest{AttendingCount: -1}))
		if connectCode(err) != connect.CodeInvalidArgument {
			t.Errorf("code = %v, want InvalidArgument", connectCode(err))
		}
	})
}

func TestSetTaxInfoAndDetails(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	resp, err := client.SetTaxInfo(ctx, connect.NewRequest(&api.SetTaxInfoRequest{
		CalculatorID: calc.ID,
		TaxInfoID:    "tax-ca",
		TaxRate:      ptr(10.0),
		TaxRegion:    "CA",
	}))
	if err != nil {
		t.Fatalf("SetTaxInfo failed: %v", err)
	}
	got := resp.Msg.Calculator
	if got.TaxInfoID != "tax-ca" || got.TaxRegion != "CA" || !approx(got.Totals.TaxAmount, 800) {
		t.Errorf("tax info = %s/%s tax=%.2f", got.TaxInfoID, got.TaxRegion, got.Totals.TaxAmount)
	}

	_, err = client.SetTaxInfo(ctx, connect.NewRequest(&api.SetTaxInfoRequest{CalculatorID: calc.ID, TaxRate: ptr(-1.0)}))
	if connectCode(err) != connect.CodeInvalidArgument {
		t.Errorf("negative rate code = %v, want InvalidArgument", connectCode(err))
	}

	details, err := client.UpdateDetails(ctx, connect.NewRequest(&api.UpdateDetailsRequest{
		CalculatorID: calc.ID,
		Name:         ptr("Rehearsal dinner"),
	}))
	if err != nil {
		t.Fatalf("UpdateDetails failed: %v", err)
	}
	if details.Msg.Calculator.Name != "Rehearsal dinner" || details.Msg.Calculator.VendorID != "vendor-1" {
		t.Errorf("details = %+v", details.Msg.Calculator)
	}
}

func TestListAndDeleteCalculators(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	first := createReception(t, client, "manual")
	createReception(t, client, "variable")

	list, err := client.ListCalculators(ctx, connect.NewRequest(&api.ListCalculatorsRequest{}))
	if err != nil {
		t.Fatalf("ListCalculators failed: %v", err)
	}
	if len(list.Msg.Calculators) != 2 {
		t.Fatalf("got %d calculators, want 2", len(list.Msg.Calculators))
	}

	if _, err := client.DeleteCalculator(ctx, connect.NewRequest(&api.DeleteCalculatorRequest{ID: first.ID})); err != nil {
		t.Fatalf("DeleteCalculator failed: %v", err)
	}
	_, err = client.GetCalculator(ctx, connect.NewRequest(&api.GetCalculatorRequest{ID: first.ID}))
	if connectCode(err) != connect.CodeNotFound {
		t.Errorf("get after delete code = %v, want NotFound", connectCode(err))
	}
}

func TestTenantIsolation(t *testing.T) {
	client := setupTestServer(t)
	ctx := context.Background()
	calc := createReception(t, client, "manual")

	req := connect.NewRequest(&api.GetCalculatorRequest{ID: calc.ID})
	req.Header().Set("X-Test-Tenant", "someone-else")
	_, err := client.GetCalculator(ctx, req)
	if connectCode(err) != connect.CodeNotFound {
		t.Errorf("cross-tenant get code = %v, want NotFound", connectCode(err))
	}

	list := connect.NewRequest(&api.ListCalculatorsRequest{})
	list.Header().Set("X-Test-Tenant", "someone-else")
	resp, err := client.ListCalculators(ctx, list)
	if err != nil {
		t.Fatalf("ListCalculators failed: %v", err)
	}
	if len(resp.Msg.Calculators) != 0 {
		t.Errorf("other tenant sees %d calculators", len(resp.Msg.Calculators))
	}
}

// conflictingStore fails the first n updates with ErrConflict after letting
// another writer bump the version.
type conflictingStore struct {
	storage.Store
	remaining int
}

func (s *conflictingStore) UpdateCalculator(ctx context.Context, calc *models.Calculator) error {
	if s.remaining > 0 {
		s.remaining--
		current, err := s.Store.GetCalculator(ctx, calc.TenantID, calc.ID)
		if err != nil {
			return err
		}
		current.Notes = "concurrent edit"
		if err := s.Store.UpdateCalculator(ctx, current); err != nil {
			return err
		}
		return s.Store.UpdateCalculator(ctx, calc)
	}
	return s.Store.UpdateCalculator(ctx, calc)
}

func TestMutate_RetriesOnConflict(t *testing.T) {
	ctx := middleware.WithTenant(context.Background(), testTenant)
	base := newTestSQLite(t)

	seed, err := calculator.New(testTenant, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := seed.Record()
	if err := base.CreateCalculator(ctx, &rec); err != nil {
		t.Fatalf("CreateCalculator failed: %v", err)
	}

	t.Run("retry succeeds on a fresh snapshot", func(t *testing.T) {
		svc := NewCalculatorService(&conflictingStore{Store: base, remaining: 1}, discardLogger())
		resp, err := svc.AddItem(ctx, connect.NewRequest(&api.AddItemRequest{
			CalculatorID: rec.ID,
			Item:         api.ItemInput{Kind: "flat_fee", Name: "Cake", Amount: 300},
		}))
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		got := resp.Msg.Calculator
		if got.Notes != "concurrent edit" {
			t.Errorf("concurrent edit lost: notes = %q", got.Notes)
		}
		if got.Totals.FlatFeeTotal != 300 {
			t.Errorf("FlatFeeTotal = %.2f, want 300", got.Totals.FlatFeeTotal)
		}
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		svc := NewCalculatorService(&conflictingStore{Store: base, remaining: maxSaveAttempts}, discardLogger())
		_, err := svc.AddItem(ctx, connect.NewRequest(&api.AddItemRequest{
			CalculatorID: rec.ID,
			Item:         api.ItemInput{Kind: "flat_fee", Name: "Band", Amount: 900},
		}))
		if connectCode(err) != connect.CodeAborted {
			t.Errorf("code = %v, want Aborted", connectCode(err))
		}
	})
}

// deletingStore removes one calculator right after it has been listed, as a
// concurrent DeleteCalculator would.
type deletingStore struct {
	storage.Store
	victim string
}

func (s *deletingStore) ListCalculators(ctx context.Context, tenantID string) ([]*models.Calculator, error) {
	recs, err := s.Store.ListCalculators(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.Store.DeleteCalculator(ctx, tenantID, s.victim); err != nil {
		return nil, err
	}
	return recs, nil
}

func TestSetAttendingCount_SkipsRemovedCalculator(t *testing.T) {
	ctx := middleware.WithTenant(context.Background(), testTenant)
	base := newTestSQLite(t)

	var ids []string
	for i := 0; i < 2; i++ {
		seed, err := calculator.New(testTenant, 10)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if err := seed.SetGuestCountMode(calculator.ModeAuto, 10); err != nil {
			t.Fatalf("SetGuestCountMode failed: %v", err)
		}
		rec := seed.Record()
		if err := base.CreateCalculator(ctx, &rec); err != nil {
			t.Fatalf("CreateCalculator failed: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	svc := NewCalculatorService(&deletingStore{Store: base, victim: ids[0]}, discardLogger())
	resp, err := svc.SetAttendingCount(ctx, connect.NewRequest(&api.SetAttendingCountRequest{AttendingCount: 77}))
	if err != nil {
		t.Fatalf("SetAttendingCount failed: %v", err)
	}
	if !slices.Equal(resp.Msg.Resynced, []string{ids[1]}) {
		t.Errorf("Resynced = %v, want [%s]", resp.Msg.Resynced, ids[1])
	}

	survivor, err := base.GetCalculator(ctx, testTenant, ids[1])
	if err != nil {
		t.Fatalf("GetCalculator failed: %v", err)
	}
	if survivor.GuestCount != 77 {
		t.Errorf("surviving auto calculator guest count = %d, want 77", survivor.GuestCount)
	}
	if n, _ := base.AttendingCount(ctx, testTenant); n != 77 {
		t.Errorf("AttendingCount = %d, want 77", n)
	}
}

func TestRequireTenant(t *testing.T) {
	svc := NewCalculatorService(newTestSQLite(t), discardLogger())
	_, err := svc.GetCalculator(context.Background(), connect.NewRequest(&api.GetCalculatorRequest{ID: "x"}))
	if connectCode(err) != connect.CodeUnauthenticated {
		t.Errorf("code = %v, want Unauthenticated", connectCode(err))
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"validation", &calculator.ValidationError{Field: "amount", Reason: "negative"}, connect.CodeInvalidArgument},
		{"domain not found", &calculator.NotFoundError{What: "item", Key: "x"}, connect.CodeNotFound},
		{"storage not found", storage.ErrNotFound, connect.CodeNotFound},
		{"mode transition", &calculator.ModeTransitionError{Reason: "unknown mode"}, connect.CodeFailedPrecondition},
		{"conflict", storage.ErrConflict, connect.CodeAborted},
		{"other", errors.New("disk full"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connect.CodeOf(toConnectError(tt.err)); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}

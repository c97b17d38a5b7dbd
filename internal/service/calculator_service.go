package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/billcalc/internal/api"
	"github.com/mmynk/billcalc/internal/auth"
	"github.com/mmynk/billcalc/internal/calculator"
	"github.com/mmynk/billcalc/internal/metrics"
	"github.com/mmynk/billcalc/internal/middleware"
	"github.com/mmynk/billcalc/internal/models"
	"github.com/mmynk/billcalc/internal/storage"
)

const (
	// maxSaveAttempts bounds load-mutate-save retries on version conflicts.
	maxSaveAttempts = 3
	// resyncConcurrency bounds parallel saves when the guest list changes.
	resyncConcurrency = 4
)

// errNoChange tells mutate that the calculator was left as loaded.
var errNoChange = errors.New("no change")

// Defaults are applied to calculators created without an explicit mode or tax rate.
type Defaults struct {
	Mode    calculator.GuestCountMode
	TaxRate *float64
}

// CalculatorService implements the CalculatorService RPC interface.
type CalculatorService struct {
	store    storage.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	defaults Defaults
}

// Option configures a CalculatorService.
type Option func(*CalculatorService)

// WithMetrics records conflicts, resyncs and grand totals on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CalculatorService) { s.metrics = m }
}

// WithDefaults sets the mode and tax rate used by CreateCalculator when a request omits them.
func WithDefaults(d Defaults) Option {
	return func(s *CalculatorService) { s.defaults = d }
}

// NewCalculatorService creates a new calculator service.
func NewCalculatorService(store storage.Store, logger *slog.Logger, opts ...Option) *CalculatorService {
	s := &CalculatorService{
		store:    store,
		logger:   logger,
		defaults: Defaults{Mode: calculator.ModeManual},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ api.CalculatorServiceHandler = (*CalculatorService)(nil)

// CreateCalculator creates a calculator with optional initial items.
func (s *CalculatorService) CreateCalculator(ctx context.Context, req *connect.Request[api.CreateCalculatorRequest]) (*connect.Response[api.CalculatorResponse], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	mode := s.defaults.Mode
	if msg.GuestCountMode != "" {
		if mode, err = calculator.ParseGuestCountMode(msg.GuestCountMode); err != nil {
			return nil, toConnectError(err)
		}
	}
	taxRate := msg.TaxRate
	if taxRate == nil {
		taxRate = s.defaults.TaxRate
	}

	calc, err := calculator.New(tenantID, msg.GuestCount)
	if err != nil {
		return nil, toConnectError(err)
	}
	calc.Name = msg.Name
	calc.VendorID = msg.VendorID
	calc.EventID = msg.EventID
	calc.Notes = msg.Notes
	if err := calc.SetTaxInfo(msg.TaxInfoID, taxRate, msg.TaxRegion); err != nil {
		return nil, toConnectError(err)
	}

	// Mode first, so Variable-mode items keep the quantities they were given.
	if mode != calculator.ModeManual {
		attending := 0
		if mode == calculator.ModeAuto {
			if attending, err = s.store.AttendingCount(ctx, tenantID); err != nil {
				return nil, toConnectError(err)
			}
		}
		if err := calc.SetGuestCountMode(mode, attending); err != nil {
			return nil, toConnectError(err)
		}
	}
	for _, in := range msg.Items {
		input, err := toItemInput(in)
		if err != nil {
			return nil, toConnectError(err)
		}
		if _, err := calc.AddItem(input); err != nil {
			return nil, toConnectError(err)
		}
	}

	rec := calc.Record()
	if err := s.store.CreateCalculator(ctx, &rec); err != nil {
		s.logger.Error("Failed to create calculator", "tenant_id", tenantID, "error", err)
		return nil, toConnectError(err)
	}
	calc.Version = rec.Version
	s.metrics.ObserveGrandTotal(calc.GrandTotal())

	s.logger.Info("Created calculator",
		"calculator_id", calc.ID,
		"tenant_id", tenantID,
		"mode", calc.GuestCountMode().String(),
		"items", calc.TotalItemCount(),
	)
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// GetCalculator returns a calculator with its totals.
func (s *CalculatorService) GetCalculator(ctx context.Context, req *connect.Request[api.GetCalculatorRequest]) (*connect.Response[api.CalculatorResponse], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	calc, _, err := s.snapshot(ctx, tenantID, req.Msg.ID, false)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// ListCalculators returns all of the tenant's calculators, newest first.
func (s *CalculatorService) ListCalculators(ctx context.Context, req *connect.Request[api.ListCalculatorsRequest]) (*connect.Response[api.ListCalculatorsResponse], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListCalculators(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to list calculators", "tenant_id", tenantID, "error", err)
		return nil, toConnectError(err)
	}

	resp := &api.ListCalculatorsResponse{Calculators: make([]*api.Calculator, 0, len(recs))}
	for _, rec := range recs {
		calc, err := calculator.FromRecord(*rec)
		if err != nil {
			s.logger.Error("Stored calculator is invalid", "calculator_id", rec.ID, "error", err)
			return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("calculator %s: %w", rec.ID, err))
		}
		resp.Calculators = append(resp.Calculators, toAPICalculator(calc))
	}
	return connect.NewResponse(resp), nil
}

// DeleteCalculator removes a calculator and its items.
func (s *CalculatorService) DeleteCalculator(ctx context.Context, req *connect.Request[api.DeleteCalculatorRequest]) (*connect.Response[api.DeleteCalculatorResponse], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteCalculator(ctx, tenantID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Deleted calculator", "calculator_id", req.Msg.ID, "tenant_id", tenantID)
	return connect.NewResponse(&api.DeleteCalculatorResponse{}), nil
}

// UpdateDetails changes the name, vendor, event or notes.
func (s *CalculatorService) UpdateDetails(ctx context.Context, req *connect.Request[api.UpdateDetailsRequest]) (*connect.Response[api.CalculatorResponse], error) {
	msg := req.Msg
	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		if !calc.UpdateDetails(msg.Name, msg.VendorID, msg.EventID, msg.Notes) {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// AddItem appends an item to a calculator.
func (s *CalculatorService) AddItem(ctx context.Context, req *connect.Request[api.AddItemRequest]) (*connect.Response[api.ItemResponse], error) {
	input, err := toItemInput(req.Msg.Item)
	if err != nil {
		return nil, toConnectError(err)
	}

	var added calculator.LineItem
	calc, err := s.mutate(ctx, req.Msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		var err error
		added, err = calc.AddItem(input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.ItemResponse{
		Item:       pricedItem(calc, added),
		Calculator: toAPICalculator(calc),
	}), nil
}

// UpdateItem edits the fields present in the request.
func (s *CalculatorService) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.ItemResponse], error) {
	msg := req.Msg
	update := calculator.ItemUpdate{
		Name:      msg.Name,
		Amount:    msg.Amount,
		Quantity:  msg.Quantity,
		SortOrder: msg.SortOrder,
	}

	var updated calculator.LineItem
	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		var err error
		updated, err = calc.UpdateItem(msg.ItemID, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.ItemResponse{
		Item:       pricedItem(calc, updated),
		Calculator: toAPICalculator(calc),
	}), nil
}

// RemoveItem removes an item by id, or by index within one kind's ordered list.
func (s *CalculatorService) RemoveItem(ctx context.Context, req *connect.Request[api.RemoveItemRequest]) (*connect.Response[api.CalculatorResponse], error) {
	msg := req.Msg
	var remove func(*calculator.BillCalculator) error
	switch {
	case msg.ItemID != "":
		remove = func(calc *calculator.BillCalculator) error { return calc.RemoveItem(msg.ItemID) }
	case msg.Kind != "" && msg.Index != nil:
		kind, err := calculator.ParseItemKind(msg.Kind)
		if err != nil {
			return nil, toConnectError(err)
		}
		remove = func(calc *calculator.BillCalculator) error { return calc.RemoveClassifiedItem(kind, *msg.Index) }
	default:
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("itemId, or kind and index, required"))
	}

	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		return remove(calc)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// MoveItem sets an item's sort order.
func (s *CalculatorService) MoveItem(ctx context.Context, req *connect.Request[api.MoveItemRequest]) (*connect.Response[api.ItemResponse], error) {
	msg := req.Msg
	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		return calc.MoveItem(msg.ItemID, msg.SortOrder)
	})
	if err != nil {
		return nil, err
	}

	resp := &api.ItemResponse{Calculator: toAPICalculator(calc)}
	for _, item := range calc.Items() {
		if item.ID == msg.ItemID {
			resp.Item = pricedItem(calc, item)
			break
		}
	}
	return connect.NewResponse(resp), nil
}

// SetGuestCountMode switches mode and converts items. Switching to Auto
// takes the tenant's current attending count.
func (s *CalculatorService) SetGuestCountMode(ctx context.Context, req *connect.Request[api.SetGuestCountModeRequest]) (*connect.Response[api.CalculatorResponse], error) {
	mode, err := calculator.ParseGuestCountMode(req.Msg.Mode)
	if err != nil {
		return nil, toConnectError(err)
	}

	calc, err := s.mutate(ctx, req.Msg.CalculatorID, mode == calculator.ModeAuto, func(calc *calculator.BillCalculator, attending int) error {
		from, guests := calc.GuestCountMode(), calc.GuestCount()
		if err := calc.SetGuestCountMode(mode, attending); err != nil {
			return err
		}
		if from == mode && guests == calc.GuestCount() {
			return errNoChange
		}
		s.logger.Info("Guest count mode changed",
			"calculator_id", calc.ID,
			"from", from.String(),
			"to", mode.String(),
			"guest_count", calc.GuestCount(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// SetGuestCount sets or steps the guest count. Outside Manual mode nothing
// changes and Applied is false.
func (s *CalculatorService) SetGuestCount(ctx context.Context, req *connect.Request[api.SetGuestCountRequest]) (*connect.Response[api.SetGuestCountResponse], error) {
	msg := req.Msg
	if msg.GuestCount == nil && msg.Delta == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("guestCount or delta required"))
	}

	applied := false
	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		before := calc.GuestCount()
		var err error
		switch {
		case msg.GuestCount != nil:
			applied, err = calc.SetGuestCount(*msg.GuestCount)
		case msg.Delta == 1:
			applied = calc.IncrementGuestCount()
		case msg.Delta == -1:
			applied = calc.DecrementGuestCount()
		default:
			applied, err = calc.SetGuestCount(max(0, calc.GuestCount()+msg.Delta))
		}
		if err != nil {
			return err
		}
		if !applied || calc.GuestCount() == before {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.SetGuestCountResponse{
		Applied:    applied,
		Calculator: toAPICalculator(calc),
	}), nil
}

// SetTaxInfo links tax info and applies its rate.
func (s *CalculatorService) SetTaxInfo(ctx context.Context, req *connect.Request[api.SetTaxInfoRequest]) (*connect.Response[api.CalculatorResponse], error) {
	msg := req.Msg
	calc, err := s.mutate(ctx, msg.CalculatorID, false, func(calc *calculator.BillCalculator, _ int) error {
		return calc.SetTaxInfo(msg.TaxInfoID, msg.TaxRate, msg.TaxRegion)
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.CalculatorResponse{Calculator: toAPICalculator(calc)}), nil
}

// SetAttendingCount records the guest list's attending count and pushes it
// to every Auto-mode calculator of the tenant.
func (s *CalculatorService) SetAttendingCount(ctx context.Context, req *connect.Request[api.SetAttendingCountRequest]) (*connect.Response[api.SetAttendingCountResponse], error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	count := req.Msg.AttendingCount
	if count < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("attending count must be >= 0, got %d", count))
	}

	if err := s.store.SetAttendingCount(ctx, tenantID, count); err != nil {
		return nil, toConnectError(err)
	}
	recs, err := s.store.ListCalculators(ctx, tenantID)
	if err != nil {
		return nil, toConnectError(err)
	}

	var (
		mu       sync.Mutex
		resynced = []string{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resyncConcurrency)
	for _, rec := range recs {
		if rec.GuestCountMode != calculator.ModeAuto.String() {
			continue
		}
		id := rec.ID
		g.Go(func() error {
			changed := false
			_, err := s.mutateTenant(gctx, tenantID, id, false, func(calc *calculator.BillCalculator, _ int) error {
				var err error
				if changed, err = calc.SyncGuestCount(count); err != nil {
					return err
				}
				if !changed {
					return errNoChange
				}
				return nil
			})
			if connect.CodeOf(err) == connect.CodeNotFound {
				// Deleted since the list was read.
				s.logger.Debug("Skipping removed calculator", "calculator_id", id, "tenant_id", tenantID)
				return nil
			}
			if err != nil {
				return err
			}
			if changed {
				s.metrics.ObserveResync()
				mu.Lock()
				resynced = append(resynced, id)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Guest count resync failed", "tenant_id", tenantID, "error", err)
		return nil, err
	}

	s.logger.Info("Attending count updated",
		"tenant_id", tenantID,
		"attending", count,
		"resynced", len(resynced),
	)
	return connect.NewResponse(&api.SetAttendingCountResponse{
		AttendingCount: count,
		Resynced:       resynced,
	}), nil
}

// mutate runs fn against the latest stored snapshot of a calculator and saves
// the result. A save that loses a version race is retried on a fresh
// snapshot. When withAttending is set, fn also receives the tenant's
// attending count. The returned error is already a Connect error.
func (s *CalculatorService) mutate(ctx context.Context, calculatorID string, withAttending bool, fn func(*calculator.BillCalculator, int) error) (*calculator.BillCalculator, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutateTenant(ctx, tenantID, calculatorID, withAttending, fn)
}

func (s *CalculatorService) mutateTenant(ctx context.Context, tenantID, calculatorID string, withAttending bool, fn func(*calculator.BillCalculator, int) error) (*calculator.BillCalculator, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		calc, attending, err := s.snapshot(ctx, tenantID, calculatorID, withAttending)
		if err != nil {
			return nil, toConnectError(err)
		}

		if err := fn(calc, attending); err != nil {
			if errors.Is(err, errNoChange) {
				return calc, nil
			}
			return nil, toConnectError(err)
		}

		rec := calc.Record()
		err = s.store.UpdateCalculator(ctx, &rec)
		if err == nil {
			calc.Version = rec.Version
			s.metrics.ObserveGrandTotal(calc.GrandTotal())
			return calc, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			s.logger.Error("Failed to save calculator", "calculator_id", calculatorID, "error", err)
			return nil, toConnectError(err)
		}

		s.metrics.ObserveConflict()
		s.logger.Debug("Version conflict, retrying",
			"calculator_id", calculatorID,
			"version", calc.Version,
			"attempt", attempt,
		)
		lastErr = err
	}
	s.logger.Warn("Giving up after repeated version conflicts", "calculator_id", calculatorID)
	return nil, toConnectError(lastErr)
}

// snapshot loads a calculator and, when asked, the tenant's attending count
// concurrently.
func (s *CalculatorService) snapshot(ctx context.Context, tenantID, calculatorID string, withAttending bool) (*calculator.BillCalculator, int, error) {
	g, gctx := errgroup.WithContext(ctx)

	var rec *models.Calculator
	g.Go(func() error {
		var err error
		rec, err = s.store.GetCalculator(gctx, tenantID, calculatorID)
		return err
	})

	attending := 0
	if withAttending {
		g.Go(func() error {
			var err error
			attending, err = s.store.AttendingCount(gctx, tenantID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	calc, err := calculator.FromRecord(*rec)
	if err != nil {
		return nil, 0, fmt.Errorf("stored calculator %s is invalid: %v", calculatorID, err)
	}
	return calc, attending, nil
}

func requireTenant(ctx context.Context) (string, error) {
	tenantID := middleware.GetTenantID(ctx)
	if tenantID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return tenantID, nil
}

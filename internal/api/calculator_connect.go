package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// CalculatorServiceName is the fully-qualified name of the CalculatorService.
const CalculatorServiceName = "billcalc.v1.CalculatorService"

// Procedure paths for CalculatorService.
const (
	CalculatorServiceCreateCalculatorProcedure  = "/billcalc.v1.CalculatorService/CreateCalculator"
	CalculatorServiceGetCalculatorProcedure     = "/billcalc.v1.CalculatorService/GetCalculator"
	CalculatorServiceListCalculatorsProcedure   = "/billcalc.v1.CalculatorService/ListCalculators"
	CalculatorServiceDeleteCalculatorProcedure  = "/billcalc.v1.CalculatorService/DeleteCalculator"
	CalculatorServiceUpdateDetailsProcedure     = "/billcalc.v1.CalculatorService/UpdateDetails"
	CalculatorServiceAddItemProcedure           = "/billcalc.v1.CalculatorService/AddItem"
	CalculatorServiceUpdateItemProcedure        = "/billcalc.v1.CalculatorService/UpdateItem"
	CalculatorServiceRemoveItemProcedure        = "/billcalc.v1.CalculatorService/RemoveItem"
	CalculatorServiceMoveItemProcedure          = "/billcalc.v1.CalculatorService/MoveItem"
	CalculatorServiceSetGuestCountModeProcedure = "/billcalc.v1.CalculatorService/SetGuestCountMode"
	CalculatorServiceSetGuestCountProcedure     = "/billcalc.v1.CalculatorService/SetGuestCount"
	CalculatorServiceSetTaxInfoProcedure        = "/billcalc.v1.CalculatorService/SetTaxInfo"
	CalculatorServiceSetAttendingCountProcedure = "/billcalc.v1.CalculatorService/SetAttendingCount"
)

// CalculatorServiceHandler is implemented by the server.
type CalculatorServiceHandler interface {
	CreateCalculator(context.Context, *connect.Request[CreateCalculatorRequest]) (*connect.Response[CalculatorResponse], error)
	GetCalculator(context.Context, *connect.Request[GetCalculatorRequest]) (*connect.Response[CalculatorResponse], error)
	ListCalculators(context.Context, *connect.Request[ListCalculatorsRequest]) (*connect.Response[ListCalculatorsResponse], error)
	DeleteCalculator(context.Context, *connect.Request[DeleteCalculatorRequest]) (*connect.Response[DeleteCalculatorResponse], error)
	UpdateDetails(context.Context, *connect.Request[UpdateDetailsRequest]) (*connect.Response[CalculatorResponse], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error)
	UpdateItem(context.Context, *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error)
	RemoveItem(context.Context, *connect.Request[RemoveItemRequest]) (*connect.Response[CalculatorResponse], error)
	MoveItem(context.Context, *connect.Request[MoveItemRequest]) (*connect.Response[ItemResponse], error)
	SetGuestCountMode(context.Context, *connect.Request[SetGuestCountModeRequest]) (*connect.Response[CalculatorResponse], error)
	SetGuestCount(context.Context, *connect.Request[SetGuestCountRequest]) (*connect.Response[SetGuestCountResponse], error)
	SetTaxInfo(context.Context, *connect.Request[SetTaxInfoRequest]) (*connect.Response[CalculatorResponse], error)
	SetAttendingCount(context.Context, *connect.Request[SetAttendingCountRequest]) (*connect.Response[SetAttendingCountResponse], error)
}

// NewCalculatorServiceHandler builds an HTTP handler for svc. It returns the
// path prefix to mount it on.
func NewCalculatorServiceHandler(svc CalculatorServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec(opts)
	mux := http.NewServeMux()
	mux.Handle(CalculatorServiceCreateCalculatorProcedure, connect.NewUnaryHandler(CalculatorServiceCreateCalculatorProcedure, svc.CreateCalculator, opts...))
	mux.Handle(CalculatorServiceGetCalculatorProcedure, connect.NewUnaryHandler(CalculatorServiceGetCalculatorProcedure, svc.GetCalculator, opts...))
	mux.Handle(CalculatorServiceListCalculatorsProcedure, connect.NewUnaryHandler(CalculatorServiceListCalculatorsProcedure, svc.ListCalculators, opts...))
	mux.Handle(CalculatorServiceDeleteCalculatorProcedure, connect.NewUnaryHandler(CalculatorServiceDeleteCalculatorProcedure, svc.DeleteCalculator, opts...))
	mux.Handle(CalculatorServiceUpdateDetailsProcedure, connect.NewUnaryHandler(CalculatorServiceUpdateDetailsProcedure, svc.UpdateDetails, opts...))
	mux.Handle(CalculatorServiceAddItemProcedure, connect.NewUnaryHandler(CalculatorServiceAddItemProcedure, svc.AddItem, opts...))
	mux.Handle(CalculatorServiceUpdateItemProcedure, connect.NewUnaryHandler(CalculatorServiceUpdateItemProcedure, svc.UpdateItem, opts...))
	mux.Handle(CalculatorServiceRemoveItemProcedure, connect.NewUnaryHandler(CalculatorServiceRemoveItemProcedure, svc.RemoveItem, opts...))
	mux.Handle(CalculatorServiceMoveItemProcedure, connect.NewUnaryHandler(CalculatorServiceMoveItemProcedure, svc.MoveItem, opts...))
	mux.Handle(CalculatorServiceSetGuestCountModeProcedure, connect.NewUnaryHandler(CalculatorServiceSetGuestCountModeProcedure, svc.SetGuestCountMode, opts...))
	mux.Handle(CalculatorServiceSetGuestCountProcedure, connect.NewUnaryHandler(CalculatorServiceSetGuestCountProcedure, svc.SetGuestCount, opts...))
	mux.Handle(CalculatorServiceSetTaxInfoProcedure, connect.NewUnaryHandler(CalculatorServiceSetTaxInfoProcedure, svc.SetTaxInfo, opts...))
	mux.Handle(CalculatorServiceSetAttendingCountProcedure, connect.NewUnaryHandler(CalculatorServiceSetAttendingCountProcedure, svc.SetAttendingCount, opts...))
	return "/" + CalculatorServiceName + "/", mux
}

// CalculatorServiceClient is a client for CalculatorService.
type CalculatorServiceClient interface {
	CreateCalculator(context.Context, *connect.Request[CreateCalculatorRequest]) (*connect.Response[CalculatorResponse], error)
	GetCalculator(context.Context, *connect.Request[GetCalculatorRequest]) (*connect.Response[CalculatorResponse], error)
	ListCalculators(context.Context, *connect.Request[ListCalculatorsRequest]) (*connect.Response[ListCalculatorsResponse], error)
	DeleteCalculator(context.Context, *connect.Request[DeleteCalculatorRequest]) (*connect.Response[DeleteCalculatorResponse], error)
	UpdateDetails(context.Context, *connect.Request[UpdateDetailsRequest]) (*connect.Response[CalculatorResponse], error)
	AddItem(context.Context, *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error)
	UpdateItem(context.Context, *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error)
	RemoveItem(context.Context, *connect.Request[RemoveItemRequest]) (*connect.Response[CalculatorResponse], error)
	MoveItem(context.Context, *connect.Request[MoveItemRequest]) (*connect.Response[ItemResponse], error)
	SetGuestCountMode(context.Context, *connect.Request[SetGuestCountModeRequest]) (*connect.Response[CalculatorResponse], error)
	SetGuestCount(context.Context, *connect.Request[SetGuestCountRequest]) (*connect.Response[SetGuestCountResponse], error)
	SetTaxInfo(context.Context, *connect.Request[SetTaxInfoRequest]) (*connect.Response[CalculatorResponse], error)
	SetAttendingCount(context.Context, *connect.Request[SetAttendingCountRequest]) (*connect.Response[SetAttendingCountResponse], error)
}

type calculatorServiceClient struct {
	createCalculator  *connect.Client[CreateCalculatorRequest, CalculatorResponse]
	getCalculator     *connect.Client[GetCalculatorRequest, CalculatorResponse]
	listCalculators   *connect.Client[ListCalculatorsRequest, ListCalculatorsResponse]
	deleteCalculator  *connect.Client[DeleteCalculatorRequest, DeleteCalculatorResponse]
	updateDetails     *connect.Client[UpdateDetailsRequest, CalculatorResponse]
	addItem           *connect.Client[AddItemRequest, ItemResponse]
	updateItem        *connect.Client[UpdateItemRequest, ItemResponse]
	removeItem        *connect.Client[RemoveItemRequest, CalculatorResponse]
	moveItem          *connect.Client[MoveItemRequest, ItemResponse]
	setGuestCountMode *connect.Client[SetGuestCountModeRequest, CalculatorResponse]
	setGuestCount     *connect.Client[SetGuestCountRequest, SetGuestCountResponse]
	setTaxInfo        *connect.Client[SetTaxInfoRequest, CalculatorResponse]
	setAttendingCount *connect.Client[SetAttendingCountRequest, SetAttendingCountResponse]
}

// NewCalculatorServiceClient constructs a client for the service at baseURL.
func NewCalculatorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CalculatorServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &calculatorServiceClient{
		createCalculator:  connect.NewClient[CreateCalculatorRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceCreateCalculatorProcedure, opts...),
		getCalculator:     connect.NewClient[GetCalculatorRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceGetCalculatorProcedure, opts...),
		listCalculators:   connect.NewClient[ListCalculatorsRequest, ListCalculatorsResponse](httpClient, baseURL+CalculatorServiceListCalculatorsProcedure, opts...),
		deleteCalculator:  connect.NewClient[DeleteCalculatorRequest, DeleteCalculatorResponse](httpClient, baseURL+CalculatorServiceDeleteCalculatorProcedure, opts...),
		updateDetails:     connect.NewClient[UpdateDetailsRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceUpdateDetailsProcedure, opts...),
		addItem:           connect.NewClient[AddItemRequest, ItemResponse](httpClient, baseURL+CalculatorServiceAddItemProcedure, opts...),
		updateItem:        connect.NewClient[UpdateItemRequest, ItemResponse](httpClient, baseURL+CalculatorServiceUpdateItemProcedure, opts...),
		removeItem:        connect.NewClient[RemoveItemRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceRemoveItemProcedure, opts...),
		moveItem:          connect.NewClient[MoveItemRequest, ItemResponse](httpClient, baseURL+CalculatorServiceMoveItemProcedure, opts...),
		setGuestCountMode: connect.NewClient[SetGuestCountModeRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceSetGuestCountModeProcedure, opts...),
		setGuestCount:     connect.NewClient[SetGuestCountRequest, SetGuestCountResponse](httpClient, baseURL+CalculatorServiceSetGuestCountProcedure, opts...),
		setTaxInfo:        connect.NewClient[SetTaxInfoRequest, CalculatorResponse](httpClient, baseURL+CalculatorServiceSetTaxInfoProcedure, opts...),
		setAttendingCount: connect.NewClient[SetAttendingCountRequest, SetAttendingCountResponse](httpClient, baseURL+CalculatorServiceSetAttendingCountProcedure, opts...),
	}
}

func (c *calculatorServiceClient) CreateCalculator(ctx context.Context, req *connect.Request[CreateCalculatorRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.createCalculator.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) GetCalculator(ctx context.Context, req *connect.Request[GetCalculatorRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.getCalculator.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) ListCalculators(ctx context.Context, req *connect.Request[ListCalculatorsRequest]) (*connect.Response[ListCalculatorsResponse], error) {
	return c.listCalculators.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) DeleteCalculator(ctx context.Context, req *connect.Request[DeleteCalculatorRequest]) (*connect.Response[DeleteCalculatorResponse], error) {
	return c.deleteCalculator.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) UpdateDetails(ctx context.Context, req *connect.Request[UpdateDetailsRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.updateDetails.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[ItemResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) UpdateItem(ctx context.Context, req *connect.Request[UpdateItemRequest]) (*connect.Response[ItemResponse], error) {
	return c.updateItem.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) MoveItem(ctx context.Context, req *connect.Request[MoveItemRequest]) (*connect.Response[ItemResponse], error) {
	return c.moveItem.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) SetGuestCountMode(ctx context.Context, req *connect.Request[SetGuestCountModeRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.setGuestCountMode.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) SetGuestCount(ctx context.Context, req *connect.Request[SetGuestCountRequest]) (*connect.Response[SetGuestCountResponse], error) {
	return c.setGuestCount.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) SetTaxInfo(ctx context.Context, req *connect.Request[SetTaxInfoRequest]) (*connect.Response[CalculatorResponse], error) {
	return c.setTaxInfo.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) SetAttendingCount(ctx context.Context, req *connect.Request[SetAttendingCountRequest]) (*connect.Response[SetAttendingCountResponse], error) {
	return c.setAttendingCount.CallUnary(ctx, req)
}

func withCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

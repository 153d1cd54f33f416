package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

// SettlementServiceName is the fully-qualified name of the SettlementService.
const SettlementServiceName = "settleup.v1.SettlementService"

// Procedure paths.
const (
	SettlementServiceListSettlementsProcedure    = PackagePrefix + "SettlementService/ListSettlements"
	SettlementServiceGetSettlementProcedure      = PackagePrefix + "SettlementService/GetSettlement"
	SettlementServiceRequestSettlementProcedure  = PackagePrefix + "SettlementService/RequestSettlement"
	SettlementServiceCompleteSettlementProcedure = PackagePrefix + "SettlementService/CompleteSettlement"
	SettlementServiceCreateAllocationsProcedure  = PackagePrefix + "SettlementService/CreateAllocations"
)

// SettlementServiceHandler is implemented by the server.
type SettlementServiceHandler interface {
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	GetSettlement(context.Context, *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error)
	RequestSettlement(context.Context, *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error)
	CompleteSettlement(context.Context, *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error)
	CreateAllocations(context.Context, *connect.Request[api.CreateAllocationsRequest]) (*connect.Response[api.CreateAllocationsResponse], error)
}

// NewSettlementServiceHandler returns the mount path and handler for svc.
func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath("SettlementService"), serviceMux(
		unary(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts),
		unary(SettlementServiceGetSettlementProcedure, svc.GetSettlement, opts),
		unary(SettlementServiceRequestSettlementProcedure, svc.RequestSettlement, opts),
		unary(SettlementServiceCompleteSettlementProcedure, svc.CompleteSettlement, opts),
		unary(SettlementServiceCreateAllocationsProcedure, svc.CreateAllocations, opts),
	)
}

// SettlementServiceClient calls a remote SettlementService.
type SettlementServiceClient struct {
	listSettlements    *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	getSettlement      *connect.Client[api.GetSettlementRequest, api.GetSettlementResponse]
	requestSettlement  *connect.Client[api.RequestSettlementRequest, api.RequestSettlementResponse]
	completeSettlement *connect.Client[api.CompleteSettlementRequest, api.CompleteSettlementResponse]
	createAllocations  *connect.Client[api.CreateAllocationsRequest, api.CreateAllocationsResponse]
}

// NewSettlementServiceClient creates a client for the service at baseURL.
func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	opts = clientOptions(opts)
	return &SettlementServiceClient{
		listSettlements:    newClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL, SettlementServiceListSettlementsProcedure, opts),
		getSettlement:      newClient[api.GetSettlementRequest, api.GetSettlementResponse](httpClient, baseURL, SettlementServiceGetSettlementProcedure, opts),
		requestSettlement:  newClient[api.RequestSettlementRequest, api.RequestSettlementResponse](httpClient, baseURL, SettlementServiceRequestSettlementProcedure, opts),
		completeSettlement: newClient[api.CompleteSettlementRequest, api.CompleteSettlementResponse](httpClient, baseURL, SettlementServiceCompleteSettlementProcedure, opts),
		createAllocations:  newClient[api.CreateAllocationsRequest, api.CreateAllocationsResponse](httpClient, baseURL, SettlementServiceCreateAllocationsProcedure, opts),
	}
}

func (c *SettlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	return c.getSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) RequestSettlement(ctx context.Context, req *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error) {
	return c.requestSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) CompleteSettlement(ctx context.Context, req *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error) {
	return c.completeSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) CreateAllocations(ctx context.Context, req *connect.Request[api.CreateAllocationsRequest]) (*connect.Response[api.CreateAllocationsResponse], error) {
	return c.createAllocations.CallUnary(ctx, req)
}

package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService.
const ExpenseServiceName = "settleup.v1.ExpenseService"

// Procedure paths.
const (
	ExpenseServiceCreateExpenseProcedure     = PackagePrefix + "ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure        = PackagePrefix + "ExpenseService/GetExpense"
	ExpenseServiceListGroupExpensesProcedure = PackagePrefix + "ExpenseService/ListGroupExpenses"
	ExpenseServiceGetGroupTotalProcedure     = PackagePrefix + "ExpenseService/GetGroupTotal"
)

// ExpenseServiceHandler is implemented by the server.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error)
	ListGroupExpenses(context.Context, *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error)
	GetGroupTotal(context.Context, *connect.Request[api.GetGroupTotalRequest]) (*connect.Response[api.GetGroupTotalResponse], error)
}

// NewExpenseServiceHandler returns the mount path and handler for svc.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return servicePath("ExpenseService"), serviceMux(
		unary(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts),
		unary(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts),
		unary(ExpenseServiceListGroupExpensesProcedure, svc.ListGroupExpenses, opts),
		unary(ExpenseServiceGetGroupTotalProcedure, svc.GetGroupTotal, opts),
	)
}

// ExpenseServiceClient calls a remote ExpenseService.
type ExpenseServiceClient struct {
	createExpense     *connect.Client[api.CreateExpenseRequest, api.CreateExpenseResponse]
	getExpense        *connect.Client[api.GetExpenseRequest, api.GetExpenseResponse]
	listGroupExpenses *connect.Client[api.ListGroupExpensesRequest, api.ListGroupExpensesResponse]
	getGroupTotal     *connect.Client[api.GetGroupTotalRequest, api.GetGroupTotalResponse]
}

// NewExpenseServiceClient creates a client for the service at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense:     newClient[api.CreateExpenseRequest, api.CreateExpenseResponse](httpClient, baseURL, ExpenseServiceCreateExpenseProcedure, opts),
		getExpense:        newClient[api.GetExpenseRequest, api.GetExpenseResponse](httpClient, baseURL, ExpenseServiceGetExpenseProcedure, opts),
		listGroupExpenses: newClient[api.ListGroupExpensesRequest, api.ListGroupExpensesResponse](httpClient, baseURL, ExpenseServiceListGroupExpensesProcedure, opts),
		getGroupTotal:     newClient[api.GetGroupTotalRequest, api.GetGroupTotalResponse](httpClient, baseURL, ExpenseServiceGetGroupTotalProcedure, opts),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	return c.listGroupExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetGroupTotal(ctx context.Context, req *connect.Request[api.GetGroupTotalRequest]) (*connect.Response[api.GetGroupTotalResponse], error) {
	return c.getGroupTotal.CallUnary(ctx, req)
}

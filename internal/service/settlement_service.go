package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/settlement"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

// SettlementService exposes the settlement lifecycle.
type SettlementService struct {
	store   storage.Store
	manager *settlement.Manager
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, manager *settlement.Manager) *SettlementService {
	return &SettlementService{store: store, manager: manager}
}

// ListSettlements returns the caller's settlements with totals.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	listing, err := s.manager.List(ctx, userID)
	if err != nil {
		slog.Error("ListSettlements failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(listing.Settlements))
	for i := range listing.Settlements {
		out[i] = toAPIView(&listing.Settlements[i])
	}
	return connect.NewResponse(&api.ListSettlementsResponse{
		Settlements: out,
		Summary:     toAPISummary(listing.Summary),
	}), nil
}

// GetSettlement returns one settlement to its sender or receiver.
func (s *SettlementService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.manager.Get(ctx, req.Msg.SettlementID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetSettlementResponse{Settlement: toAPIView(view)}), nil
}

// RequestSettlement sends a payment request to the debtor.
func (s *SettlementService) RequestSettlement(ctx context.Context, req *connect.Request[api.RequestSettlementRequest]) (*connect.Response[api.RequestSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.manager.Request(ctx, req.Msg.SettlementID, userID); err != nil {
		return nil, toConnectError(err)
	}
	return respondWithView(ctx, s.manager, req.Msg.SettlementID, userID, func(v *api.Settlement) *api.RequestSettlementResponse {
		return &api.RequestSettlementResponse{Settlement: v}
	})
}

// CompleteSettlement confirms that the debtor paid.
func (s *SettlementService) CompleteSettlement(ctx context.Context, req *connect.Request[api.CompleteSettlementRequest]) (*connect.Response[api.CompleteSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.manager.Complete(ctx, req.Msg.SettlementID, userID); err != nil {
		return nil, toConnectError(err)
	}
	return respondWithView(ctx, s.manager, req.Msg.SettlementID, userID, func(v *api.Settlement) *api.CompleteSettlementResponse {
		return &api.CompleteSettlementResponse{Settlement: v}
	})
}

// CreateAllocations derives the settlements of a stored expense that has none.
func (s *SettlementService) CreateAllocations(ctx context.Context, req *connect.Request[api.CreateAllocationsRequest]) (*connect.Response[api.CreateAllocationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := loadMemberGroup(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	allocations, err := s.manager.CreateAllocationsForExpense(ctx, expense.ID)
	if err != nil {
		slog.Warn("CreateAllocations failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.CreateAllocationsResponse{
		Settlements: toAPISettlements(expense, allocations),
	}), nil
}

// respondWithView reloads the settlement after a transition so the response
// carries resolved names.
func respondWithView[T any](ctx context.Context, m *settlement.Manager, id, userID string, build func(*api.Settlement) *T) (*connect.Response[T], error) {
	view, err := m.Get(ctx, id, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(build(toAPIView(view))), nil
}

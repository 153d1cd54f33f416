package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/settlement"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService records expenses and derives their settlements.
type ExpenseService struct {
	store   storage.Store
	manager *settlement.Manager
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(store storage.Store, manager *settlement.Manager) *ExpenseService {
	return &ExpenseService{store: store, manager: manager}
}

// CreateExpense validates and records an expense together with its
// allocations. Nothing is stored if any check fails.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateExpense request received",
		"group_id", req.Msg.GroupID,
		"type", req.Msg.SettlementType,
		"participants_count", len(req.Msg.Participants),
		"items_count", len(req.Msg.Items),
	)

	group, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	expense, err := expenseFromRequest(req.Msg, userID)
	if err != nil {
		slog.Warn("CreateExpense validation failed", "error", err)
		return nil, toConnectError(err)
	}
	expense.GroupID = group.ID

	if err := s.checkUsersExist(ctx, expense); err != nil {
		return nil, toConnectError(err)
	}

	allocations, err := s.manager.RecordExpense(ctx, expense)
	if err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	s.autoAddParticipantsToGroup(ctx, group, expense)

	slog.Info("Expense created", "expense_id", expense.ID, "allocations", len(allocations))
	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense:     toAPIExpense(expense),
		Settlements: toAPISettlements(expense, allocations),
	}), nil
}

// GetExpense returns an expense and its settlements to group members.
func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
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

	stored, err := s.store.ListAllocationsByExpense(ctx, expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	allocations := make([]models.Allocation, len(stored))
	for i, a := range stored {
		allocations[i] = *a
	}

	return connect.NewResponse(&api.GetExpenseResponse{
		Expense:     toAPIExpense(expense),
		Settlements: toAPISettlements(expense, allocations),
	}), nil
}

// ListGroupExpenses returns a group's expenses, newest first.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListGroupExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: out}), nil
}

// GetGroupTotal sums everything spent in a group.
func (s *ExpenseService) GetGroupTotal(ctx context.Context, req *connect.Request[api.GetGroupTotalRequest]) (*connect.Response[api.GetGroupTotalResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := loadMemberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	total, err := s.store.GroupTotal(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetGroupTotalResponse{Total: total, ExpenseCount: len(expenses)}), nil
}

// expenseFromRequest parses and validates the request. Group and user
// existence are checked separately against storage.
func expenseFromRequest(msg *api.CreateExpenseRequest, callerID string) (*models.Expense, error) {
	title := strings.TrimSpace(msg.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrInvalidInput)
	}

	settlementType, err := models.ParseSettlementType(msg.SettlementType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calculator.ErrInvalidSettlementType, err)
	}

	total, err := parseAmount("total", msg.Total)
	if err != nil {
		return nil, err
	}

	participants, err := uniqueParticipants("participants", msg.Participants)
	if err != nil {
		return nil, err
	}

	payerID := msg.PayerID
	if payerID == "" {
		payerID = callerID
	}

	spentAt := msg.SpentAt
	if spentAt == 0 {
		spentAt = time.Now().Unix()
	}

	expense := &models.Expense{
		PayerID:      payerID,
		Title:        title,
		Total:        total,
		SpentAt:      spentAt,
		Type:         settlementType,
		Participants: participants,
	}

	allowed := make(map[string]bool, len(participants))
	for _, p := range participants {
		allowed[p] = true
	}

	var itemsTotal int64
	for i, in := range msg.Items {
		if in == nil {
			return nil, fmt.Errorf("%w: item %d is empty", errs.ErrInvalidInput, i)
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item %d has no name", errs.ErrInvalidInput, i)
		}
		price, err := parseAmount(fmt.Sprintf("item %q price", name), in.Price)
		if err != nil {
			return nil, err
		}
		itemParticipants, err := uniqueParticipants(fmt.Sprintf("item %q participants", name), in.Participants)
		if err != nil {
			return nil, err
		}
		for _, p := range itemParticipants {
			if !allowed[p] {
				return nil, fmt.Errorf("%w: item %q participant %s is not an expense participant", errs.ErrInvalidInput, name, p)
			}
		}
		itemsTotal += price
		expense.Items = append(expense.Items, models.ExpenseItem{
			Name:         name,
			Price:        price,
			Participants: itemParticipants,
		})
	}

	if settlementType == models.SettlementItemized {
		if len(expense.Items) == 0 {
			return nil, fmt.Errorf("%w: itemized expense needs at least one item", errs.ErrInvalidInput)
		}
		if itemsTotal != total {
			return nil, fmt.Errorf("%w: items add up to %d, total is %d", errs.ErrInvalidInput, itemsTotal, total)
		}
	}
	return expense, nil
}

func uniqueParticipants(field string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", calculator.ErrNoParticipants, field)
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: %s contains an empty id", errs.ErrInvalidInput, field)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s lists %s twice", errs.ErrInvalidInput, field, id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func (s *ExpenseService) checkUsersExist(ctx context.Context, expense *models.Expense) error {
	ids := append([]string{expense.PayerID}, expense.Participants...)
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	var missing []error
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", errs.ErrUnknownParticipant, id))
		}
	}
	return errors.Join(missing...)
}

// autoAddParticipantsToGroup adds participants and the payer who are not yet
// group members. Failures are logged; the expense is already recorded.
func (s *ExpenseService) autoAddParticipantsToGroup(ctx context.Context, group *models.Group, expense *models.Expense) {
	people := append([]string{expense.PayerID}, expense.Participants...)
	for _, id := range people {
		if group.HasMember(id) {
			continue
		}
		if err := s.store.AddGroupMember(ctx, group.ID, id); err != nil {
			slog.Warn("Failed to add participant to group", "group_id", group.ID, "user_id", id, "error", err)
			continue
		}
		group.Members = append(group.Members, id)
		slog.Info("Auto-added participant to group", "group_id", group.ID, "user_id", id)
	}
}

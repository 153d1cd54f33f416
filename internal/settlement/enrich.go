package settlement

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// enricher resolves display names for allocations, loading each group,
// expense and user once per call.
type enricher struct {
	store    storage.Store
	groups   map[string]*models.Group
	expenses map[string]*models.Expense
}

func newEnricher(store storage.Store) *enricher {
	return &enricher{
		store:    store,
		groups:   make(map[string]*models.Group),
		expenses: make(map[string]*models.Expense),
	}
}

func (e *enricher) enrich(ctx context.Context, allocations []*models.Allocation) ([]View, error) {
	var userIDs []string
	seen := make(map[string]bool)
	for _, a := range allocations {
		for _, id := range []string{a.SenderID, a.ReceiverID} {
			if !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}
	users, err := e.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(allocations))
	for _, a := range allocations {
		group, err := e.group(ctx, a.GroupID)
		if err != nil {
			return nil, err
		}
		expense, err := e.expense(ctx, a.ExpenseID)
		if err != nil {
			return nil, err
		}

		view := View{
			Allocation:   a,
			GroupName:    group.Name,
			ExpenseTitle: expense.Title,
			SpentAt:      expense.SpentAt,
			SenderName:   displayName(users, a.SenderID),
			ReceiverName: displayName(users, a.ReceiverID),
		}
		if item := expense.ItemByID(a.ItemID); a.ItemID != "" && item != nil {
			view.ItemName = item.Name
		}
		views = append(views, view)
	}
	return views, nil
}

func (e *enricher) group(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := e.groups[id]; ok {
		return g, nil
	}
	g, err := e.store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	e.groups[id] = g
	return g, nil
}

func (e *enricher) expense(ctx context.Context, id string) (*models.Expense, error) {
	if x, ok := e.expenses[id]; ok {
		return x, nil
	}
	x, err := e.store.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	e.expenses[id] = x
	return x, nil
}

func displayName(users map[string]*models.User, id string) string {
	if u, ok := users[id]; ok {
		return u.DisplayName
	}
	return id
}

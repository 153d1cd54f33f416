package service

import (
	"sort"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/settlement"
	"github.com/mmynk/settleup/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		PaySuffix:       u.PaySuffix,
		MessengerLinked: u.MessengerToken != "",
		CreatedAt:       u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group, users map[string]*models.User) *api.Group {
	members := make([]*api.Member, len(g.Members))
	for i, id := range g.Members {
		members[i] = &api.Member{UserID: id}
		if u, ok := users[id]; ok {
			members[i].DisplayName = u.DisplayName
		}
	}
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	items := make([]*api.ExpenseItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = &api.ExpenseItem{
			ID:           item.ID,
			Name:         item.Name,
			Price:        item.Price,
			Participants: item.Participants,
		}
	}
	return &api.Expense{
		ID:             e.ID,
		GroupID:        e.GroupID,
		PayerID:        e.PayerID,
		Title:          e.Title,
		Total:          e.Total,
		SpentAt:        e.SpentAt,
		SettlementType: string(e.Type),
		Participants:   e.Participants,
		Items:          items,
		CreatedAt:      e.CreatedAt,

		AllocationsCreated: e.AllocationsCreated,
	}
}

func toAPISettlement(a *models.Allocation) *api.Settlement {
	return &api.Settlement{
		ID:         a.ID,
		GroupID:    a.GroupID,
		ExpenseID:  a.ExpenseID,
		ItemID:     a.ItemID,
		SenderID:   a.SenderID,
		ReceiverID: a.ReceiverID,
		Amount:     a.ShareAmount,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
	}
}

// toAPISettlements converts allocations of one expense, naming the expense and its items.
func toAPISettlements(e *models.Expense, allocations []models.Allocation) []*api.Settlement {
	out := make([]*api.Settlement, len(allocations))
	for i := range allocations {
		s := toAPISettlement(&allocations[i])
		s.ExpenseTitle = e.Title
		s.SpentAt = e.SpentAt
		if item := e.ItemByID(s.ItemID); item != nil {
			s.ItemName = item.Name
		}
		out[i] = s
	}
	return out
}

func toAPIView(v *settlement.View) *api.Settlement {
	s := toAPISettlement(v.Allocation)
	s.GroupName = v.GroupName
	s.ExpenseTitle = v.ExpenseTitle
	s.ItemName = v.ItemName
	s.SpentAt = v.SpentAt
	s.SenderName = v.SenderName
	s.ReceiverName = v.ReceiverName
	return s
}

func toAPITotals(t calculator.StatusTotals) api.StatusTotals {
	return api.StatusTotals{
		Pending:     t.Pending,
		Requested:   t.Requested,
		Completed:   t.Completed,
		Outstanding: t.Outstanding(),
	}
}

func toAPISummary(s calculator.UserSummary) *api.SettlementSummary {
	summary := &api.SettlementSummary{
		Owes: toAPITotals(s.Owes),
		Owed: toAPITotals(s.Owed),
	}
	for id, net := range s.Counterparties {
		if net == 0 {
			continue
		}
		summary.Counterparties = append(summary.Counterparties, &api.Counterparty{UserID: id, Net: net})
	}
	sort.Slice(summary.Counterparties, func(i, j int) bool {
		return summary.Counterparties[i].UserID < summary.Counterparties[j].UserID
	})
	return summary
}

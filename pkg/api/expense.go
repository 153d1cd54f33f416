package api

// Settlement types.
const (
	SettlementTypeEven     = "EVEN"
	SettlementTypeItemized = "ITEMIZED"
)

type ExpenseItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        int64    `json:"price"`
	Participants []string `json:"participants"`
}

type Expense struct {
	ID             string         `json:"id"`
	GroupID        string         `json:"groupId"`
	PayerID        string         `json:"payerId"`
	Title          string         `json:"title"`
	Total          int64          `json:"total"`
	SpentAt        int64          `json:"spentAt"`
	SettlementType string         `json:"settlementType"`
	Participants   []string       `json:"participants"`
	Items          []*ExpenseItem `json:"items,omitempty"`
	CreatedAt      int64          `json:"createdAt"`

	AllocationsCreated bool `json:"allocationsCreated"`
}

type ExpenseItemInput struct {
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Participants []string `json:"participants"`
}

// CreateExpenseRequest records an expense. PayerID defaults to the caller and
// SpentAt to now. Participant order decides who absorbs split remainders.
type CreateExpenseRequest struct {
	GroupID        string              `json:"groupId"`
	PayerID        string              `json:"payerId,omitempty"`
	Title          string              `json:"title"`
	Total          string              `json:"total"`
	SpentAt        int64               `json:"spentAt,omitempty"`
	SettlementType string              `json:"settlementType"`
	Participants   []string            `json:"participants"`
	Items          []*ExpenseItemInput `json:"items,omitempty"`
}

type CreateExpenseResponse struct {
	Expense     *Expense      `json:"expense"`
	Settlements []*Settlement `json:"settlements"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type GetExpenseResponse struct {
	Expense     *Expense      `json:"expense"`
	Settlements []*Settlement `json:"settlements"`
}

type ListGroupExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListGroupExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GetGroupTotalRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupTotalResponse struct {
	Total        int64 `json:"total"`
	ExpenseCount int   `json:"expenseCount"`
}

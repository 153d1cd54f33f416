package api

// Settlement statuses.
const (
	StatusPending   = "PENDING"
	StatusRequested = "REQUESTED"
	StatusCompleted = "COMPLETED"
)

// Settlement is one allocation: SenderID owes ReceiverID Amount.
// Name fields are filled where the server resolved them.
type Settlement struct {
	ID           string `json:"id"`
	GroupID      string `json:"groupId"`
	GroupName    string `json:"groupName,omitempty"`
	ExpenseID    string `json:"expenseId"`
	ExpenseTitle string `json:"expenseTitle,omitempty"`
	ItemID       string `json:"itemId,omitempty"`
	ItemName     string `json:"itemName,omitempty"`
	SenderID     string `json:"senderId"`
	SenderName   string `json:"senderName,omitempty"`
	ReceiverID   string `json:"receiverId"`
	ReceiverName string `json:"receiverName,omitempty"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	SpentAt      int64  `json:"spentAt,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
}

type StatusTotals struct {
	Pending     int64 `json:"pending"`
	Requested   int64 `json:"requested"`
	Completed   int64 `json:"completed"`
	Outstanding int64 `json:"outstanding"`
}

// Counterparty is the outstanding net amount with one other user.
// Positive means they owe the caller.
type Counterparty struct {
	UserID string `json:"userId"`
	Net    int64  `json:"net"`
}

type SettlementSummary struct {
	Owes           StatusTotals    `json:"owes"`
	Owed           StatusTotals    `json:"owed"`
	Counterparties []*Counterparty `json:"counterparties,omitempty"`
}

type ListSettlementsRequest struct{}

type ListSettlementsResponse struct {
	Settlements []*Settlement      `json:"settlements"`
	Summary     *SettlementSummary `json:"summary"`
}

type GetSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type GetSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type RequestSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type RequestSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type CompleteSettlementRequest struct {
	SettlementID string `json:"settlementId"`
}

type CompleteSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type CreateAllocationsRequest struct {
	ExpenseID string `json:"expenseId"`
}

type CreateAllocationsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

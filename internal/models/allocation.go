package models

// SettlementStatus is the lifecycle state of an allocation.
type SettlementStatus string

const (
	// StatusPending is the initial state. No payment request has been delivered yet.
	StatusPending SettlementStatus = "PENDING"
	// StatusRequested means the debtor has been notified.
	StatusRequested SettlementStatus = "REQUESTED"
	// StatusCompleted means the creditor confirmed receipt. Terminal.
	StatusCompleted SettlementStatus = "COMPLETED"
)

// Allocation is a single debtor-to-creditor obligation derived from one
// expense, or from one item of an itemized expense.
type Allocation struct {
	// ID is the unique identifier for the allocation (UUID format).
	ID string

	// GroupID is the group of the originating expense.
	GroupID string

	// ExpenseID is the originating expense.
	ExpenseID string

	// ItemID is the originating item for itemized expenses, empty otherwise.
	ItemID string

	// SenderID is the debtor: the participant who owes money.
	SenderID string

	// ReceiverID is the creditor, normally the payer of the expense.
	ReceiverID string

	// ShareAmount is the amount owed, always positive.
	ShareAmount int64

	// Status is the lifecycle state. The only field that changes after creation.
	Status SettlementStatus

	// CreatedAt is the Unix timestamp when the allocation was created.
	CreatedAt int64
}

// Involves reports whether userID is the sender or the receiver.
func (a *Allocation) Involves(userID string) bool {
	return a.SenderID == userID || a.ReceiverID == userID
}

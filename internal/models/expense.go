package models

import "fmt"

// SettlementType selects how an expense is divided among its participants.
type SettlementType string

const (
	// SettlementEven splits the expense total equally among all participants.
	SettlementEven SettlementType = "EVEN"
	// SettlementItemized splits each item's price among the item's own participants.
	SettlementItemized SettlementType = "ITEMIZED"
)

// ParseSettlementType converts a wire value into a SettlementType.
func ParseSettlementType(s string) (SettlementType, error) {
	switch SettlementType(s) {
	case SettlementEven, SettlementItemized:
		return SettlementType(s), nil
	}
	return "", fmt.Errorf("unknown settlement type %q", s)
}

// Expense represents one purchase made by a payer on behalf of a group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the user who paid. The payer is the creditor of every
	// allocation derived from this expense.
	PayerID string

	// Title is the store name or a short description (e.g., "Olive Young").
	Title string

	// Total is the full amount paid, in whole currency units.
	// For itemized expenses it equals the sum of item prices.
	Total int64

	// SpentAt is the Unix timestamp of the purchase.
	SpentAt int64

	// Type is the splitting mode.
	Type SettlementType

	// Participants is the ordered list of user IDs sharing the expense.
	// The order decides who absorbs the remainder of an even split.
	Participants []string

	// Items are the line items. Required for itemized expenses and
	// informational otherwise.
	Items []ExpenseItem

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// AllocationsCreated is set once the allocation set has been derived,
	// even when that set is empty (the payer is the only participant).
	AllocationsCreated bool
}

// ItemByID returns the item with the given ID, or nil.
func (e *Expense) ItemByID(id string) *ExpenseItem {
	for i := range e.Items {
		if e.Items[i].ID == id {
			return &e.Items[i]
		}
	}
	return nil
}

// ExpenseItem represents a single line item of an expense.
type ExpenseItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is the item name as printed on the receipt.
	Name string

	// Price is the line amount, in whole currency units.
	Price int64

	// Participants is the ordered list of user IDs who consumed the item.
	// Every item participant must also be an expense participant.
	Participants []string
}

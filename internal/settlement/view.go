package settlement

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// View is an allocation enriched with the names a client displays.
type View struct {
	Allocation *models.Allocation

	GroupName    string
	ExpenseTitle string
	ItemName     string // empty unless the allocation came from an item
	SpentAt      int64
	SenderName   string
	ReceiverName string
}

// Listing is everything a user sees on their settlements page.
type Listing struct {
	Settlements []View
	Summary     calculator.UserSummary
}

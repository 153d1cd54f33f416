package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/errs"
)

var (
	// ErrInvalidAmount is returned when an amount to split is not positive.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", errs.ErrInvalidInput)
	// ErrNoParticipants is returned when there is nobody to split an amount between.
	ErrNoParticipants = fmt.Errorf("%w: must have at least one participant", errs.ErrInvalidInput)
)

// Share is one participant's portion of a split amount.
type Share struct {
	Participant string
	Amount      int64
}

// SplitEven divides amount into n integer shares that sum exactly to amount.
//
// Every share is amount/n; the remainder amount%n is handed out one unit at a
// time to the first entries. Callers rely on this ordering: the participant
// recorded first absorbs the rounding remainder.
func SplitEven(amount int64, n int) ([]int64, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if n <= 0 {
		return nil, ErrNoParticipants
	}

	base := amount / int64(n)
	remainder := amount % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// Shares splits amount evenly among participants, keeping their order.
func Shares(amount int64, participants []string) ([]Share, error) {
	amounts, err := SplitEven(amount, len(participants))
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{Participant: p, Amount: amounts[i]}
	}
	return shares, nil
}

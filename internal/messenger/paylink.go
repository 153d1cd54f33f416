package messenger

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/mmynk/settleup/internal/errs"
)

// DefaultPayLinkBase is the payment provider's QR deep link prefix.
const DefaultPayLinkBase = "https://qr.kakaopay.com/"

// MaxPaymentAmount is the largest amount whose link encoding fits in int64.
const MaxPaymentAmount = math.MaxInt64 / 8

// GeneratePaymentLink builds the payee deep link for amount: the payee suffix,
// the upper-case hex of amount*8, and a random four digit tail that keeps
// repeated links distinct.
func GeneratePaymentLink(base, payeeSuffix string, amount int64) (string, error) {
	if payeeSuffix == "" {
		return "", fmt.Errorf("%w: payment suffix is required", errs.ErrInvalidInput)
	}
	if amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", errs.ErrInvalidInput)
	}
	if amount > MaxPaymentAmount {
		return "", fmt.Errorf("%w: amount %d is too large for a payment link", errs.ErrInvalidInput, amount)
	}
	if base == "" {
		base = DefaultPayLinkBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	hexAmount := strings.ToUpper(strconv.FormatInt(amount*8, 16))
	return fmt.Sprintf("%s%s%s%04d", base, payeeSuffix, hexAmount, rand.IntN(10000)), nil
}

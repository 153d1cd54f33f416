package calculator

import (
	"testing"

	"github.com/mmynk/settleup/internal/models"
)

func TestSummarize(t *testing.T) {
	allocations := []*models.Allocation{
		{SenderID: "bob", ReceiverID: "alice", ShareAmount: 300, Status: models.StatusPending},
		{SenderID: "carol", ReceiverID: "alice", ShareAmount: 200, Status: models.StatusRequested},
		{SenderID: "alice", ReceiverID: "bob", ShareAmount: 100, Status: models.StatusPending},
		{SenderID: "dave", ReceiverID: "alice", ShareAmount: 50, Status: models.StatusCompleted},
		{SenderID: "bob", ReceiverID: "carol", ShareAmount: 999, Status: models.StatusPending},
	}

	summary := Summarize("alice", allocations)

	if summary.Owed.Pending != 300 || summary.Owed.Requested != 200 || summary.Owed.Completed != 50 {
		t.Errorf("Owed = %+v", summary.Owed)
	}
	if summary.Owed.Outstanding() != 500 {
		t.Errorf("Owed outstanding = %d, want 500", summary.Owed.Outstanding())
	}
	if summary.Owes.Pending != 100 || summary.Owes.Outstanding() != 100 {
		t.Errorf("Owes = %+v", summary.Owes)
	}

	// bob: owes alice 300, alice owes bob 100 -> +200 for alice.
	if got := summary.Counterparties["bob"]; got != 200 {
		t.Errorf("bob net = %d, want 200", got)
	}
	if got := summary.Counterparties["carol"]; got != 200 {
		t.Errorf("carol net = %d, want 200", got)
	}
	if _, ok := summary.Counterparties["dave"]; ok {
		t.Error("completed allocations should not count as outstanding")
	}
}

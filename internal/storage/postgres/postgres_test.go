package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Set SETTLEUP_TEST_POSTGRES_URL to a disposable database to run these tests.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("SETTLEUP_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("SETTLEUP_TEST_POSTGRES_URL not set")
	}
	store, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := models.NewUser("", "alice", "hash")
	bob := models.NewUser("", "bob", "hash")
	alice.Email = alice.ID + "@example.com"
	bob.Email = bob.ID + "@example.com"
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	group := &models.Group{Name: "Trip", Members: []string{alice.ID}}
	require.NoError(t, store.CreateGroup(ctx, group))
	require.NoError(t, store.AddGroupMember(ctx, group.ID, bob.ID))
	require.NoError(t, store.AddGroupMember(ctx, group.ID, bob.ID))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, got.Members)

	expense := &models.Expense{
		GroupID:      group.ID,
		PayerID:      alice.ID,
		Title:        "Dinner",
		Total:        1000,
		Type:         models.SettlementEven,
		Participants: []string{bob.ID, alice.ID},
	}
	require.NoError(t, store.CreateExpense(ctx, expense, []models.Allocation{
		{SenderID: bob.ID, ReceiverID: alice.ID, ShareAmount: 500},
	}))

	stored, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, alice.ID}, stored.Participants)

	err = store.SaveAllocations(ctx, expense.ID, nil)
	assert.ErrorIs(t, err, storage.ErrAllocationsExist)

	solo := &models.Expense{
		GroupID: group.ID, PayerID: alice.ID, Title: "Coffee", Total: 4500,
		Type: models.SettlementEven, Participants: []string{alice.ID},
	}
	require.NoError(t, store.CreateExpense(ctx, solo, nil))
	require.NoError(t, store.SaveAllocations(ctx, solo.ID, nil))
	err = store.SaveAllocations(ctx, solo.ID, nil)
	assert.ErrorIs(t, err, storage.ErrAllocationsExist, "an empty set counts as created")

	allocations, err := store.ListAllocationsByExpense(ctx, expense.ID)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	id := allocations[0].ID

	require.NoError(t, store.UpdateAllocationStatus(ctx, id, models.StatusPending, models.StatusRequested))
	err = store.UpdateAllocationStatus(ctx, id, models.StatusPending, models.StatusRequested)
	assert.ErrorIs(t, err, storage.ErrStatusConflict)

	_, err = store.GetAllocation(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNoSettlement)

	total, err := store.GroupTotal(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5500), total)
}

package settlement

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/messenger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

type fakeNotifier struct {
	mu         sync.Mutex
	resolveErr error
	sendErr    error
	resolved   []string
	sent       []*messenger.Message
	handles    []string
}

func (f *fakeNotifier) ResolveHandle(_ context.Context, token, targetUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, targetUserID)
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return "handle-" + targetUserID, nil
}

func (f *fakeNotifier) Send(_ context.Context, token, handle string, message *messenger.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.handles = append(f.handles, handle)
	f.sent = append(f.sent, message)
	return nil
}

type fixture struct {
	store    storage.Store
	notifier *fakeNotifier
	manager  *Manager
	payer    *models.User
	debtor   *models.User
	stranger *models.User
	group    *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{store: store, notifier: &fakeNotifier{}}
	f.payer = models.NewUser("payer@example.com", "Payer", "hash")
	f.payer.PaySuffix = "FX1234"
	f.payer.MessengerToken = "payer-token"
	f.debtor = models.NewUser("debtor@example.com", "Debtor", "hash")
	f.stranger = models.NewUser("stranger@example.com", "Stranger", "hash")
	for _, u := range []*models.User{f.payer, f.debtor, f.stranger} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	f.group = &models.Group{Name: "Jeju trip", Members: []string{f.payer.ID, f.debtor.ID, f.stranger.ID}}
	require.NoError(t, store.CreateGroup(ctx, f.group))

	templates, err := messenger.NewTemplates("ko", "원", "")
	require.NoError(t, err)
	f.manager = NewManager(store, f.notifier, templates, "")
	return f
}

// evenAllocation records an even 1000 expense paid by payer and shared with
// debtor, returning the single resulting allocation.
func (f *fixture) evenAllocation(t *testing.T) *models.Allocation {
	t.Helper()
	expense := &models.Expense{
		GroupID:      f.group.ID,
		PayerID:      f.payer.ID,
		Title:        "Black pork",
		Total:        1000,
		Type:         models.SettlementEven,
		Participants: []string{f.payer.ID, f.debtor.ID},
	}
	allocations, err := f.manager.RecordExpense(context.Background(), expense)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	return &allocations[0]
}

func (f *fixture) setStatus(t *testing.T, a *models.Allocation, status models.SettlementStatus) {
	t.Helper()
	ctx := context.Background()
	if status == models.StatusPending {
		return
	}
	require.NoError(t, f.store.UpdateAllocationStatus(ctx, a.ID, models.StatusPending, models.StatusRequested))
	if status == models.StatusCompleted {
		require.NoError(t, f.store.UpdateAllocationStatus(ctx, a.ID, models.StatusRequested, models.StatusCompleted))
	}
}

func TestTransitionsByStateAndCaller(t *testing.T) {
	type caller int
	const (
		sender caller = iota
		receiver
		stranger
	)
	callers := map[caller]string{sender: "sender", receiver: "receiver", stranger: "stranger"}

	tests := []struct {
		op      string
		from    models.SettlementStatus
		caller  caller
		wantErr error
		want    models.SettlementStatus
	}{
		{"request", models.StatusPending, receiver, nil, models.StatusRequested},
		{"request", models.StatusRequested, receiver, errs.ErrInvalidStateTransition, models.StatusRequested},
		{"request", models.StatusCompleted, receiver, errs.ErrInvalidStateTransition, models.StatusCompleted},
		{"request", models.StatusPending, sender, errs.ErrNoAccessPermission, models.StatusPending},
		{"request", models.StatusRequested, sender, errs.ErrNoAccessPermission, models.StatusRequested},
		{"request", models.StatusCompleted, sender, errs.ErrNoAccessPermission, models.StatusCompleted},
		{"request", models.StatusPending, stranger, errs.ErrNoAccessPermission, models.StatusPending},
		{"request", models.StatusCompleted, stranger, errs.ErrNoAccessPermission, models.StatusCompleted},
		{"complete", models.StatusRequested, receiver, nil, models.StatusCompleted},
		{"complete", models.StatusPending, receiver, errs.ErrInvalidStateTransition, models.StatusPending},
		{"complete", models.StatusCompleted, receiver, errs.ErrInvalidStateTransition, models.StatusCompleted},
		{"complete", models.StatusPending, sender, errs.ErrNoAccessPermission, models.StatusPending},
		{"complete", models.StatusRequested, sender, errs.ErrNoAccessPermission, models.StatusRequested},
		{"complete", models.StatusCompleted, sender, errs.ErrNoAccessPermission, models.StatusCompleted},
		{"complete", models.StatusRequested, stranger, errs.ErrNoAccessPermission, models.StatusRequested},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s from %s by %s", tt.op, tt.from, callers[tt.caller]), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := f.evenAllocation(t)
			f.setStatus(t, a, tt.from)

			callerID := map[caller]string{
				sender:   f.debtor.ID,
				receiver: f.payer.ID,
				stranger: f.stranger.ID,
			}[tt.caller]

			var err error
			switch tt.op {
			case "request":
				_, err = f.manager.Request(ctx, a.ID, callerID)
			case "complete":
				_, err = f.manager.Complete(ctx, a.ID, callerID)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			stored, err := f.store.GetAllocation(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stored.Status)
		})
	}
}

func TestRequestDeliversPaymentRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.evenAllocation(t)

	got, err := f.manager.Request(ctx, a.ID, f.payer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRequested, got.Status)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, []string{f.debtor.ID}, f.notifier.resolved)
	assert.Equal(t, "handle-"+f.debtor.ID, f.notifier.handles[0])

	msg := f.notifier.sent[0]
	assert.True(t, strings.HasPrefix(msg.Buttons[0].Link.WebURL, messenger.DefaultPayLinkBase+"FX1234"))
	assert.Equal(t, "500원", msg.ItemContent.SumOp)
	assert.Equal(t, "Jeju trip", msg.ItemContent.Items[0].ItemOp)
	assert.Equal(t, "Black pork", msg.ItemContent.Items[1].Item)
	assert.Equal(t, "1,000원", msg.ItemContent.Items[1].ItemOp)
}

func TestRequestFailureLeavesPending(t *testing.T) {
	tests := []struct {
		name       string
		resolveErr error
		sendErr    error
		wantErr    error
		wantSent   bool
	}{
		{
			name:       "provider unavailable while resolving",
			resolveErr: fmt.Errorf("%w: friends page 2: status 500", errs.ErrExternalService),
			wantErr:    errs.ErrExternalService,
		},
		{
			name:       "debtor not a contact",
			resolveErr: errs.ErrContactNotFound,
			wantErr:    errs.ErrContactNotFound,
		},
		{
			name:    "delivery not confirmed",
			sendErr: fmt.Errorf("%w: handle not in successful receivers", errs.ErrExternalService),
			wantErr: errs.ErrExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a := f.evenAllocation(t)
			f.notifier.resolveErr = tt.resolveErr
			f.notifier.sendErr = tt.sendErr

			_, err := f.manager.Request(ctx, a.ID, f.payer.ID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.notifier.sent)

			stored, err := f.store.GetAllocation(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPending, stored.Status)

			// A later retry succeeds once the provider recovers.
			f.notifier.resolveErr, f.notifier.sendErr = nil, nil
			_, err = f.manager.Request(ctx, a.ID, f.payer.ID)
			assert.NoError(t, err)
		})
	}
}

func TestRequestRequiresReceiverProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.evenAllocation(t)

	f.payer.PaySuffix = ""
	require.NoError(t, f.store.UpdateUserProfile(ctx, f.payer))

	_, err := f.manager.Request(ctx, a.ID, f.payer.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Empty(t, f.notifier.resolved)
}

func TestUnknownSettlement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.Request(ctx, "missing", f.payer.ID)
	assert.ErrorIs(t, err, errs.ErrNoSettlement)
	_, err = f.manager.Complete(ctx, "missing", f.payer.ID)
	assert.ErrorIs(t, err, errs.ErrNoSettlement)
	_, err = f.manager.Get(ctx, "missing", f.payer.ID)
	assert.ErrorIs(t, err, errs.ErrNoSettlement)
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.evenAllocation(t)

	for _, id := range []string{f.payer.ID, f.debtor.ID} {
		view, err := f.manager.Get(ctx, a.ID, id)
		require.NoError(t, err)
		assert.Equal(t, "Jeju trip", view.GroupName)
		assert.Equal(t, "Black pork", view.ExpenseTitle)
		assert.Equal(t, "Debtor", view.SenderName)
		assert.Equal(t, "Payer", view.ReceiverName)
	}

	_, err := f.manager.Get(ctx, a.ID, f.stranger.ID)
	assert.ErrorIs(t, err, errs.ErrNoAccessPermission)

	listing, err := f.manager.List(ctx, f.debtor.ID)
	require.NoError(t, err)
	require.Len(t, listing.Settlements, 1)
	assert.Equal(t, int64(500), listing.Summary.Owes.Pending)
	assert.Equal(t, int64(-500), listing.Summary.Counterparties[f.payer.ID])

	empty, err := f.manager.List(ctx, f.stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Settlements)
}

func TestThreeWaySplitScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expense := &models.Expense{
		GroupID:      f.group.ID,
		PayerID:      f.payer.ID,
		Title:        "Taxi",
		Total:        1000,
		Type:         models.SettlementEven,
		Participants: []string{f.payer.ID, f.debtor.ID, f.stranger.ID},
	}
	allocations, err := f.manager.RecordExpense(ctx, expense)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	var sum int64
	for _, a := range allocations {
		assert.Equal(t, int64(333), a.ShareAmount)
		assert.Equal(t, f.payer.ID, a.ReceiverID)
		assert.Equal(t, models.StatusPending, a.Status)
		sum += a.ShareAmount
	}
	assert.Equal(t, int64(666), sum)

	_, err = f.manager.Request(ctx, allocations[0].ID, f.payer.ID)
	require.NoError(t, err)
	_, err = f.manager.Complete(ctx, allocations[0].ID, f.debtor.ID)
	assert.ErrorIs(t, err, errs.ErrNoAccessPermission)
	_, err = f.manager.Complete(ctx, allocations[0].ID, f.payer.ID)
	require.NoError(t, err)
}

func TestCreateAllocationsForExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expense := &models.Expense{
		GroupID:      f.group.ID,
		PayerID:      f.payer.ID,
		Title:        "Pizza night",
		Total:        34000,
		Type:         models.SettlementItemized,
		Participants: []string{f.payer.ID, f.debtor.ID, f.stranger.ID},
		Items: []models.ExpenseItem{
			{Name: "Pizza", Price: 30000, Participants: []string{f.payer.ID, f.debtor.ID, f.stranger.ID}},
			{Name: "Cola", Price: 4000, Participants: []string{f.debtor.ID}},
		},
	}
	require.NoError(t, f.store.CreateExpense(ctx, expense, nil))

	allocations, err := f.manager.CreateAllocationsForExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Len(t, allocations, 3)

	_, err = f.manager.CreateAllocationsForExpense(ctx, expense.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)

	_, err = f.manager.CreateAllocationsForExpense(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateAllocationsForPayerOnlyExpense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	solo := func() *models.Expense {
		return &models.Expense{
			GroupID:      f.group.ID,
			PayerID:      f.payer.ID,
			Title:        "Coffee for one",
			Total:        4500,
			Type:         models.SettlementEven,
			Participants: []string{f.payer.ID},
		}
	}

	recorded := solo()
	allocations, err := f.manager.RecordExpense(ctx, recorded)
	require.NoError(t, err)
	assert.Empty(t, allocations)
	_, err = f.manager.CreateAllocationsForExpense(ctx, recorded.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition, "recording already derived the empty set")

	stored := solo()
	require.NoError(t, f.store.CreateExpense(ctx, stored, nil))
	allocations, err = f.manager.CreateAllocationsForExpense(ctx, stored.ID)
	require.NoError(t, err)
	assert.Empty(t, allocations)
	_, err = f.manager.CreateAllocationsForExpense(ctx, stored.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}

func TestConcurrentRequestsSendOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.evenAllocation(t)

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.manager.Request(ctx, a.ID, f.payer.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, f.notifier.sent, 1)
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	unlock()
	assert.Empty(t, k.locks)
}

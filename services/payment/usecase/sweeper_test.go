package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safarbet/safarbet/internal/pkg/apperrors"
	"github.com/safarbet/safarbet/internal/pkg/models"
)

// fakeLocker is an in-memory SweepLocker
type fakeLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	denied bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied || f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

// scriptedGW returns a different verify outcome per transaction reference
type scriptedGW struct {
	mu       sync.Mutex
	outcomes map[string]models.GatewayStatus
	errors   map[string]error
	calls    []string
}

func (g *scriptedGW) Initiate(ctx context.Context, req models.InitiateRequest) (*models.InitiateResult, error) {
	return nil, apperrors.New(apperrors.KindInternal, "not used")
}

func (g *scriptedGW) Verify(ctx context.Context, txRef string) (*models.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, txRef)
	if err, ok := g.errors[txRef]; ok {
		return nil, err
	}
	return &models.VerifyResult{Status: g.outcomes[txRef]}, nil
}

func sweeperConfig() *models.Config {
	return &models.Config{
		Sweeper: models.SweeperConfig{
			Schedule:         "@every 3m",
			StalenessMinutes: 10,
			BatchLimit:       100,
		},
	}
}

func stalePayment(txRef string) *models.Payment {
	p := pendingPayment(txRef)
	p.CreatedAt = time.Now().UTC().Add(-time.Hour)
	return p
}

func TestSweeperRunOnce_ResolvesStalePayments(t *testing.T) {
	repo := newFakePaymentRepo()
	notifier := &fakeNotifier{}
	uc := newTestUC(repo, notifier)

	repo.put(stalePayment("TXN-a"))
	repo.put(stalePayment("TXN-b"))
	repo.put(stalePayment("TXN-c"))

	gw := &scriptedGW{outcomes: map[string]models.GatewayStatus{
		"TXN-a": models.GatewayStatusSuccess,
		"TXN-b": models.GatewayStatusFailed,
		"TXN-c": models.GatewayStatusPending,
	}}

	s := NewSweeper(sweeperConfig(), repo, gw, uc, newFakeLocker())
	require.NoError(t, s.RunOnce(context.Background()))

	a, _ := repo.GetPaymentByTransactionRef(context.Background(), "TXN-a")
	b, _ := repo.GetPaymentByTransactionRef(context.Background(), "TXN-b")
	c, _ := repo.GetPaymentByTransactionRef(context.Background(), "TXN-c")

	assert.Equal(t, models.PaymentStatusCompleted, a.Status)
	assert.Equal(t, models.PaymentStatusFailed, b.Status)
	assert.Equal(t, models.PaymentStatusPending, c.Status, "still-pending stays for the next pass")
	assert.Equal(t, 2, notifier.count())
}

func TestSweeperRunOnce_OneBadCandidateDoesNotAbortThePass(t *testing.T) {
	repo := newFakePaymentRepo()
	notifier := &fakeNotifier{}
	uc := newTestUC(repo, notifier)

	repo.put(stalePayment("TXN-bad"))
	repo.put(stalePayment("TXN-good"))

	gw := &scriptedGW{
		outcomes: map[string]models.GatewayStatus{"TXN-good": models.GatewayStatusSuccess},
		errors:   map[string]error{"TXN-bad": apperrors.New(apperrors.KindGatewayNetwork, "gateway request failed")},
	}

	s := NewSweeper(sweeperConfig(), repo, gw, uc, newFakeLocker())
	require.NoError(t, s.RunOnce(context.Background()))

	good, _ := repo.GetPaymentByTransactionRef(context.Background(), "TXN-good")
	bad, _ := repo.GetPaymentByTransactionRef(context.Background(), "TXN-bad")

	assert.Equal(t, models.PaymentStatusCompleted, good.Status)
	assert.Equal(t, models.PaymentStatusPending, bad.Status)
	assert.Len(t, gw.calls, 2, "both candidates were attempted")
}

func TestSweeperRunOnce_SkipsFreshAndTerminalPayments(t *testing.T) {
	repo := newFakePaymentRepo()
	uc := newTestUC(repo, &fakeNotifier{})

	fresh := pendingPayment("TXN-fresh")
	fresh.CreatedAt = time.Now().UTC()
	repo.put(fresh)

	done := stalePayment("TXN-done")
	done.Status = models.PaymentStatusCompleted
	repo.put(done)

	gw := &scriptedGW{outcomes: map[string]models.GatewayStatus{}}

	s := NewSweeper(sweeperConfig(), repo, gw, uc, newFakeLocker())
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Empty(t, gw.calls, "nothing stale and pending, nothing verified")
}

func TestSweeperRunOnce_LockHeldElsewhereSkipsPass(t *testing.T) {
	repo := newFakePaymentRepo()
	uc := newTestUC(repo, &fakeNotifier{})

	repo.put(stalePayment("TXN-locked"))

	gw := &scriptedGW{outcomes: map[string]models.GatewayStatus{"TXN-locked": models.GatewayStatusSuccess}}

	locker := newFakeLocker()
	locker.denied = true

	s := NewSweeper(sweeperConfig(), repo, gw, uc, locker)
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Empty(t, gw.calls, "another instance holds the lock")
}

func TestSweeperRunOnce_ReleasesLock(t *testing.T) {
	repo := newFakePaymentRepo()
	uc := newTestUC(repo, &fakeNotifier{})

	locker := newFakeLocker()
	gw := &scriptedGW{outcomes: map[string]models.GatewayStatus{}}

	s := NewSweeper(sweeperConfig(), repo, gw, uc, locker)
	require.NoError(t, s.RunOnce(context.Background()))

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.False(t, locker.held[sweepLockKey])
}

package reserves

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type fakeReserveRepo struct {
	due       []models.SellerReserve
	created   []*models.SellerReserve
	released  map[uuid.UUID]string
	canceled  []uuid.UUID
	markFalse map[uuid.UUID]bool
	dupOrders map[uuid.UUID]bool
}

func newFakeReserveRepo() *fakeReserveRepo {
	return &fakeReserveRepo{
		released:  map[uuid.UUID]string{},
		markFalse: map[uuid.UUID]bool{},
		dupOrders: map[uuid.UUID]bool{},
	}
}

func (f *fakeReserveRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeReserveRepo) CreateIfAbsent(ctx context.Context, reserve *models.SellerReserve) (bool, error) {
	if f.dupOrders[reserve.OrderID] {
		return false, nil
	}
	f.dupOrders[reserve.OrderID] = true
	f.created = append(f.created, reserve)
	return true, nil
}

func (f *fakeReserveRepo) FindDueHeld(ctx context.Context, now time.Time, limit int) ([]models.SellerReserve, error) {
	return f.due, nil
}

func (f *fakeReserveRepo) MarkReleased(ctx context.Context, id uuid.UUID, transferID string, releasedAt time.Time) (bool, error) {
	if f.markFalse[id] {
		return false, nil
	}
	f.released[id] = transferID
	return true, nil
}

func (f *fakeReserveRepo) CancelHeldForOrder(ctx context.Context, orderID uuid.UUID) error {
	f.canceled = append(f.canceled, orderID)
	return nil
}

type fakeSellerRepoAdapter struct {
	sellers map[uuid.UUID]*models.Seller
}

func (f *fakeSellerRepoAdapter) WithTx(tx *gorm.DB) sellers.Repository { return f }

func (f *fakeSellerRepoAdapter) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	seller, ok := f.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return seller, nil
}

func (f *fakeSellerRepoAdapter) FindByStripeAccountID(ctx context.Context, accountID string) (*models.Seller, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSellerRepoAdapter) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func newTestService(t *testing.T, repo Repository, sellersRepo sellers.Repository, transfers StripeTransferClient) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "reserves-test"})
	svc, err := NewService(repo, sellersRepo, transfers, logg, nil, Config{BatchSize: 100})
	require.NoError(t, err)
	return svc
}

type fakeTransferClient struct {
	params  []*stripe.TransferParams
	failFor map[string]bool
	seq     int
}

func (f *fakeTransferClient) CreateTransfer(ctx context.Context, params *stripe.TransferParams) (*stripe.Transfer, error) {
	if params.Destination != nil && f.failFor[*params.Destination] {
		return nil, fmt.Errorf("stripe unavailable")
	}
	f.params = append(f.params, params)
	f.seq++
	return &stripe.Transfer{ID: fmt.Sprintf("tr_%d", f.seq)}, nil
}

func heldReserve(sellerID uuid.UUID, amount int64) models.SellerReserve {
	return models.SellerReserve{
		ID:          uuid.New(),
		OrderID:     uuid.New(),
		SellerID:    sellerID,
		AmountCents: amount,
		Status:      enums.ReserveStatusHeld,
		ReleaseAt:   time.Now().Add(-time.Hour),
	}
}

func payoutReadySeller(id uuid.UUID) *models.Seller {
	acct := "acct_" + id.String()[:8]
	return &models.Seller{
		ID:                   id,
		StripeAccountID:      &acct,
		StripePayoutsEnabled: true,
	}
}

func TestReleaseDueTransfersAndMarks(t *testing.T) {
	repo := newFakeReserveRepo()
	sellerID := uuid.New()
	seller := payoutReadySeller(sellerID)
	reserve := heldReserve(sellerID, 2500)
	repo.due = []models.SellerReserve{reserve}

	transfers := &fakeTransferClient{}
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: map[uuid.UUID]*models.Seller{sellerID: seller}}, transfers)

	summary, err := svc.ReleaseDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Released)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, transfers.params, 1)
	params := transfers.params[0]
	assert.Equal(t, int64(2500), *params.Amount)
	assert.Equal(t, "brl", *params.Currency)
	assert.Equal(t, *seller.StripeAccountID, *params.Destination)
	assert.Equal(t, reserve.ID.String(), params.Metadata["reserve_id"])
	assert.Equal(t, reserve.OrderID.String(), params.Metadata["order_id"])
	assert.Equal(t, "tr_1", repo.released[reserve.ID])
}

func TestReleaseDueSkipsSellerWithoutPayoutAccount(t *testing.T) {
	repo := newFakeReserveRepo()
	sellerID := uuid.New()
	reserve := heldReserve(sellerID, 2500)
	repo.due = []models.SellerReserve{reserve}

	transfers := &fakeTransferClient{}
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: map[uuid.UUID]*models.Seller{
		sellerID: {ID: sellerID}, // onboarding never finished
	}}, transfers)

	summary, err := svc.ReleaseDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Released)
	assert.Empty(t, transfers.params)
	assert.Empty(t, repo.released)
}

func TestReleaseDueOneFailureDoesNotAbortBatch(t *testing.T) {
	repo := newFakeReserveRepo()
	badSeller := uuid.New()
	goodSeller := uuid.New()
	bad := heldReserve(badSeller, 1000)
	good := heldReserve(goodSeller, 2000)
	repo.due = []models.SellerReserve{bad, good}

	sellers := map[uuid.UUID]*models.Seller{
		badSeller:  payoutReadySeller(badSeller),
		goodSeller: payoutReadySeller(goodSeller),
	}
	transfers := &fakeTransferClient{failFor: map[string]bool{
		*sellers[badSeller].StripeAccountID: true,
	}}
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: sellers}, transfers)

	summary, err := svc.ReleaseDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Checked)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Released)
	assert.NotContains(t, repo.released, bad.ID)
	assert.Contains(t, repo.released, good.ID)
}

func TestReleaseDueConcurrentRunDoesNotDoubleCount(t *testing.T) {
	repo := newFakeReserveRepo()
	sellerID := uuid.New()
	reserve := heldReserve(sellerID, 2500)
	repo.due = []models.SellerReserve{reserve}
	repo.markFalse[reserve.ID] = true // another sweep already released it

	transfers := &fakeTransferClient{}
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: map[uuid.UUID]*models.Seller{
		sellerID: payoutReadySeller(sellerID),
	}}, transfers)

	summary, err := svc.ReleaseDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Released)
}

func TestHoldForOrderIsIdempotentPerOrder(t *testing.T) {
	repo := newFakeReserveRepo()
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: map[uuid.UUID]*models.Seller{}}, &fakeTransferClient{})

	order := &models.Order{ID: uuid.New(), SellerID: uuid.New(), RiskReserveCents: 500}
	releaseAt := time.Now().Add(60 * 24 * time.Hour)

	created, err := svc.HoldForOrder(context.Background(), nil, order, releaseAt)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.HoldForOrder(context.Background(), nil, order, releaseAt)
	require.NoError(t, err)
	assert.False(t, created)
	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.ReserveStatusHeld, repo.created[0].Status)
	assert.Equal(t, int64(500), repo.created[0].AmountCents)
}

func TestHoldForOrderSkipsZeroReserve(t *testing.T) {
	repo := newFakeReserveRepo()
	svc := newTestService(t, repo, &fakeSellerRepoAdapter{sellers: map[uuid.UUID]*models.Seller{}}, &fakeTransferClient{})

	created, err := svc.HoldForOrder(context.Background(), nil, &models.Order{ID: uuid.New()}, time.Now())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, repo.created)
}

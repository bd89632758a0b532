package weights

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	pkgerrors "github.com/lotepro/lotepro-backend/pkg/errors"
)

type fakeOrdersRepo struct {
	order *models.Order
	items []models.OrderItem
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) error { return nil }
func (f *fakeOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.order, nil
}

func (f *fakeOrdersRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (f *fakeOrdersRepo) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return f.items, nil
}

func (f *fakeOrdersRepo) UpdateItemActualWeight(ctx context.Context, itemID uuid.UUID, actualKg float64) error {
	for i := range f.items {
		if f.items[i].ID == itemID {
			kg := actualKg
			f.items[i].ActualTotalWeightKg = &kg
		}
	}
	return nil
}

func (f *fakeOrdersRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeWalletService struct {
	applied []wallet.ApplyInput
	balance int64
}

func (f *fakeWalletService) Apply(ctx context.Context, input wallet.ApplyInput) (*wallet.ApplyOutput, error) {
	f.applied = append(f.applied, input)
	f.balance += input.AmountCents
	return &wallet.ApplyOutput{Transaction: &models.WalletTransaction{}, BalanceCents: f.balance}, nil
}

func (f *fakeWalletService) ApplyTx(ctx context.Context, tx *gorm.DB, input wallet.ApplyInput) (*wallet.ApplyOutput, error) {
	return f.Apply(ctx, input)
}

func (f *fakeWalletService) Topup(ctx context.Context, tx *gorm.DB, input wallet.TopupInput) (bool, error) {
	return false, nil
}

func (f *fakeWalletService) Balance(ctx context.Context, buyerID uuid.UUID) (*wallet.BalanceOutput, error) {
	return &wallet.BalanceOutput{}, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo    *fakeOrdersRepo
	wallets *fakeWalletService
	svc     Service
}

func newFixture(t *testing.T, channel enums.BuyerChannel) *fixture {
	t.Helper()

	order := &models.Order{
		ID:           uuid.New(),
		BuyerID:      uuid.New(),
		SellerID:     uuid.New(),
		BuyerChannel: channel,
	}
	items := []models.OrderItem{
		{
			ID:                             uuid.New(),
			OrderID:                        order.ID,
			PricingModeSnapshot:            enums.PricingModePerKgBox,
			UnitPriceCentsSnapshot:         899,
			EstimatedTotalWeightKgSnapshot: ptr(24.0),
		},
		{
			ID:                  uuid.New(),
			OrderID:             order.ID,
			PricingModeSnapshot: enums.PricingModePerUnit,
		},
	}

	repo := &fakeOrdersRepo{order: order, items: items}
	wallets := &fakeWalletService{}
	svc, err := NewService(repo, wallets, fakeTxRunner{})
	require.NoError(t, err)

	return &fixture{repo: repo, wallets: wallets, svc: svc}
}

func TestReconcileDebitsWalletWhenHeavier(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	item := fx.repo.items[0]

	out, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID:       fx.repo.order.ID,
		ActorSellerID: fx.repo.order.SellerID,
		Items:         []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 25.5}},
	})
	require.NoError(t, err)

	// deltaKg = 1.5, delta = round(1.5 * 899) = 1349 (half away from zero)
	assert.Equal(t, int64(1349), out.DeltaCents)
	assert.True(t, out.WalletApplied)
	assert.Equal(t, int64(-1349), out.WalletTransactionCents)
	assert.Equal(t, int64(-1349), out.NewBalanceCents)

	require.Len(t, fx.wallets.applied, 1)
	applied := fx.wallets.applied[0]
	assert.Equal(t, int64(-1349), applied.AmountCents)
	assert.Equal(t, enums.WalletTransactionKindWeightAdjustment, applied.Kind)
	assert.Equal(t, fx.repo.order.BuyerID, applied.BuyerID)

	require.NotNil(t, fx.repo.items[0].ActualTotalWeightKg)
	assert.InDelta(t, 25.5, *fx.repo.items[0].ActualTotalWeightKg, 1e-9)
}

func TestReconcileCreditsWalletWhenLighter(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	item := fx.repo.items[0]

	out, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 22.0}},
	})
	require.NoError(t, err)

	// deltaKg = -2, delta = -1798, credit of 1798
	assert.Equal(t, int64(-1798), out.DeltaCents)
	assert.Equal(t, int64(1798), out.WalletTransactionCents)
	assert.Equal(t, int64(1798), out.NewBalanceCents)
}

func TestReconcileZeroDeltaStillRecordsEntry(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	item := fx.repo.items[0]

	out, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 24.0}},
	})
	require.NoError(t, err)

	assert.Zero(t, out.DeltaCents)
	assert.True(t, out.WalletApplied)
	require.Len(t, fx.wallets.applied, 1)
	assert.Zero(t, fx.wallets.applied[0].AmountCents)
	require.NotNil(t, fx.repo.items[0].ActualTotalWeightKg)
}

func TestReconcileSkipsWalletForB2C(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2C)
	item := fx.repo.items[0]

	out, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 26.0}},
	})
	require.NoError(t, err)

	assert.False(t, out.WalletApplied)
	assert.Zero(t, out.WalletTransactionCents)
	assert.Zero(t, out.NewBalanceCents)
	assert.Empty(t, fx.wallets.applied)
	// The snapshot is still written for B2C orders.
	require.NotNil(t, fx.repo.items[0].ActualTotalWeightKg)
}

func TestReconcileRejectsPerUnitItem(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	perUnitItem := fx.repo.items[1]

	_, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: perUnitItem.ID, ActualTotalWeightKg: 10}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeBusinessRule, domainErr.Code())
}

func TestReconcileRejectsSecondPass(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	item := fx.repo.items[0]

	_, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 25}},
	})
	require.NoError(t, err)

	_, err = fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID: fx.repo.order.ID,
		Items:   []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 26}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestReconcileRejectsForeignSeller(t *testing.T) {
	fx := newFixture(t, enums.BuyerChannelB2B)
	item := fx.repo.items[0]

	_, err := fx.svc.Reconcile(context.Background(), ReconcileInput{
		OrderID:       fx.repo.order.ID,
		ActorSellerID: uuid.New(),
		Items:         []WeightItem{{OrderItemID: item.ID, ActualTotalWeightKg: 25}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

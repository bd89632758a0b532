package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/lotepro/lotepro-backend/internal/buyers"
	"github.com/lotepro/lotepro-backend/internal/idempotency"
	"github.com/lotepro/lotepro-backend/internal/notifications"
	"github.com/lotepro/lotepro-backend/internal/orders"
	"github.com/lotepro/lotepro-backend/internal/reserves"
	"github.com/lotepro/lotepro-backend/internal/sellers"
	"github.com/lotepro/lotepro-backend/internal/wallet"
	"github.com/lotepro/lotepro-backend/pkg/db/models"
	"github.com/lotepro/lotepro-backend/pkg/enums"
	"github.com/lotepro/lotepro-backend/pkg/logger"
)

type fakeOrdersRepo struct {
	orders  map[uuid.UUID]*models.Order
	items   map[uuid.UUID][]models.OrderItem
	updates map[uuid.UUID][]map[string]any
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{
		orders:  map[uuid.UUID]*models.Order{},
		items:   map[uuid.UUID][]models.OrderItem{},
		updates: map[uuid.UUID][]map[string]any{},
	}
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository                   { return f }
func (f *fakeOrdersRepo) CreateOrder(ctx context.Context, o *models.Order) error { return nil }
func (f *fakeOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return nil
}

func (f *fakeOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (f *fakeOrdersRepo) FindByPaymentIntentID(ctx context.Context, piID string) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.updates[id] = append(f.updates[id], updates)
	return nil
}

func (f *fakeOrdersRepo) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrdersRepo) UpdateItemActualWeight(ctx context.Context, itemID uuid.UUID, actualKg float64) error {
	return nil
}

func (f *fakeOrdersRepo) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrdersRepo) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeBuyersRepo struct {
	buyers map[uuid.UUID]*models.BuyerProfile
}

func (f *fakeBuyersRepo) WithTx(tx *gorm.DB) buyers.Repository { return f }

func (f *fakeBuyersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.BuyerProfile, error) {
	b, ok := f.buyers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (f *fakeBuyersRepo) UpdateStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return nil
}

type fakeSellersRepo struct {
	sellers map[uuid.UUID]*models.Seller
}

func (f *fakeSellersRepo) WithTx(tx *gorm.DB) sellers.Repository { return f }

func (f *fakeSellersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	s, ok := f.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSellersRepo) FindByStripeAccountID(ctx context.Context, accountID string) (*models.Seller, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSellersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

type fakeSellersService struct {
	synced []*stripe.Account
}

func (f *fakeSellersService) Get(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSellersService) OnboardingLink(ctx context.Context, input sellers.OnboardingLinkInput) (*sellers.OnboardingLinkOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeSellersService) SyncAccountStatus(ctx context.Context, account *stripe.Account) error {
	f.synced = append(f.synced, account)
	return nil
}

type fakeWallet struct {
	topups []wallet.TopupInput
	seen   map[string]bool
}

func (f *fakeWallet) Apply(ctx context.Context, input wallet.ApplyInput) (*wallet.ApplyOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeWallet) ApplyTx(ctx context.Context, tx *gorm.DB, input wallet.ApplyInput) (*wallet.ApplyOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeWallet) Topup(ctx context.Context, tx *gorm.DB, input wallet.TopupInput) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[input.PaymentIntentID] {
		return false, nil
	}
	f.seen[input.PaymentIntentID] = true
	f.topups = append(f.topups, input)
	return true, nil
}

func (f *fakeWallet) Balance(ctx context.Context, buyerID uuid.UUID) (*wallet.BalanceOutput, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeReserves struct {
	holds []heldCall
}

type heldCall struct {
	orderID   uuid.UUID
	releaseAt time.Time
}

func (f *fakeReserves) HoldForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, releaseAt time.Time) (bool, error) {
	f.holds = append(f.holds, heldCall{orderID: order.ID, releaseAt: releaseAt})
	return true, nil
}

func (f *fakeReserves) CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	return nil
}

func (f *fakeReserves) ReleaseDue(ctx context.Context) (*reserves.ReleaseSummary, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeIdempotency struct {
	claimed map[string]bool
}

func (f *fakeIdempotency) WithTx(tx *gorm.DB) idempotency.Repository { return f }

func (f *fakeIdempotency) Claim(ctx context.Context, source, eventID string) (bool, error) {
	if f.claimed == nil {
		f.claimed = map[string]bool{}
	}
	key := source + ":" + eventID
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

type fakeNotifier struct {
	sent []notifications.OrderPaidNotification
}

func (f *fakeNotifier) OrderPaid(ctx context.Context, n notifications.OrderPaidNotification) error {
	f.sent = append(f.sent, n)
	return nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type webhookFixture struct {
	svc      *Service
	orders   *fakeOrdersRepo
	wallet   *fakeWallet
	reserves *fakeReserves
	notifier *fakeNotifier
	sellers  *fakeSellersService
	order    *models.Order
	buyerID  uuid.UUID
	sellerID uuid.UUID
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	buyerID := uuid.New()
	sellerID := uuid.New()

	order := &models.Order{
		ID:               uuid.New(),
		BuyerID:          buyerID,
		SellerID:         sellerID,
		Status:           enums.OrderStatusPendingPayment,
		PaymentStatus:    enums.PaymentStatusProcessing,
		TotalCents:       10500,
		RiskReserveCents: 500,
		DeliveryDate:     time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	}

	ordersRepo := newFakeOrdersRepo()
	ordersRepo.orders[order.ID] = order
	ordersRepo.items[order.ID] = []models.OrderItem{
		{ProductNameSnapshot: "Salmão inteiro", Quantity: 2, PricingModeSnapshot: enums.PricingModePerKgBox, UnitPriceCentsSnapshot: 899},
	}

	buyersRepo := &fakeBuyersRepo{buyers: map[uuid.UUID]*models.BuyerProfile{
		buyerID: {ID: buyerID, FullName: "Restaurante Azul", Email: "compras@azul.com"},
	}}
	sellersRepo := &fakeSellersRepo{sellers: map[uuid.UUID]*models.Seller{
		sellerID: {ID: sellerID, DisplayName: "Peixaria Sul", OrderEmail: "pedidos@sul.com", RiskReserveDays: 60},
	}}

	walletSvc := &fakeWallet{}
	reservesSvc := &fakeReserves{}
	notifier := &fakeNotifier{}
	sellersSvc := &fakeSellersService{}

	svc, err := NewService(ServiceParams{
		OrdersRepo:        ordersRepo,
		BuyersRepo:        buyersRepo,
		SellersRepo:       sellersRepo,
		Sellers:           sellersSvc,
		Wallet:            walletSvc,
		Reserves:          reservesSvc,
		Idempotency:       &fakeIdempotency{},
		Notifier:          notifier,
		TransactionRunner: fakeTxRunner{},
		Logger:            logger.New(logger.Options{ServiceName: "webhook-test"}),
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }

	return &webhookFixture{
		svc:      svc,
		orders:   ordersRepo,
		wallet:   walletSvc,
		reserves: reservesSvc,
		notifier: notifier,
		sellers:  sellersSvc,
		order:    order,
		buyerID:  buyerID,
		sellerID: sellerID,
	}
}

func paymentIntentEvent(t *testing.T, eventType stripe.EventType, pi map[string]any) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(pi)
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString()[:8],
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestSucceededMarksOrderPaidAndHoldsReserve(t *testing.T) {
	fx := newWebhookFixture(t)
	event := paymentIntentEvent(t, stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id":           "pi_1",
		"latest_charge": map[string]any{"id": "ch_1"},
		"metadata":     map[string]string{"order_id": fx.order.ID.String()},
	})

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	require.Len(t, fx.orders.updates[fx.order.ID], 1)
	updates := fx.orders.updates[fx.order.ID][0]
	assert.Equal(t, enums.OrderStatusPaid, updates["status"])
	assert.Equal(t, enums.PaymentStatusSucceeded, updates["payment_status"])
	assert.Equal(t, "ch_1", updates["stripe_charge_id"])
	assert.Equal(t, "pi_1", updates["stripe_payment_intent_id"])

	require.Len(t, fx.reserves.holds, 1)
	assert.Equal(t, fx.order.ID, fx.reserves.holds[0].orderID)
	wantRelease := time.Date(2026, 10, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, wantRelease, fx.reserves.holds[0].releaseAt)

	require.Len(t, fx.notifier.sent, 1)
	note := fx.notifier.sent[0]
	assert.Equal(t, "pedidos@sul.com", note.SellerEmail)
	assert.Equal(t, "R$ 105,00", note.Total)
	require.Len(t, note.Items, 1)
	assert.Equal(t, "Salmão inteiro", note.Items[0].Name)
}

func TestSucceededReplayIsIgnored(t *testing.T) {
	fx := newWebhookFixture(t)
	event := paymentIntentEvent(t, stripe.EventTypePaymentIntentSucceeded, map[string]any{
		"id":       "pi_1",
		"metadata": map[string]string{"order_id": fx.order.ID.String()},
	})

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))
	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	assert.Len(t, fx.orders.updates[fx.order.ID], 1)
	assert.Len(t, fx.reserves.holds, 1)
	assert.Len(t, fx.notifier.sent, 1)
}

func TestSucceededWalletTopupCreditsOnce(t *testing.T) {
	fx := newWebhookFixture(t)
	pi := map[string]any{
		"id":     "pi_topup",
		"amount": 5000,
		"metadata": map[string]string{
			"wallet_topup": "true",
			"buyer_id":     fx.buyerID.String(),
		},
	}

	require.NoError(t, fx.svc.HandleEvent(context.Background(), paymentIntentEvent(t, stripe.EventTypePaymentIntentSucceeded, pi)))
	require.NoError(t, fx.svc.HandleEvent(context.Background(), paymentIntentEvent(t, stripe.EventTypePaymentIntentSucceeded, pi)))

	require.Len(t, fx.wallet.topups, 1)
	topup := fx.wallet.topups[0]
	assert.Equal(t, fx.buyerID, topup.BuyerID)
	assert.Equal(t, int64(5000), topup.AmountCents)
	assert.Equal(t, "pi_topup", topup.PaymentIntentID)
	assert.Empty(t, fx.orders.updates)
}

func TestPaymentFailedResetsOrder(t *testing.T) {
	fx := newWebhookFixture(t)
	event := paymentIntentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, map[string]any{
		"id":       "pi_1",
		"metadata": map[string]string{"order_id": fx.order.ID.String()},
	})

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	require.Len(t, fx.orders.updates[fx.order.ID], 1)
	updates := fx.orders.updates[fx.order.ID][0]
	assert.Equal(t, enums.OrderStatusPendingPayment, updates["status"])
	assert.Equal(t, enums.PaymentStatusFailed, updates["payment_status"])
}

func TestPaymentCanceledCancelsOrder(t *testing.T) {
	fx := newWebhookFixture(t)
	event := paymentIntentEvent(t, stripe.EventTypePaymentIntentCanceled, map[string]any{
		"id":       "pi_1",
		"metadata": map[string]string{"order_id": fx.order.ID.String()},
	})

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	updates := fx.orders.updates[fx.order.ID][0]
	assert.Equal(t, enums.OrderStatusCanceled, updates["status"])
	assert.Equal(t, enums.PaymentStatusCanceled, updates["payment_status"])
}

func TestAccountUpdatedSyncsSeller(t *testing.T) {
	fx := newWebhookFixture(t)
	raw, err := json.Marshal(map[string]any{"id": "acct_1", "charges_enabled": true, "payouts_enabled": true})
	require.NoError(t, err)
	event := &stripe.Event{
		ID:   "evt_acct",
		Type: stripe.EventTypeAccountUpdated,
		Data: &stripe.EventData{Raw: raw},
	}

	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))

	require.Len(t, fx.sellers.synced, 1)
	assert.Equal(t, "acct_1", fx.sellers.synced[0].ID)
	assert.True(t, fx.sellers.synced[0].PayoutsEnabled)
}

func TestUnknownEventIsIgnored(t *testing.T) {
	fx := newWebhookFixture(t)
	event := &stripe.Event{
		ID:   "evt_x",
		Type: stripe.EventType("charge.refunded"),
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	}
	require.NoError(t, fx.svc.HandleEvent(context.Background(), event))
	assert.Empty(t, fx.orders.updates)
}

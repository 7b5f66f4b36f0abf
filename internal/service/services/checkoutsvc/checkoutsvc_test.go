package checkoutsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/config"
	"github.com/inkwear/storefront/internal/dal/interfaces/iaddressrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iproductrepo"
	fulfillmentgw "github.com/inkwear/storefront/internal/gateway/fulfillment"
	"github.com/inkwear/storefront/internal/gateway/payment"
	"github.com/inkwear/storefront/internal/service/models/address"
	"github.com/inkwear/storefront/internal/service/models/fulfillment"
	"github.com/inkwear/storefront/internal/service/models/order"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
	"github.com/inkwear/storefront/internal/service/models/outbox"
	"github.com/inkwear/storefront/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderRepo struct {
	insertFn               func(ctx context.Context, o *order.Order) error
	getByIDFn              func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	queryFn                func(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	setStatusFn            func(ctx context.Context, id uuid.UUID, status order.Status) error
	setPaymentPendingFn    func(ctx context.Context, id uuid.UUID, paymentRef string) error
	markFailedFn           func(ctx context.Context, id uuid.UUID, reason string) error
	markProcessingFn       func(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error
	setFulfillmentStatusFn func(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error
	setShippedFn           func(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error
}

func (m *mockOrderRepo) Insert(ctx context.Context, o *order.Order) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, o)
	}

	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}

	return nil, errors.New("getByIDFn not set")
}

func (m *mockOrderRepo) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, filter)
	}

	return nil, nil
}

func (m *mockOrderRepo) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}

	return nil
}

func (m *mockOrderRepo) SetPaymentPending(ctx context.Context, id uuid.UUID, paymentRef string) error {
	if m.setPaymentPendingFn != nil {
		return m.setPaymentPendingFn(ctx, id, paymentRef)
	}

	return nil
}

func (m *mockOrderRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, reason)
	}

	return nil
}

func (m *mockOrderRepo) MarkProcessing(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
	if m.markProcessingFn != nil {
		return m.markProcessingFn(ctx, id, upd)
	}

	return nil
}

func (m *mockOrderRepo) SetFulfillmentStatus(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error {
	if m.setFulfillmentStatusFn != nil {
		return m.setFulfillmentStatusFn(ctx, id, fs)
	}

	return nil
}

func (m *mockOrderRepo) SetShipped(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error {
	if m.setShippedFn != nil {
		return m.setShippedFn(ctx, id, trackingNumber, trackingURL, carrier)
	}

	return nil
}

type mockOrderItemRepo struct {
	bulkInsertFn     func(ctx context.Context, items []orderitem.OrderItem) error
	listByOrderIDsFn func(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error)
}

func (m *mockOrderItemRepo) BulkInsert(ctx context.Context, items []orderitem.OrderItem) error {
	if m.bulkInsertFn != nil {
		return m.bulkInsertFn(ctx, items)
	}

	return nil
}

func (m *mockOrderItemRepo) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	if m.listByOrderIDsFn != nil {
		return m.listByOrderIDsFn(ctx, orderIDs)
	}

	return nil, nil
}

type mockAddressRepo struct {
	insertFn        func(ctx context.Context, a *address.Address) error
	listByOrderIDFn func(ctx context.Context, orderID uuid.UUID) ([]address.Address, error)
}

func (m *mockAddressRepo) Insert(ctx context.Context, a *address.Address) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, a)
	}

	return nil
}

func (m *mockAddressRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]address.Address, error) {
	if m.listByOrderIDFn != nil {
		return m.listByOrderIDFn(ctx, orderID)
	}

	return nil, nil
}

type mockProductRepo struct {
	getByIDsFn func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error)
}

func (m *mockProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}

	return nil, nil
}

func (m *mockProductRepo) Upsert(ctx context.Context, p *product.Product) error {
	return nil
}

func (m *mockProductRepo) DeleteMissingVariants(ctx context.Context, keep []int64) error {
	return nil
}

func (m *mockProductRepo) SetInStockByProviderVariantID(ctx context.Context, variantID int64, inStock bool) error {
	return nil
}

type mockOutboxRepo struct {
	inserted []outbox.Message
}

func (m *mockOutboxRepo) Insert(ctx context.Context, msg outbox.Message) error {
	m.inserted = append(m.inserted, msg)

	return nil
}

func (m *mockOutboxRepo) GetPendingMessages(ctx context.Context, limit int) ([]outbox.Message, error) {
	return nil, nil
}

func (m *mockOutboxRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func (m *mockOutboxRepo) UpdateRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	return nil
}

type mockUOW struct {
	orderRepo     *mockOrderRepo
	orderItemRepo *mockOrderItemRepo
	addressRepo   *mockAddressRepo
	productRepo   *mockProductRepo
	outboxRepo    *mockOutboxRepo

	begins    int
	commits   int
	rollbacks int
}

func newMockUOW() *mockUOW {
	return &mockUOW{
		orderRepo:     &mockOrderRepo{},
		orderItemRepo: &mockOrderItemRepo{},
		addressRepo:   &mockAddressRepo{},
		productRepo:   &mockProductRepo{},
		outboxRepo:    &mockOutboxRepo{},
	}
}

func (m *mockUOW) Begin(ctx context.Context) error {
	m.begins++

	return nil
}

func (m *mockUOW) Commit(ctx context.Context) error {
	m.commits++

	return nil
}

func (m *mockUOW) Rollback(ctx context.Context) error {
	m.rollbacks++

	return nil
}

func (m *mockUOW) OrderRepository() iorderrepo.IOrderRepository             { return m.orderRepo }
func (m *mockUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository { return m.orderItemRepo }
func (m *mockUOW) AddressRepository() iaddressrepo.IAddressRepository       { return m.addressRepo }
func (m *mockUOW) ProductRepository() iproductrepo.IProductRepository       { return m.productRepo }
func (m *mockUOW) OutboxRepository() ioutboxrepo.IOutboxRepository          { return m.outboxRepo }

type mockPaymentGateway struct {
	createOrderFn  func(ctx context.Context, req payment.CreateOrderRequest) (*payment.Order, error)
	captureOrderFn func(ctx context.Context, providerOrderID string) (*payment.Order, error)
	captureCalls   int
}

func (m *mockPaymentGateway) CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, req)
	}

	return &payment.Order{ID: "PAY-1", Status: "CREATED"}, nil
}

func (m *mockPaymentGateway) CaptureOrder(ctx context.Context, providerOrderID string) (*payment.Order, error) {
	m.captureCalls++
	if m.captureOrderFn != nil {
		return m.captureOrderFn(ctx, providerOrderID)
	}

	return &payment.Order{ID: providerOrderID, Status: payment.StatusCompleted}, nil
}

type mockFulfillmentGateway struct {
	createOrderFn  func(ctx context.Context, req fulfillmentgw.CreateOrderRequest, confirm bool) (*fulfillmentgw.Order, error)
	confirmOrderFn func(ctx context.Context, providerOrderID int64) (*fulfillmentgw.Order, error)
	createCalls    int
}

func (m *mockFulfillmentGateway) CreateOrder(ctx context.Context, req fulfillmentgw.CreateOrderRequest, confirm bool) (*fulfillmentgw.Order, error) {
	m.createCalls++
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, req, confirm)
	}

	return &fulfillmentgw.Order{ID: 555, ExternalID: req.ExternalID, Status: "draft"}, nil
}

func (m *mockFulfillmentGateway) ConfirmOrder(ctx context.Context, providerOrderID int64) (*fulfillmentgw.Order, error) {
	if m.confirmOrderFn != nil {
		return m.confirmOrderFn(ctx, providerOrderID)
	}

	return &fulfillmentgw.Order{ID: providerOrderID, Status: "pending"}, nil
}

func newTestService(uow *mockUOW, pay *mockPaymentGateway, ful *mockFulfillmentGateway, cfg *config.Config) *CheckoutService {
	if cfg == nil {
		cfg = &config.Config{Environment: config.EnvSandbox}
	}

	return MustNewCheckoutService(
		WithConfig(cfg),
		WithPaymentGateway(pay),
		WithFulfillmentGateway(ful),
		WithUnitOfWorkFactory(func() unitOfWork { return uow }),
	)
}

func testProduct(id uuid.UUID, priceCents int64, variantID int64) product.Product {
	return product.Product{
		ID:                id,
		Name:              "Classic Tee",
		PriceCents:        priceCents,
		ProviderProductID: 77,
		ProviderVariantID: variantID,
		InStock:           true,
	}
}

func testShippingAddress(orderID uuid.UUID) address.Address {
	return address.Address{
		ID:      uuid.New(),
		OrderID: &orderID,
		Kind:    address.KindShipping,
		Name:    "Ola Nordmann",
		Line1:   "Storgata 1",
		City:    "Oslo",
		Zip:     "0155",
		Country: "Norway",
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMockUOW(), &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderParams{})

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	t.Parallel()

	uow := newMockUOW()
	uow.productRepo.getByIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
		return nil, nil
	}

	svc := newTestService(uow, &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderParams{
		Items: []CartItem{{ProductID: uuid.New(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, 0, uow.commits)
}

func TestCreateOrder_HappyPath(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	uow := newMockUOW()
	uow.productRepo.getByIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
		return []product.Product{testProduct(productID, 2500, 4011)}, nil
	}

	var insertedOrder *order.Order
	uow.orderRepo.insertFn = func(ctx context.Context, o *order.Order) error {
		insertedOrder = o

		return nil
	}

	var insertedItems []orderitem.OrderItem
	uow.orderItemRepo.bulkInsertFn = func(ctx context.Context, items []orderitem.OrderItem) error {
		insertedItems = items

		return nil
	}

	var pendingRef string
	uow.orderRepo.setPaymentPendingFn = func(ctx context.Context, id uuid.UUID, paymentRef string) error {
		pendingRef = paymentRef

		return nil
	}

	pay := &mockPaymentGateway{
		createOrderFn: func(ctx context.Context, req payment.CreateOrderRequest) (*payment.Order, error) {
			require.Len(t, req.PurchaseUnits, 1)
			assert.Equal(t, "CAPTURE", req.Intent)
			assert.Equal(t, "60.00", req.PurchaseUnits[0].Amount.Value)
			assert.Equal(t, "50.00", req.PurchaseUnits[0].Amount.Breakdown.ItemTotal.Value)
			assert.Equal(t, "10.00", req.PurchaseUnits[0].Amount.Breakdown.Shipping.Value)

			return &payment.Order{ID: "PAY-42", Status: "CREATED"}, nil
		},
	}

	svc := newTestService(uow, pay, &mockFulfillmentGateway{}, nil)

	result, err := svc.CreateOrder(context.Background(), CreateOrderParams{
		Items:           []CartItem{{ProductID: productID, Quantity: 2, Size: "M"}},
		ShippingAddress: address.Address{Name: "Ola Nordmann", Country: "Norway"},
		SubtotalCents:   5000,
		ShippingCents:   1000,
		TotalCents:      6000,
	})

	require.NoError(t, err)
	assert.Equal(t, "PAY-42", result.PaymentRef)
	assert.Equal(t, "PAY-42", pendingRef)

	require.NotNil(t, insertedOrder)
	assert.Equal(t, order.StatusPending, insertedOrder.Status)
	assert.Equal(t, int64(6000), insertedOrder.TotalCents)

	require.Len(t, insertedItems, 1)
	assert.Equal(t, int64(2500), insertedItems[0].PriceCents)
	assert.Equal(t, "M", insertedItems[0].Size)

	// One event for pending, one for payment_pending.
	assert.Len(t, uow.outboxRepo.inserted, 2)
	assert.Equal(t, 2, uow.commits)
}

func TestCompleteOrder_IdempotentWhenProcessing(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	ref := fulfillment.Real(555)

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{
			ID:             orderID,
			Status:         order.StatusProcessing,
			PaymentRef:     "PAY-42",
			FulfillmentRef: ref,
		}, nil
	}

	pay := &mockPaymentGateway{}
	svc := newTestService(uow, pay, &mockFulfillmentGateway{}, nil)

	result, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	require.NoError(t, err)
	assert.Equal(t, ref, result.FulfillmentRef)
	assert.Equal(t, 0, pay.captureCalls, "capture must not run twice")
}

func TestCompleteOrder_NotPayable(t *testing.T) {
	t.Parallel()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{ID: id, Status: order.StatusPending}, nil
	}

	svc := newTestService(uow, &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	_, err := svc.CompleteOrder(context.Background(), uuid.New(), "PAY-42")

	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestCompleteOrder_PaymentRefMismatch(t *testing.T) {
	t.Parallel()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{ID: id, Status: order.StatusPaymentPending, PaymentRef: "PAY-42"}, nil
	}

	pay := &mockPaymentGateway{}
	svc := newTestService(uow, pay, &mockFulfillmentGateway{}, nil)

	_, err := svc.CompleteOrder(context.Background(), uuid.New(), "PAY-OTHER")

	assert.ErrorIs(t, err, ErrPaymentRefMismatch)
	assert.Equal(t, 0, pay.captureCalls)
}

func TestCompleteOrder_CaptureDeclined(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{ID: orderID, Status: order.StatusPaymentPending, PaymentRef: "PAY-42"}, nil
	}

	var failedReason string
	uow.orderRepo.markFailedFn = func(ctx context.Context, id uuid.UUID, reason string) error {
		failedReason = reason

		return nil
	}

	pay := &mockPaymentGateway{
		captureOrderFn: func(ctx context.Context, providerOrderID string) (*payment.Order, error) {
			return &payment.Order{ID: providerOrderID, Status: "DECLINED"}, nil
		},
	}
	ful := &mockFulfillmentGateway{}
	svc := newTestService(uow, pay, ful, nil)

	_, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	assert.ErrorIs(t, err, ErrCaptureNotCompleted)
	assert.Contains(t, failedReason, "DECLINED")
	assert.Equal(t, 0, ful.createCalls, "fulfillment must not run after a declined capture")
}

func TestCompleteOrder_MissingShippingAddress(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{ID: orderID, Status: order.StatusPaymentPending, PaymentRef: "PAY-42"}, nil
	}
	uow.addressRepo.listByOrderIDFn = func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
		return nil, nil
	}

	var failed bool
	uow.orderRepo.markFailedFn = func(ctx context.Context, id uuid.UUID, reason string) error {
		failed = true

		return nil
	}

	svc := newTestService(uow, &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	_, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	assert.ErrorIs(t, err, ErrShippingAddressNotFound)
	assert.True(t, failed)
}

func TestCompleteOrder_HappyPathSandboxDraft(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	productID := uuid.New()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{
			ID:            orderID,
			Status:        order.StatusPaymentPending,
			PaymentRef:    "PAY-42",
			SubtotalCents: 25000,
			ShippingCents: 1000,
		}, nil
	}
	uow.orderItemRepo.listByOrderIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
		return []orderitem.OrderItem{{
			ID:         uuid.New(),
			OrderID:    orderID,
			ProductID:  productID,
			Name:       "Classic Tee",
			Quantity:   2,
			PriceCents: 12500,
		}}, nil
	}
	uow.addressRepo.listByOrderIDFn = func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
		return []address.Address{testShippingAddress(orderID)}, nil
	}
	uow.productRepo.getByIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
		return []product.Product{testProduct(productID, 12500, 4011)}, nil
	}

	var processed order.CompletionUpdate
	uow.orderRepo.markProcessingFn = func(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
		processed = upd

		return nil
	}

	ful := &mockFulfillmentGateway{
		createOrderFn: func(ctx context.Context, req fulfillmentgw.CreateOrderRequest, confirm bool) (*fulfillmentgw.Order, error) {
			assert.False(t, confirm, "sandbox runs create drafts")
			assert.Equal(t, orderID.String(), req.ExternalID)
			assert.Equal(t, "NO", req.Recipient.CountryCode)
			require.Len(t, req.Items, 1)
			assert.Equal(t, int64(4011), req.Items[0].VariantID)

			return &fulfillmentgw.Order{ID: 555, ExternalID: req.ExternalID, Status: "draft"}, nil
		},
	}

	svc := newTestService(uow, &mockPaymentGateway{}, ful, nil)

	result, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	require.NoError(t, err)
	assert.Equal(t, fulfillment.Real(555), result.FulfillmentRef)
	assert.Equal(t, order.FulfillmentDraft, processed.FulfillmentStatus)
	assert.Equal(t, int64(0), processed.ShippingCents, "25000 cents subtotal ships free")
	assert.NotZero(t, processed.CapturedAt)
}

func TestCompleteOrder_ProductionConfirms(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	productID := uuid.New()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{
			ID:            orderID,
			Status:        order.StatusPaymentPending,
			PaymentRef:    "PAY-42",
			SubtotalCents: 9999,
		}, nil
	}
	uow.orderItemRepo.listByOrderIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
		return []orderitem.OrderItem{{ID: uuid.New(), OrderID: orderID, ProductID: productID, Quantity: 1, PriceCents: 9999}}, nil
	}
	uow.addressRepo.listByOrderIDFn = func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
		return []address.Address{testShippingAddress(orderID)}, nil
	}
	uow.productRepo.getByIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
		return []product.Product{testProduct(productID, 9999, 4011)}, nil
	}

	var processed order.CompletionUpdate
	uow.orderRepo.markProcessingFn = func(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
		processed = upd

		return nil
	}

	ful := &mockFulfillmentGateway{
		createOrderFn: func(ctx context.Context, req fulfillmentgw.CreateOrderRequest, confirm bool) (*fulfillmentgw.Order, error) {
			assert.True(t, confirm, "production runs submit immediately")

			return &fulfillmentgw.Order{ID: 556, Status: "pending"}, nil
		},
	}

	svc := newTestService(uow, &mockPaymentGateway{}, ful, &config.Config{Environment: config.EnvProduction})

	_, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	require.NoError(t, err)
	assert.Equal(t, order.FulfillmentSubmitted, processed.FulfillmentStatus)
	assert.Equal(t, int64(1000), processed.ShippingCents, "9999 cents subtotal pays the flat rate")
}

func TestCompleteOrder_UnmappedVariantGoesToManualReview(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	productID := uuid.New()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{
			ID:            orderID,
			Status:        order.StatusPaymentPending,
			PaymentRef:    "PAY-42",
			SubtotalCents: 5000,
		}, nil
	}
	uow.orderItemRepo.listByOrderIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
		return []orderitem.OrderItem{{ID: uuid.New(), OrderID: orderID, ProductID: productID, Name: "Hand Drawn Print", Quantity: 1, PriceCents: 5000}}, nil
	}
	uow.addressRepo.listByOrderIDFn = func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
		return []address.Address{testShippingAddress(orderID)}, nil
	}
	uow.productRepo.getByIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
		return []product.Product{testProduct(productID, 5000, 0)}, nil
	}

	var processed order.CompletionUpdate
	uow.orderRepo.markProcessingFn = func(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
		processed = upd

		return nil
	}

	ful := &mockFulfillmentGateway{}
	svc := newTestService(uow, &mockPaymentGateway{}, ful, nil)

	result, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	require.NoError(t, err, "a captured order proceeds even without fulfillment")
	assert.Equal(t, 0, ful.createCalls)
	assert.Equal(t, order.FulfillmentManualReview, processed.FulfillmentStatus)
	assert.True(t, result.FulfillmentRef.IsZero())
}

func TestCompleteOrder_SkipFulfillmentFabricatesPlaceholder(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	productID := uuid.New()

	uow := newMockUOW()
	uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
		return &order.Order{
			ID:            orderID,
			Status:        order.StatusPaymentPending,
			PaymentRef:    "PAY-42",
			SubtotalCents: 5000,
		}, nil
	}
	uow.orderItemRepo.listByOrderIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
		return []orderitem.OrderItem{{ID: uuid.New(), OrderID: orderID, ProductID: productID, Quantity: 1, PriceCents: 5000}}, nil
	}
	uow.addressRepo.listByOrderIDFn = func(ctx context.Context, id uuid.UUID) ([]address.Address, error) {
		return []address.Address{testShippingAddress(orderID)}, nil
	}

	ful := &mockFulfillmentGateway{}
	cfg := &config.Config{Environment: config.EnvSandbox, SkipFulfillment: true}
	svc := newTestService(uow, &mockPaymentGateway{}, ful, cfg)

	result, err := svc.CompleteOrder(context.Background(), orderID, "PAY-42")

	require.NoError(t, err)
	assert.Equal(t, 0, ful.createCalls)
	assert.Equal(t, fulfillment.RefKindPlaceholder, result.FulfillmentRef.Kind)
	assert.Equal(t, "dev-"+orderID.String(), result.FulfillmentRef.ID)
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	uow := newMockUOW()

	var set order.Status
	uow.orderRepo.setStatusFn = func(ctx context.Context, id uuid.UUID, status order.Status) error {
		set = status

		return nil
	}

	svc := newTestService(uow, &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	require.NoError(t, svc.CancelOrder(context.Background(), orderID))
	assert.Equal(t, order.StatusCancelled, set)
	assert.Len(t, uow.outboxRepo.inserted, 1)
	assert.Equal(t, 1, uow.commits)
}

func TestConfirmDraftFulfillment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ref     fulfillment.Reference
		wantErr error
	}{
		{
			name:    "no reference",
			ref:     fulfillment.Reference{},
			wantErr: ErrNoFulfillmentRef,
		},
		{
			name:    "placeholder reference",
			ref:     fulfillment.Placeholder("dev-abc"),
			wantErr: ErrPlaceholderFulfillmentRef,
		},
		{
			name: "real reference",
			ref:  fulfillment.Real(555),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orderID := uuid.New()
			uow := newMockUOW()
			uow.orderRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
				return &order.Order{ID: orderID, Status: order.StatusProcessing, FulfillmentRef: tt.ref}, nil
			}

			var confirmedID int64
			ful := &mockFulfillmentGateway{
				confirmOrderFn: func(ctx context.Context, providerOrderID int64) (*fulfillmentgw.Order, error) {
					confirmedID = providerOrderID

					return &fulfillmentgw.Order{ID: providerOrderID, Status: "pending"}, nil
				},
			}

			var subStatus order.FulfillmentStatus
			uow.orderRepo.setFulfillmentStatusFn = func(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error {
				subStatus = fs

				return nil
			}

			svc := newTestService(uow, &mockPaymentGateway{}, ful, nil)

			err := svc.ConfirmDraftFulfillment(context.Background(), orderID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(555), confirmedID)
			assert.Equal(t, order.FulfillmentSubmitted, subStatus)
		})
	}
}

func TestGetOrdersAttachesItems(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	uow := newMockUOW()
	uow.orderRepo.queryFn = func(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
		return []order.Order{{ID: orderID, Status: order.StatusProcessing}}, nil
	}
	uow.orderItemRepo.listByOrderIDsFn = func(ctx context.Context, ids []uuid.UUID) ([]orderitem.OrderItem, error) {
		return []orderitem.OrderItem{
			{ID: uuid.New(), OrderID: orderID, Name: "Classic Tee"},
			{ID: uuid.New(), OrderID: uuid.New(), Name: "Other Order Item"},
		}, nil
	}

	svc := newTestService(uow, &mockPaymentGateway{}, &mockFulfillmentGateway{}, nil)

	orders, err := svc.GetOrders(context.Background(), &order.QueryOrdersModel{})

	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].OrderItems, 1)
	assert.Equal(t, "Classic Tee", orders[0].OrderItems[0].Name)
}

func TestRecomputeShipping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		subtotalCents int64
		want          int64
	}{
		{name: "below threshold", subtotalCents: 9999, want: 1000},
		{name: "at threshold", subtotalCents: 10000, want: 0},
		{name: "above threshold", subtotalCents: 25000, want: 0},
		{name: "zero subtotal", subtotalCents: 0, want: 1000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, RecomputeShipping(tt.subtotalCents))
		})
	}
}

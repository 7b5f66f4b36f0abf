package checkoutsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/config"
	"github.com/inkwear/storefront/internal/dal/interfaces/iaddressrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/inkwear/storefront/internal/dal/postgres"
	"github.com/inkwear/storefront/internal/dal/uow"
	fulfillmentgw "github.com/inkwear/storefront/internal/gateway/fulfillment"
	"github.com/inkwear/storefront/internal/gateway/payment"
	"github.com/inkwear/storefront/internal/service/models/address"
	"github.com/inkwear/storefront/internal/service/models/fulfillment"
	"github.com/inkwear/storefront/internal/service/models/order"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
	"github.com/inkwear/storefront/internal/service/models/outbox"
)

var (
	ErrEmptyCart                 = errors.New("cart must contain at least one item")
	ErrUnknownProduct            = errors.New("cart item references an unknown product")
	ErrOrderNotPayable           = errors.New("order is not awaiting payment")
	ErrPaymentRefMismatch        = errors.New("payment reference does not match the order")
	ErrCaptureNotCompleted       = errors.New("payment capture was not completed")
	ErrShippingAddressNotFound   = errors.New("shipping address not found")
	ErrVariantNotMapped          = errors.New("product has no fulfillment variant mapping")
	ErrNoFulfillmentRef          = errors.New("order has no fulfillment reference")
	ErrPlaceholderFulfillmentRef = errors.New("fulfillment reference is a local placeholder, not a provider order")
)

const (
	// Orders at or above the threshold ship free; everything else pays the
	// flat rate. Recomputed at capture time regardless of what was quoted at
	// checkout (see CompleteOrder).
	freeShippingThresholdCents = 10000
	flatShippingCents          = 1000

	orderEventsQueue = "storefront.order.events"
	eventMaxRetries  = 10
)

// paymentGateway is the surface of the payment provider client used here.
type paymentGateway interface {
	CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.Order, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*payment.Order, error)
}

// fulfillmentGateway is the surface of the fulfillment provider client used here.
type fulfillmentGateway interface {
	CreateOrder(ctx context.Context, req fulfillmentgw.CreateOrderRequest, confirm bool) (*fulfillmentgw.Order, error)
	ConfirmOrder(ctx context.Context, providerOrderID int64) (*fulfillmentgw.Order, error)
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	AddressRepository() iaddressrepo.IAddressRepository
	ProductRepository() iproductrepo.IProductRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// CheckoutService drives an order from creation to a terminal status,
// sequencing the store, the payment gateway and the fulfillment gateway.
type CheckoutService struct {
	cfg         *config.Config
	payment     paymentGateway
	fulfillment fulfillmentGateway
	newUOW      func() unitOfWork
	now         func() time.Time
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	s := &CheckoutService{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CheckoutService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CheckoutService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithConfig sets the runtime configuration.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg *config.Config) option {
	return func(s *CheckoutService) {
		s.cfg = cfg
	}
}

// WithPaymentGateway sets the payment provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentGateway(gw paymentGateway) option {
	return func(s *CheckoutService) {
		s.payment = gw
	}
}

// WithFulfillmentGateway sets the fulfillment provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithFulfillmentGateway(gw fulfillmentGateway) option {
	return func(s *CheckoutService) {
		s.fulfillment = gw
	}
}

// WithUnitOfWorkFactory overrides the unit-of-work factory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *CheckoutService) {
		s.newUOW = factory
	}
}

// CartItem is one line of the submitted cart.
type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Size      string    `json:"size,omitempty"`
}

// CreateOrderParams is the input of CreateOrder. The pricing breakdown is
// supplied by the caller and not recomputed server-side.
type CreateOrderParams struct {
	UserID          *uuid.UUID
	Items           []CartItem
	ShippingAddress address.Address
	SubtotalCents   int64
	ShippingCents   int64
	TotalCents      int64
}

// CreateOrderResult identifies the created order and its payment order.
type CreateOrderResult struct {
	OrderID    uuid.UUID `json:"orderId"`
	PaymentRef string    `json:"paymentRef"`
}

// CreateOrder persists the order with its items and address in one
// transaction, then creates the payment-provider order and advances the
// status to payment_pending. A failure after the local insert leaves the
// order in status pending; nothing is retried.
func (s *CheckoutService) CreateOrder(ctx context.Context, params CreateOrderParams) (*CreateOrderResult, error) {
	if len(params.Items) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	orderID := uuid.New()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	productIDs := make([]uuid.UUID, 0, len(params.Items))
	for _, item := range params.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := work.ProductRepository().GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	ord := &order.Order{
		ID:            orderID,
		UserID:        params.UserID,
		Status:        order.StatusPending,
		SubtotalCents: params.SubtotalCents,
		ShippingCents: params.ShippingCents,
		TotalCents:    params.TotalCents,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]orderitem.OrderItem, 0, len(params.Items))
	for _, cartItem := range params.Items {
		idx, ok := byID[cartItem.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, cartItem.ProductID)
		}
		p := products[idx]

		items = append(items, orderitem.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			ProductID:  p.ID,
			Name:       p.Name,
			Size:       cartItem.Size,
			Quantity:   cartItem.Quantity,
			PriceCents: p.PriceCents,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	addr := params.ShippingAddress
	addr.ID = uuid.New()
	addr.OrderID = &orderID
	addr.Kind = address.KindShipping
	addr.CreatedAt = now

	if err := work.OrderRepository().Insert(ctx, ord); err != nil {
		return nil, err
	}
	if err := work.OrderItemRepository().BulkInsert(ctx, items); err != nil {
		return nil, err
	}
	if err := work.AddressRepository().Insert(ctx, &addr); err != nil {
		return nil, err
	}
	if err := s.enqueueOrderEvent(ctx, work.OutboxRepository(), orderID, order.StatusPending); err != nil {
		return nil, err
	}
	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	payOrder, err := s.payment.CreateOrder(ctx, buildPaymentRequest(ord, items))
	if err != nil {
		slog.Error("Failed to create payment order", "order_id", orderID, "error", err)

		return nil, err
	}

	if err := s.transition(ctx, func(ctx context.Context, work unitOfWork) error {
		if err := work.OrderRepository().SetPaymentPending(ctx, orderID, payOrder.ID); err != nil {
			return err
		}

		return s.enqueueOrderEvent(ctx, work.OutboxRepository(), orderID, order.StatusPaymentPending)
	}); err != nil {
		return nil, err
	}

	slog.Info("Order created", "order_id", orderID, "payment_ref", payOrder.ID)

	return &CreateOrderResult{
		OrderID:    orderID,
		PaymentRef: payOrder.ID,
	}, nil
}

// CompleteOrderResult identifies the finished order and its external references.
type CompleteOrderResult struct {
	OrderID        uuid.UUID             `json:"orderId"`
	PaymentRef     string                `json:"paymentRef"`
	FulfillmentRef fulfillment.Reference `json:"fulfillmentRef"`
}

// CompleteOrder captures the payment and creates the fulfillment order.
// Capture failure is fatal and marks the order failed. Fulfillment failure
// after a successful capture is tolerated: the order still becomes processing
// and is flagged for manual review instead of being rolled back.
//
// Calling CompleteOrder again on an order that already reached processing
// returns its existing references without capturing a second time.
func (s *CheckoutService) CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentRef string) (*CompleteOrderResult, error) {
	work := s.newUOW()

	ord, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status == order.StatusProcessing {
		slog.Info("Order already completed", "order_id", orderID)

		return &CompleteOrderResult{
			OrderID:        ord.ID,
			PaymentRef:     ord.PaymentRef,
			FulfillmentRef: ord.FulfillmentRef,
		}, nil
	}
	if ord.Status != order.StatusPaymentPending {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotPayable, ord.Status)
	}
	if ord.PaymentRef != paymentRef {
		return nil, ErrPaymentRefMismatch
	}

	capture, err := s.payment.CaptureOrder(ctx, paymentRef)
	if err != nil {
		s.failOrder(ctx, orderID, err.Error())

		return nil, err
	}
	if capture.Status != payment.StatusCompleted {
		err := fmt.Errorf("%w: status is %s", ErrCaptureNotCompleted, capture.Status)
		s.failOrder(ctx, orderID, err.Error())

		return nil, err
	}

	capturedAt := s.now()

	// The store is the source of truth from here on; in-memory state from
	// checkout is not trusted.
	ord, err = work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		s.failOrder(ctx, orderID, err.Error())

		return nil, err
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, []uuid.UUID{orderID})
	if err != nil {
		s.failOrder(ctx, orderID, err.Error())

		return nil, err
	}

	addresses, err := work.AddressRepository().ListByOrderID(ctx, orderID)
	if err != nil {
		s.failOrder(ctx, orderID, err.Error())

		return nil, err
	}

	var shippingAddr *address.Address
	for i := range addresses {
		if addresses[i].Kind == address.KindShipping {
			shippingAddr = &addresses[i]

			break
		}
	}
	if shippingAddr == nil {
		s.failOrder(ctx, orderID, ErrShippingAddressNotFound.Error())

		return nil, ErrShippingAddressNotFound
	}

	shippingCents := RecomputeShipping(ord.SubtotalCents)

	ref, fulfillmentStatus := s.createFulfillmentOrder(ctx, work, ord, items, shippingAddr)

	if err := s.transition(ctx, func(ctx context.Context, work unitOfWork) error {
		if err := work.OrderRepository().MarkProcessing(ctx, orderID, order.CompletionUpdate{
			FulfillmentRef:    ref,
			FulfillmentStatus: fulfillmentStatus,
			ShippingCents:     shippingCents,
			CapturedAt:        capturedAt,
		}); err != nil {
			return err
		}

		return s.enqueueOrderEvent(ctx, work.OutboxRepository(), orderID, order.StatusProcessing)
	}); err != nil {
		return nil, err
	}

	slog.Info("Order completed", "order_id", orderID, "fulfillment_ref", ref.ID, "fulfillment_status", fulfillmentStatus)

	return &CompleteOrderResult{
		OrderID:        orderID,
		PaymentRef:     paymentRef,
		FulfillmentRef: ref,
	}, nil
}

// createFulfillmentOrder attempts the fulfillment leg. Errors are logged and
// absorbed into the manual_review sub-status; payment is already captured, so
// the order proceeds regardless.
func (s *CheckoutService) createFulfillmentOrder(
	ctx context.Context,
	work unitOfWork,
	ord *order.Order,
	items []orderitem.OrderItem,
	addr *address.Address,
) (fulfillment.Reference, order.FulfillmentStatus) {
	if s.cfg.SkipFulfillment {
		ref := fulfillment.Placeholder("dev-" + ord.ID.String())
		slog.Info("Fulfillment skipped, placeholder reference fabricated", "order_id", ord.ID, "ref", ref.ID)

		return ref, order.FulfillmentDraft
	}

	req, err := s.buildFulfillmentRequest(ctx, work, ord, items, addr)
	if err != nil {
		slog.Error("Fulfillment order not created, order needs manual review", "order_id", ord.ID, "error", err)

		return fulfillment.Reference{}, order.FulfillmentManualReview
	}

	confirm := s.cfg.Environment == config.EnvProduction

	created, err := s.fulfillment.CreateOrder(ctx, *req, confirm)
	if err != nil {
		slog.Error("Fulfillment order creation failed, order needs manual review", "order_id", ord.ID, "error", err)

		return fulfillment.Reference{}, order.FulfillmentManualReview
	}

	status := order.FulfillmentDraft
	if confirm {
		status = order.FulfillmentSubmitted
	}

	return fulfillment.Real(created.ID), status
}

func (s *CheckoutService) buildFulfillmentRequest(
	ctx context.Context,
	work unitOfWork,
	ord *order.Order,
	items []orderitem.OrderItem,
	addr *address.Address,
) (*fulfillmentgw.CreateOrderRequest, error) {
	productIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := work.ProductRepository().GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	variantByProduct := make(map[uuid.UUID]int64, len(products))
	for _, p := range products {
		variantByProduct[p.ID] = p.ProviderVariantID
	}

	gwItems := make([]fulfillmentgw.OrderItem, 0, len(items))
	for _, item := range items {
		variantID := variantByProduct[item.ProductID]
		if variantID == 0 {
			return nil, fmt.Errorf("%w: product %s (%s)", ErrVariantNotMapped, item.ProductID, item.Name)
		}

		gwItems = append(gwItems, fulfillmentgw.OrderItem{
			ExternalID:  item.ID.String(),
			VariantID:   variantID,
			Quantity:    item.Quantity,
			RetailPrice: payment.FormatCents(item.PriceCents),
			Name:        item.Name,
		})
	}

	return &fulfillmentgw.CreateOrderRequest{
		ExternalID: ord.ID.String(),
		Recipient: fulfillmentgw.Recipient{
			Name:        addr.Name,
			Address1:    addr.Line1,
			Address2:    addr.Line2,
			City:        addr.City,
			StateCode:   addr.State,
			CountryCode: CountryCode(addr.Country),
			Zip:         addr.Zip,
			Phone:       addr.Phone,
			Email:       addr.Email,
		},
		Items: gwItems,
	}, nil
}

// CancelOrder unconditionally moves the order to cancelled. No validation of
// the current status and no compensating gateway calls are performed.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	return s.transition(ctx, func(ctx context.Context, work unitOfWork) error {
		if err := work.OrderRepository().SetStatus(ctx, orderID, order.StatusCancelled); err != nil {
			return err
		}

		return s.enqueueOrderEvent(ctx, work.OutboxRepository(), orderID, order.StatusCancelled)
	})
}

// ConfirmDraftFulfillment submits a draft fulfillment order for production.
// Placeholder references fabricated in development runs are rejected by kind.
func (s *CheckoutService) ConfirmDraftFulfillment(ctx context.Context, orderID uuid.UUID) error {
	work := s.newUOW()

	ord, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if ord.FulfillmentRef.IsZero() {
		return ErrNoFulfillmentRef
	}
	if !ord.FulfillmentRef.IsReal() {
		return ErrPlaceholderFulfillmentRef
	}

	providerID, err := strconv.ParseInt(ord.FulfillmentRef.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid fulfillment reference %q: %w", ord.FulfillmentRef.ID, err)
	}

	if _, err := s.fulfillment.ConfirmOrder(ctx, providerID); err != nil {
		return err
	}

	return work.OrderRepository().SetFulfillmentStatus(ctx, orderID, order.FulfillmentSubmitted)
}

// GetOrders retrieves orders with their items based on filter.
func (s *CheckoutService) GetOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}

	items, err := work.OrderItemRepository().ListByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}

// RecomputeShipping applies the flat threshold rule used at capture time.
func RecomputeShipping(subtotalCents int64) int64 {
	if subtotalCents >= freeShippingThresholdCents {
		return 0
	}

	return flatShippingCents
}

// failOrder marks the order failed. Failures here are logged only; the
// original error is what the caller gets back.
func (s *CheckoutService) failOrder(ctx context.Context, orderID uuid.UUID, reason string) {
	if err := s.transition(ctx, func(ctx context.Context, work unitOfWork) error {
		if err := work.OrderRepository().MarkFailed(ctx, orderID, reason); err != nil {
			return err
		}

		return s.enqueueOrderEvent(ctx, work.OutboxRepository(), orderID, order.StatusFailed)
	}); err != nil {
		slog.Error("Failed to mark order as failed", "order_id", orderID, "error", err)
	}
}

// transition runs one status change plus its outbox event in a transaction.
func (s *CheckoutService) transition(ctx context.Context, fn func(ctx context.Context, work unitOfWork) error) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() { _ = work.Rollback(ctx) }()

	if err := fn(ctx, work); err != nil {
		return err
	}

	return work.Commit(ctx)
}

type orderEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *CheckoutService) enqueueOrderEvent(ctx context.Context, repo ioutboxrepo.IOutboxRepository, orderID uuid.UUID, status order.Status) error {
	now := s.now()
	payload, err := json.Marshal(orderEvent{
		OrderID:    orderID,
		Status:     status.String(),
		OccurredAt: now,
	})
	if err != nil {
		return err
	}

	return repo.Insert(ctx, outbox.Message{
		QueueName:   orderEventsQueue,
		RoutingKey:  orderEventsQueue,
		Payload:     payload,
		ContentType: "application/json",
		MaxRetries:  eventMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}

func buildPaymentRequest(ord *order.Order, items []orderitem.OrderItem) payment.CreateOrderRequest {
	payItems := make([]payment.Item, 0, len(items))
	for _, item := range items {
		payItems = append(payItems, payment.Item{
			Name:     item.Name,
			Quantity: strconv.Itoa(item.Quantity),
			SKU:      item.ProductID.String(),
			UnitAmount: payment.Amount{
				CurrencyCode: currencyCode,
				Value:        payment.FormatCents(item.PriceCents),
			},
		})
	}

	return payment.CreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []payment.PurchaseUnit{
			{
				ReferenceID: ord.ID.String(),
				Amount: payment.PurchaseAmount{
					CurrencyCode: currencyCode,
					Value:        payment.FormatCents(ord.TotalCents),
					Breakdown: payment.AmountBreakdown{
						ItemTotal: payment.Amount{
							CurrencyCode: currencyCode,
							Value:        payment.FormatCents(ord.SubtotalCents),
						},
						Shipping: payment.Amount{
							CurrencyCode: currencyCode,
							Value:        payment.FormatCents(ord.ShippingCents),
						},
					},
				},
				Items: payItems,
			},
		},
	}
}

const currencyCode = "USD"

package webhooksvc

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/order"
	"github.com/inkwear/storefront/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrderRepo struct {
	setShippedFn           func(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error
	markFailedFn           func(ctx context.Context, id uuid.UUID, reason string) error
	setFulfillmentStatusFn func(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error
}

func (m *mockOrderRepo) Insert(ctx context.Context, o *order.Order) error { return nil }

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	return nil
}

func (m *mockOrderRepo) SetPaymentPending(ctx context.Context, id uuid.UUID, paymentRef string) error {
	return nil
}

func (m *mockOrderRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, reason)
	}

	return nil
}

func (m *mockOrderRepo) MarkProcessing(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
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

type mockProductRepo struct {
	setInStockFn func(ctx context.Context, variantID int64, inStock bool) error
}

func (m *mockProductRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Upsert(ctx context.Context, p *product.Product) error { return nil }

func (m *mockProductRepo) DeleteMissingVariants(ctx context.Context, keep []int64) error {
	return nil
}

func (m *mockProductRepo) SetInStockByProviderVariantID(ctx context.Context, variantID int64, inStock bool) error {
	if m.setInStockFn != nil {
		return m.setInStockFn(ctx, variantID, inStock)
	}

	return nil
}

func TestApplyPackageShipped(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()

	var gotTracking, gotCarrier string
	var gotOrderID uuid.UUID
	orderRepo := &mockOrderRepo{
		setShippedFn: func(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error {
			gotOrderID = id
			gotTracking = trackingNumber
			gotCarrier = carrier

			return nil
		},
	}

	svc := MustNewWebhookService(WithOrderRepository(orderRepo))

	err := svc.Apply(context.Background(), Event{
		Type: EventPackageShipped,
		Data: EventData{
			Order:    &OrderData{ID: 555, ExternalID: orderID.String()},
			Shipment: &ShipmentData{TrackingNumber: "1Z999", TrackingURL: "https://track/1Z999", Carrier: "UPS"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, orderID, gotOrderID)
	assert.Equal(t, "1Z999", gotTracking)
	assert.Equal(t, "UPS", gotCarrier)
}

func TestApplyOrderFailed(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()

	var gotReason string
	orderRepo := &mockOrderRepo{
		markFailedFn: func(ctx context.Context, id uuid.UUID, reason string) error {
			gotReason = reason

			return nil
		},
	}

	svc := MustNewWebhookService(WithOrderRepository(orderRepo))

	err := svc.Apply(context.Background(), Event{
		Type: EventOrderFailed,
		Data: EventData{
			Order:  &OrderData{ExternalID: orderID.String()},
			Reason: "Out of stock",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Out of stock", gotReason)
}

func TestApplyOrderCreated(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()

	var gotStatus order.FulfillmentStatus
	orderRepo := &mockOrderRepo{
		setFulfillmentStatusFn: func(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error {
			gotStatus = fs

			return nil
		},
	}

	svc := MustNewWebhookService(WithOrderRepository(orderRepo))

	err := svc.Apply(context.Background(), Event{
		Type: EventOrderCreated,
		Data: EventData{Order: &OrderData{ExternalID: orderID.String()}},
	})

	require.NoError(t, err)
	assert.Equal(t, order.FulfillmentSubmitted, gotStatus)
}

func TestApplyStockUpdated(t *testing.T) {
	t.Parallel()

	var gotVariantID int64
	var gotInStock bool
	productRepo := &mockProductRepo{
		setInStockFn: func(ctx context.Context, variantID int64, inStock bool) error {
			gotVariantID = variantID
			gotInStock = inStock

			return nil
		},
	}

	svc := MustNewWebhookService(WithProductRepository(productRepo))

	err := svc.Apply(context.Background(), Event{
		Type: EventStockUpdated,
		Data: EventData{Variant: &VariantData{VariantID: 4011, InStock: false}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4011), gotVariantID)
	assert.False(t, gotInStock)
}

func TestApplyUnknownEventType(t *testing.T) {
	t.Parallel()

	svc := MustNewWebhookService(WithOrderRepository(&mockOrderRepo{}))

	err := svc.Apply(context.Background(), Event{Type: "order_remind_user"})

	assert.ErrorIs(t, err, ErrUnknownEventType)
}

func TestApplyMissingOrderRef(t *testing.T) {
	t.Parallel()

	svc := MustNewWebhookService(WithOrderRepository(&mockOrderRepo{}))

	err := svc.Apply(context.Background(), Event{Type: EventPackageShipped})

	assert.ErrorIs(t, err, ErrMissingOrderRef)
}

func TestApplyInvalidExternalID(t *testing.T) {
	t.Parallel()

	svc := MustNewWebhookService(WithOrderRepository(&mockOrderRepo{}))

	err := svc.Apply(context.Background(), Event{
		Type: EventPackageShipped,
		Data: EventData{Order: &OrderData{ExternalID: "not-a-uuid"}},
	})

	require.Error(t, err)
}

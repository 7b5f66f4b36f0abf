package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/address"
	"github.com/inkwear/storefront/internal/service/services/checkoutsvc"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, params checkoutsvc.CreateOrderParams) (*checkoutsvc.CreateOrderResult, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gt=0"`
	Size      string    `json:"size,omitempty"`
}

func (r *itemInCreateOrderRequest) toModel() checkoutsvc.CartItem {
	return checkoutsvc.CartItem{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Size:      r.Size,
	}
}

type shippingAddress struct {
	Name    string `json:"name"            validate:"required"`
	Line1   string `json:"line1"           validate:"required"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"            validate:"required"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip"             validate:"required"`
	Country string `json:"country"         validate:"required"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
}

type createOrderRequest struct {
	UserID          *uuid.UUID                 `json:"userId,omitempty"`
	Items           []itemInCreateOrderRequest `json:"items"           validate:"required,min=1,dive"`
	ShippingAddress shippingAddress            `json:"shippingAddress"`
	SubtotalCents   int64                      `json:"subtotalCents"   validate:"gte=0"`
	ShippingCents   int64                      `json:"shippingCents"   validate:"gte=0"`
	TotalCents      int64                      `json:"totalCents"      validate:"gte=0"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *createOrderRequest) toParams() checkoutsvc.CreateOrderParams {
	items := make([]checkoutsvc.CartItem, len(r.Items))
	for i := range r.Items {
		items[i] = r.Items[i].toModel()
	}

	return checkoutsvc.CreateOrderParams{
		UserID: r.UserID,
		Items:  items,
		ShippingAddress: address.Address{
			Name:    r.ShippingAddress.Name,
			Line1:   r.ShippingAddress.Line1,
			Line2:   r.ShippingAddress.Line2,
			City:    r.ShippingAddress.City,
			State:   r.ShippingAddress.State,
			Zip:     r.ShippingAddress.Zip,
			Country: r.ShippingAddress.Country,
			Phone:   r.ShippingAddress.Phone,
			Email:   r.ShippingAddress.Email,
		},
		SubtotalCents: r.SubtotalCents,
		ShippingCents: r.ShippingCents,
		TotalCents:    r.TotalCents,
	}
}

type createOrderResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderId,omitempty"`
	PaymentRef string `json:"paymentRef,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CreateOrder handles the checkout submission.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	result, err := service.CreateOrder(r.Context(), req.toParams())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, checkoutsvc.ErrEmptyCart) || errors.Is(err, checkoutsvc.ErrUnknownProduct) {
			status = http.StatusBadRequest
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(createOrderResponse{Success: false, Error: err.Error()})
		slog.Error("Error creating order", "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(createOrderResponse{
		Success:    true,
		OrderID:    result.OrderID.String(),
		PaymentRef: result.PaymentRef,
	}); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}

package iaddressrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/address"
)

// IAddressRepository is an interface for the address postgres repository.
type IAddressRepository interface {
	Insert(ctx context.Context, a *address.Address) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]address.Address, error)
}

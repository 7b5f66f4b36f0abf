package address

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes what an address is used for.
type Kind string

const (
	KindShipping Kind = "shipping"
	KindBilling  Kind = "billing"
)

func (k Kind) String() string {
	return string(k)
}

// Address is a shipping or billing address. Order-scoped addresses carry an
// OrderID; profile addresses carry a UserID instead.
type Address struct {
	ID        uuid.UUID  `json:"id"`
	OrderID   *uuid.UUID `json:"orderId,omitempty"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	Kind      Kind       `json:"kind"`
	Name      string     `json:"name"`
	Line1     string     `json:"line1"`
	Line2     string     `json:"line2,omitempty"`
	City      string     `json:"city"`
	State     string     `json:"state,omitempty"`
	Zip       string     `json:"zip"`
	Country   string     `json:"country"`
	Phone     string     `json:"phone,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

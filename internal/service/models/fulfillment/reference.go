package fulfillment

import "fmt"

// RefKind tags a fulfillment order reference as real or locally fabricated.
type RefKind string

const (
	RefKindNone RefKind = ""
	// RefKindReal is an id issued by the fulfillment provider.
	RefKindReal RefKind = "real"
	// RefKindPlaceholder is a synthetic id fabricated when fulfillment calls
	// are skipped in development. It never corresponds to a provider order and
	// must not be sent back to the provider.
	RefKindPlaceholder RefKind = "placeholder"
)

// Reference identifies a fulfillment order at the provider, or a local
// placeholder standing in for one.
type Reference struct {
	Kind RefKind `json:"kind,omitempty"`
	ID   string  `json:"id,omitempty"`
}

// Real wraps a provider-issued order id.
func Real(id int64) Reference {
	return Reference{Kind: RefKindReal, ID: fmt.Sprintf("%d", id)}
}

// Placeholder fabricates a reference for runs that skip the provider.
func Placeholder(syntheticID string) Reference {
	return Reference{Kind: RefKindPlaceholder, ID: syntheticID}
}

// IsZero reports whether no reference is attached.
func (r Reference) IsZero() bool {
	return r.Kind == RefKindNone && r.ID == ""
}

// IsReal reports whether the reference points at an actual provider order.
func (r Reference) IsReal() bool {
	return r.Kind == RefKindReal
}

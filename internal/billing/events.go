package billing

// EventKind is the closed set of payment-provider event kinds this service
// interprets. Everything else maps to EventUnknown and is acknowledged
// without effect.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventCheckoutCompleted
	EventSubscriptionUpdated
	EventSubscriptionDeleted
)

// String returns the provider-side name for the kind.
func (k EventKind) String() string {
	switch k {
	case EventCheckoutCompleted:
		return "checkout.session.completed"
	case EventSubscriptionUpdated:
		return "customer.subscription.updated"
	case EventSubscriptionDeleted:
		return "customer.subscription.deleted"
	default:
		return "unknown"
	}
}

// CheckoutCompleted carries the fields consumed from a completed checkout
// session event.
type CheckoutCompleted struct {
	PaymentStatus string // "paid" triggers the upgrade
	UserEmail     string // from session metadata; empty means no-op
	CustomerID    string // provider customer reference, stored on upgrade
}

// SubscriptionChange carries the fields consumed from a subscription
// updated/deleted event.
type SubscriptionChange struct {
	Status    string // "active" maps to premium, anything else to free
	UserEmail string // from subscription metadata; empty means no-op
}

// Event is a verified, decoded webhook event.
type Event struct {
	Kind         EventKind
	Checkout     *CheckoutCompleted  // set when Kind is EventCheckoutCompleted
	Subscription *SubscriptionChange // set for subscription kinds
}

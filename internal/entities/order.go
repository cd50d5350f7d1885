package entities

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the full order state machine. Terminal states
// (delivered, cancelled) have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItem snapshots the product at order-creation time. Later product edits
// never alter historical orders.
type LineItem struct {
	ProductID string
	Title     string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

type Address struct {
	FullName string
	Street   string
	City     string
	State    string
	ZIP      string
	Country  string
	Phone    string
}

type Order struct {
	ID             string
	UserID         string
	Items          []LineItem
	Subtotal       int64
	Tax            int64
	Shipping       int64
	Total          int64
	Currency       string
	ShippingAddr   Address
	BillingAddr    Address
	PaymentMethod  PaymentMethod
	Status         OrderStatus
	TrackingNumber string
	CancelReason   string
	Notes          string
	CreatedAt      time.Time
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
}

func (o Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

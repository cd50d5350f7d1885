package handler

import (
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

// Address is a shipping or billing address snapshot
type Address struct {
	FullName string `json:"full_name" validate:"required"`
	Street   string `json:"street" validate:"required"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZIP      string `json:"zip,omitempty"`
	Country  string `json:"country,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// CreateOrderRequest builds an order from the caller's cart
type CreateOrderRequest struct {
	ShippingAddress Address  `json:"shipping_address" validate:"required"`
	BillingAddress  *Address `json:"billing_address,omitempty"`
	PaymentMethod   string   `json:"payment_method" validate:"required,oneof=card bank_transfer paystack flutterwave"`
}

// CancelOrderRequest carries the optional cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// TransitionStatusRequest is the admin status-change payload
type TransitionStatusRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Notes          string `json:"notes,omitempty" validate:"max=500"`
}

// InitiatePaymentRequest starts a payment attempt for an order
type InitiatePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Method  string `json:"method" validate:"required,oneof=card bank_transfer paystack flutterwave"`
}

// RefundRequest records a refund against a completed payment
type RefundRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// LineItem is a snapshotted order line
type LineItem struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// Order is the order representation returned to clients
type Order struct {
	OrderID        string     `json:"order_id"`
	UserID         string     `json:"user_id"`
	Items          []LineItem `json:"items"`
	Subtotal       int64      `json:"subtotal"`
	Tax            int64      `json:"tax"`
	Shipping       int64      `json:"shipping"`
	Total          int64      `json:"total"`
	Currency       string     `json:"currency"`
	ShippingAddr   Address    `json:"shipping_address"`
	BillingAddr    Address    `json:"billing_address"`
	PaymentMethod  string     `json:"payment_method"`
	Status         string     `json:"status"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	CancelReason   string     `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// Refund is a recorded refund against a payment
type Refund struct {
	RefundID  string    `json:"refund_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment is the payment representation returned to clients
type Payment struct {
	PaymentID    string            `json:"payment_id"`
	OrderID      string            `json:"order_id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Method       string            `json:"method"`
	Gateway      string            `json:"gateway"`
	Reference    string            `json:"reference"`
	Status       string            `json:"status"`
	GatewayTxnID string            `json:"gateway_txn_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Refunds      []Refund          `json:"refunds,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	FailedAt     *time.Time        `json:"failed_at,omitempty"`
}

// InitiatePaymentResponse pairs the payment with the provider payload
type InitiatePaymentResponse struct {
	Payment Payment           `json:"payment"`
	Payload map[string]string `json:"payload,omitempty"`
}

func AddressJSONToEntity(a Address) entities.Address {
	return entities.Address{
		FullName: a.FullName,
		Street:   a.Street,
		City:     a.City,
		State:    a.State,
		ZIP:      a.ZIP,
		Country:  a.Country,
		Phone:    a.Phone,
	}
}

func AddressEntityToJSON(a entities.Address) Address {
	return Address{
		FullName: a.FullName,
		Street:   a.Street,
		City:     a.City,
		State:    a.State,
		ZIP:      a.ZIP,
		Country:  a.Country,
		Phone:    a.Phone,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, LineItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}

	return Order{
		OrderID:        o.ID,
		UserID:         o.UserID,
		Items:          items,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		Shipping:       o.Shipping,
		Total:          o.Total,
		Currency:       o.Currency,
		ShippingAddr:   AddressEntityToJSON(o.ShippingAddr),
		BillingAddr:    AddressEntityToJSON(o.BillingAddr),
		PaymentMethod:  string(o.PaymentMethod),
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		CancelReason:   o.CancelReason,
		CreatedAt:      o.CreatedAt,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
	}
}

func PaymentEntityToJSON(p entities.Payment) Payment {
	var refunds []Refund
	for _, r := range p.Refunds {
		refunds = append(refunds, Refund{
			RefundID:  r.ID,
			Amount:    r.Amount,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}

	return Payment{
		PaymentID:    p.ID,
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Method:       string(p.Method),
		Gateway:      p.Gateway,
		Reference:    p.Reference,
		Status:       string(p.Status),
		GatewayTxnID: p.GatewayTxnID,
		Metadata:     p.Metadata,
		Refunds:      refunds,
		LastError:    p.LastErrMsg,
		CreatedAt:    p.CreatedAt,
		CompletedAt:  p.CompletedAt,
		FailedAt:     p.FailedAt,
	}
}

package repo

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Semzy1/Log-In-page-main/internal/entities"
)

type Product struct {
	ProductID     string `db:"product_id"`
	Title         string `db:"title"`
	Price         int64  `db:"price"`
	Quantity      int    `db:"quantity"`
	TrackQuantity bool   `db:"track_quantity"`
	Active        bool   `db:"active"`
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:            p.ProductID,
		Title:         p.Title,
		Price:         p.Price,
		Quantity:      p.Quantity,
		TrackQuantity: p.TrackQuantity,
		Active:        p.Active,
	}
}

type CartItem struct {
	UserID    string `db:"user_id"`
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
}

type Order struct {
	OrderID        string         `db:"order_id"`
	UserID         string         `db:"user_id"`
	Subtotal       int64          `db:"subtotal"`
	Tax            int64          `db:"tax"`
	Shipping       int64          `db:"shipping"`
	Total          int64          `db:"total"`
	Currency       string         `db:"currency"`
	PaymentMethod  string         `db:"payment_method"`
	Status         string         `db:"status"`
	TrackingNumber sql.NullString `db:"tracking_number"`
	CancelReason   sql.NullString `db:"cancel_reason"`
	Notes          sql.NullString `db:"notes"`
	CreatedAt      time.Time      `db:"created_at"`
	ShippedAt      sql.NullTime   `db:"shipped_at"`
	DeliveredAt    sql.NullTime   `db:"delivered_at"`
	CancelledAt    sql.NullTime   `db:"cancelled_at"`
}

type OrderAddress struct {
	OrderID  string         `db:"order_id"`
	Kind     string         `db:"kind"`
	FullName string         `db:"full_name"`
	Street   string         `db:"street"`
	City     sql.NullString `db:"city"`
	State    sql.NullString `db:"state"`
	ZIP      sql.NullString `db:"zip"`
	Country  sql.NullString `db:"country"`
	Phone    sql.NullString `db:"phone"`
}

const (
	addressKindShipping = "shipping"
	addressKindBilling  = "billing"
)

type OrderItem struct {
	OrderID   string `db:"order_id"`
	ProductID string `db:"product_id"`
	Title     string `db:"title"`
	UnitPrice int64  `db:"unit_price"`
	Quantity  int    `db:"quantity"`
	LineTotal int64  `db:"line_total"`
}

type Payment struct {
	PaymentID    string          `db:"payment_id"`
	OrderID      string          `db:"order_id"`
	UserID       string          `db:"user_id"`
	Amount       int64           `db:"amount"`
	Currency     string          `db:"currency"`
	Method       string          `db:"method"`
	Gateway      string          `db:"gateway"`
	Reference    string          `db:"reference"`
	Status       string          `db:"status"`
	GatewayTxnID sql.NullString  `db:"gateway_txn_id"`
	Metadata     json.RawMessage `db:"metadata"`
	LastErrCode  sql.NullString  `db:"last_err_code"`
	LastErrMsg   sql.NullString  `db:"last_err_msg"`
	CreatedAt    time.Time       `db:"created_at"`
	CompletedAt  sql.NullTime    `db:"completed_at"`
	FailedAt     sql.NullTime    `db:"failed_at"`
}

type Refund struct {
	RefundID  string    `db:"refund_id"`
	PaymentID string    `db:"payment_id"`
	Amount    int64     `db:"amount"`
	Reason    string    `db:"reason"`
	ActorID   string    `db:"actor_id"`
	CreatedAt time.Time `db:"created_at"`
}

func addressToModel(orderID, kind string, a entities.Address) OrderAddress {
	return OrderAddress{
		OrderID:  orderID,
		Kind:     kind,
		FullName: a.FullName,
		Street:   a.Street,
		City:     nullString(a.City),
		State:    nullString(a.State),
		ZIP:      nullString(a.ZIP),
		Country:  nullString(a.Country),
		Phone:    nullString(a.Phone),
	}
}

func addressToEntity(a OrderAddress) entities.Address {
	return entities.Address{
		FullName: a.FullName,
		Street:   a.Street,
		City:     nullStringToString(a.City),
		State:    nullStringToString(a.State),
		ZIP:      nullStringToString(a.ZIP),
		Country:  nullStringToString(a.Country),
		Phone:    nullStringToString(a.Phone),
	}
}

func OrderToEntity(o Order, addresses []OrderAddress, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:             o.OrderID,
		UserID:         o.UserID,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		Shipping:       o.Shipping,
		Total:          o.Total,
		Currency:       o.Currency,
		PaymentMethod:  entities.PaymentMethod(o.PaymentMethod),
		Status:         entities.OrderStatus(o.Status),
		TrackingNumber: nullStringToString(o.TrackingNumber),
		CancelReason:   nullStringToString(o.CancelReason),
		Notes:          nullStringToString(o.Notes),
		CreatedAt:      o.CreatedAt,
		ShippedAt:      nullTimeToPtr(o.ShippedAt),
		DeliveredAt:    nullTimeToPtr(o.DeliveredAt),
		CancelledAt:    nullTimeToPtr(o.CancelledAt),
	}

	for _, a := range addresses {
		switch a.Kind {
		case addressKindShipping:
			order.ShippingAddr = addressToEntity(a)
		case addressKindBilling:
			order.BillingAddr = addressToEntity(a)
		}
	}

	if len(items) > 0 {
		order.Items = make([]entities.LineItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, entities.LineItem{
				ProductID: it.ProductID,
				Title:     it.Title,
				UnitPrice: it.UnitPrice,
				Quantity:  it.Quantity,
				LineTotal: it.LineTotal,
			})
		}
	}

	return order
}

func PaymentToEntity(p Payment, refunds []Refund) entities.Payment {
	payment := entities.Payment{
		ID:           p.PaymentID,
		OrderID:      p.OrderID,
		UserID:       p.UserID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Method:       entities.PaymentMethod(p.Method),
		Gateway:      p.Gateway,
		Reference:    p.Reference,
		Status:       entities.PaymentStatus(p.Status),
		GatewayTxnID: nullStringToString(p.GatewayTxnID),
		LastErrCode:  nullStringToString(p.LastErrCode),
		LastErrMsg:   nullStringToString(p.LastErrMsg),
		CreatedAt:    p.CreatedAt,
		CompletedAt:  nullTimeToPtr(p.CompletedAt),
		FailedAt:     nullTimeToPtr(p.FailedAt),
	}

	if len(p.Metadata) > 0 {
		// metadata is written by us, a decode failure would mean a corrupt row
		_ = json.Unmarshal(p.Metadata, &payment.Metadata)
	}

	if len(refunds) > 0 {
		payment.Refunds = make([]entities.Refund, 0, len(refunds))
		for _, r := range refunds {
			payment.Refunds = append(payment.Refunds, entities.Refund{
				ID:        r.RefundID,
				Amount:    r.Amount,
				Reason:    r.Reason,
				ActorID:   r.ActorID,
				CreatedAt: r.CreatedAt,
			})
		}
	}

	return payment
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Semzy1/Log-In-page-main/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"order_id", "user_id", "subtotal", "tax", "shipping", "total", "currency",
	"payment_method", "status", "tracking_number", "cancel_reason", "notes",
	"created_at", "shipped_at", "delivered_at", "cancelled_at",
}

func (r *postgresRepo) SaveOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.UserID, o.Subtotal, o.Tax, o.Shipping, o.Total, o.Currency,
			string(o.PaymentMethod), string(o.Status),
			nullString(o.TrackingNumber), nullString(o.CancelReason), nullString(o.Notes),
			o.CreatedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	if err := r.saveAddresses(ctx, o); err != nil {
		return err
	}
	return r.saveItems(ctx, o.ID, o.Items)
}

func (r *postgresRepo) saveAddresses(ctx context.Context, o entities.Order) error {
	rows := []OrderAddress{
		addressToModel(o.ID, addressKindShipping, o.ShippingAddr),
		addressToModel(o.ID, addressKindBilling, o.BillingAddr),
	}

	q := r.qb.Insert("order_addresses").
		Columns("order_id", "kind", "full_name", "street", "city", "state", "zip", "country", "phone")
	for _, a := range rows {
		q = q.Values(a.OrderID, a.Kind, a.FullName, a.Street, a.City, a.State, a.ZIP, a.Country, a.Phone)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order addresses: %w", err)
	}
	return nil
}

func (r *postgresRepo) saveItems(ctx context.Context, orderID string, items []entities.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "title", "unit_price", "quantity", "line_total")
	for _, it := range items {
		q = q.Values(orderID, it.ProductID, it.Title, it.UnitPrice, it.Quantity, it.LineTotal)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select("order_id", "kind", "full_name", "street", "city", "state", "zip", "country", "phone").
		From("order_addresses").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var addresses []OrderAddress
	if err := r.selectContext(ctx, &addresses, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order addresses: %w", err)
	}

	query, args = r.qb.Select("order_id", "product_id", "title", "unit_price", "quantity", "line_total").
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("product_id").
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, addresses, items), nil
}

// CancelOrder flips the order to cancelled only while it is still pending or
// processing. Returns false when the order had already moved on; concurrent
// shipping and cancellation cannot both win.
func (r *postgresRepo) CancelOrder(ctx context.Context, orderID, reason string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(entities.OrderCancelled)).
		Set("cancel_reason", nullString(reason)).
		Set("cancelled_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		Where(sq.Eq{"status": []string{string(entities.OrderPending), string(entities.OrderProcessing)}}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}
	return affected > 0, nil
}

// MarkProcessing advances a pending order after payment completion. A zero
// row count means some other reconciliation path got there first, which is
// fine for webhook redelivery.
func (r *postgresRepo) MarkProcessing(ctx context.Context, orderID string) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(entities.OrderProcessing)).
		Where(sq.Eq{"order_id": orderID}).
		Where(sq.Eq{"status": string(entities.OrderPending)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to mark order processing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to mark order processing: %w", err)
	}
	return affected > 0, nil
}

// SetStatus performs an administrative transition guarded by the status the
// caller observed. Shipped/delivered timestamps are stamped only the first
// time those statuses are reached.
func (r *postgresRepo) SetStatus(ctx context.Context, orderID string, from, to entities.OrderStatus, trackingNumber, notes string) (bool, error) {
	q := r.qb.Update("orders").
		Set("status", string(to)).
		Where(sq.Eq{"order_id": orderID}).
		Where(sq.Eq{"status": string(from)})

	switch to {
	case entities.OrderShipped:
		q = q.Set("shipped_at", sq.Expr("COALESCE(shipped_at, now())"))
	case entities.OrderDelivered:
		q = q.Set("delivered_at", sq.Expr("COALESCE(delivered_at, now())"))
	case entities.OrderCancelled:
		q = q.Set("cancelled_at", sq.Expr("COALESCE(cancelled_at, now())"))
	}
	if trackingNumber != "" {
		q = q.Set("tracking_number", trackingNumber)
	}
	if notes != "" {
		q = q.Set("notes", notes)
	}

	query, args := q.MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to set order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to set order status: %w", err)
	}
	return affected > 0, nil
}

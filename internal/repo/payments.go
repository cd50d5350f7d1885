package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Semzy1/Log-In-page-main/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var paymentColumns = []string{
	"payment_id", "order_id", "user_id", "amount", "currency", "method",
	"gateway", "reference", "status", "gateway_txn_id", "metadata",
	"last_err_code", "last_err_msg", "created_at", "completed_at", "failed_at",
}

// CreatePayment inserts a new payment attempt. The payments_active_order_idx
// partial unique index rejects a second non-failed payment for the same
// order, turning the check-then-create race into ErrDuplicatePayment.
func (r *postgresRepo) CreatePayment(ctx context.Context, p entities.Payment) error {
	metadata, err := metadataJSON(p.Metadata)
	if err != nil {
		return err
	}

	query, args := r.qb.Insert("payments").
		Columns(paymentColumns...).
		Values(
			p.ID, p.OrderID, p.UserID, p.Amount, p.Currency, string(p.Method),
			p.Gateway, p.Reference, string(p.Status),
			nullString(p.GatewayTxnID), metadata,
			nullString(p.LastErrCode), nullString(p.LastErrMsg),
			p.CreatedAt, p.CompletedAt, p.FailedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *postgresRepo) UpdatePaymentReference(ctx context.Context, paymentID, reference string) error {
	query, args := r.qb.Update("payments").
		Set("reference", reference).
		Where(sq.Eq{"payment_id": paymentID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update payment reference: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetPaymentByID(ctx context.Context, paymentID string) (entities.Payment, error) {
	return r.getPayment(ctx, sq.Eq{"payment_id": paymentID}, false)
}

func (r *postgresRepo) GetPaymentByReference(ctx context.Context, gateway, reference string) (entities.Payment, error) {
	return r.getPayment(ctx, sq.Eq{"gateway": gateway, "reference": reference}, false)
}

// GetPaymentForUpdate locks the payment row for the rest of the surrounding
// transaction. Used by refunds so the cumulative-amount check cannot race.
func (r *postgresRepo) GetPaymentForUpdate(ctx context.Context, paymentID string) (entities.Payment, error) {
	return r.getPayment(ctx, sq.Eq{"payment_id": paymentID}, true)
}

func (r *postgresRepo) getPayment(ctx context.Context, pred sq.Eq, forUpdate bool) (entities.Payment, error) {
	q := r.qb.Select(paymentColumns...).
		From("payments").
		Where(pred)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	query, args := q.MustSql()

	var payment Payment
	err := r.getContext(ctx, &payment, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Payment{}, entities.ErrPaymentNotFound
	}
	if err != nil {
		return entities.Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}

	query, args = r.qb.Select("refund_id", "payment_id", "amount", "reason", "actor_id", "created_at").
		From("refunds").
		Where(sq.Eq{"payment_id": payment.PaymentID}).
		OrderBy("created_at").
		MustSql()

	var refunds []Refund
	if err := r.selectContext(ctx, &refunds, query, args...); err != nil {
		return entities.Payment{}, fmt.Errorf("failed to get refunds: %w", err)
	}

	return PaymentToEntity(payment, refunds), nil
}

// CompletePaymentIfPending is the single atomic step behind webhook and
// verification reconciliation: the still-pending check and the transition to
// completed happen in one statement, so duplicate deliveries complete the
// payment exactly once.
func (r *postgresRepo) CompletePaymentIfPending(ctx context.Context, paymentID, gatewayTxnID string, metadata map[string]string) (bool, error) {
	metadataRaw, err := metadataJSON(metadata)
	if err != nil {
		return false, err
	}

	query, args := r.qb.Update("payments").
		Set("status", string(entities.PaymentCompleted)).
		Set("gateway_txn_id", nullString(gatewayTxnID)).
		Set("metadata", metadataRaw).
		Set("completed_at", sq.Expr("now()")).
		Where(sq.Eq{"payment_id": paymentID}).
		Where(sq.Eq{"status": []string{string(entities.PaymentPending), string(entities.PaymentProcessing)}}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresRepo) FailPayment(ctx context.Context, paymentID, errCode, errMsg string) (bool, error) {
	query, args := r.qb.Update("payments").
		Set("status", string(entities.PaymentFailed)).
		Set("last_err_code", nullString(errCode)).
		Set("last_err_msg", nullString(errMsg)).
		Set("failed_at", sq.Expr("now()")).
		Where(sq.Eq{"payment_id": paymentID}).
		Where(sq.Eq{"status": []string{string(entities.PaymentPending), string(entities.PaymentProcessing)}}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to fail payment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to fail payment: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresRepo) AddRefund(ctx context.Context, paymentID string, refund entities.Refund, newStatus entities.PaymentStatus) error {
	query, args := r.qb.Insert("refunds").
		Columns("refund_id", "payment_id", "amount", "reason", "actor_id", "created_at").
		Values(refund.ID, paymentID, refund.Amount, refund.Reason, refund.ActorID, refund.CreatedAt).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save refund: %w", err)
	}

	query, args = r.qb.Update("payments").
		Set("status", string(newStatus)).
		Where(sq.Eq{"payment_id": paymentID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

func metadataJSON(metadata map[string]string) (json.RawMessage, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment metadata: %w", err)
	}
	return raw, nil
}

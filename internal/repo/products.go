package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Semzy1/Log-In-page-main/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

func (r *postgresRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(
		"product_id", "title", "price", "quantity", "track_quantity", "active").
		From("products").
		Where(sq.Eq{"product_id": productID}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ProductError(entities.ErrProductUnavailable, productID)
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	return ProductToEntity(product), nil
}

// DecrementStock conditionally takes qty units off a tracked product. The
// availability check and the write are a single statement, so two concurrent
// orders can never both pass validation and drive the quantity negative.
func (r *postgresRepo) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity - ?", qty)).
		Where(sq.Eq{"product_id": productID}).
		Where("track_quantity").
		Where(sq.GtOrEq{"quantity": qty}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresRepo) RestoreStock(ctx context.Context, productID string, qty int) error {
	query, args := r.qb.Update("products").
		Set("quantity", sq.Expr("quantity + ?", qty)).
		Where(sq.Eq{"product_id": productID}).
		Where("track_quantity").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/Semzy1/Log-In-page-main/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

func (r *postgresRepo) ReadCart(ctx context.Context, userID string) ([]entities.CartItem, error) {
	query, args := r.qb.Select("user_id", "product_id", "quantity").
		From("cart_items").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("product_id").
		MustSql()

	var rows []CartItem
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	items := make([]entities.CartItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.CartItem{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
		})
	}
	return items, nil
}

func (r *postgresRepo) ClearCart(ctx context.Context, userID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

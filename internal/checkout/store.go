package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dulcemimos/go-store-api/internal/catalog"
	"github.com/dulcemimos/go-store-api/internal/errs"
	"github.com/dulcemimos/go-store-api/internal/orders"
)

// Store runs checkout work inside a single database transaction. fn returning
// an error rolls everything back; nil commits.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the slice of transactional operations the engine needs.
type Tx interface {
	// ProductForUpdate takes an exclusive row lock so concurrent checkouts
	// for the same product serialize on stock.
	ProductForUpdate(ctx context.Context, productID string) (catalog.Product, error)
	UpdateStock(ctx context.Context, productID string, stock int) error
	InsertOrder(ctx context.Context, o *orders.Order) error
	InsertLine(ctx context.Context, l *orders.Line) error
	SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error
}

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) ProductForUpdate(ctx context.Context, productID string) (catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, brand, model, price, stock, created_at, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.Brand, &p.Model, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}
	return p, err
}

func (t *pgTx) UpdateStock(ctx context.Context, productID string, stock int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE products SET stock=$2, updated_at=now() WHERE id=$1`, productID, stock)
	return err
}

func (t *pgTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_name, customer_email, customer_address, customer_phone, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		o.ID, o.Customer.Name, o.Customer.Email, o.Customer.Address, o.Customer.Phone,
		o.Total, o.Status).Scan(&o.CreatedAt, &o.UpdatedAt)
}

func (t *pgTx) InsertLine(ctx context.Context, l *orders.Line) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, qty, unit_price)
		VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.OrderID, l.ProductID, l.Qty, l.UnitPrice)
	return err
}

func (t *pgTx) SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE orders SET total=$2, updated_at=now() WHERE id=$1`, orderID, total)
	return err
}

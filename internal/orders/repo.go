package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dulcemimos/go-store-api/internal/catalog"
	"github.com/dulcemimos/go-store-api/internal/errs"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, customer_name, customer_email, customer_address, customer_phone,
	total, status, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Address,
		&o.Customer.Phone, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
}

func (r *Repo) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	ids := []string{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Order{}, err
	}

	lines, err := r.loadLines(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// UpdateStatus mutates the status field only; everything else about an order
// is immutable after checkout.
func (r *Repo) UpdateStatus(ctx context.Context, id string, st Status) (Order, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, st)
	if err != nil {
		return Order{}, err
	}
	if ct.RowsAffected() == 0 {
		return Order{}, fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// loadLines fetches line items for a set of orders with the catalog row
// LEFT-joined: a deleted product leaves the captured qty/price intact and the
// joined product null.
func (r *Repo) loadLines(ctx context.Context, orderIDs []string) (map[string][]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT l.id, l.order_id, l.product_id, l.qty, l.unit_price,
		       p.id, p.brand, p.model, p.price, p.stock, p.created_at, p.updated_at
		FROM order_items l
		LEFT JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Line, len(orderIDs))
	for rows.Next() {
		var (
			l        Line
			pid      *string
			pbrand   *string
			pmodel   *string
			pprice   decimal.NullDecimal
			pstock   *int
			pcreated *time.Time
			pupdated *time.Time
		)
		err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Qty, &l.UnitPrice,
			&pid, &pbrand, &pmodel, &pprice, &pstock, &pcreated, &pupdated)
		if err != nil {
			return nil, err
		}
		if pid != nil {
			l.Product = &catalog.Product{
				ID:        *pid,
				Brand:     *pbrand,
				Model:     *pmodel,
				Price:     pprice.Decimal,
				Stock:     *pstock,
				CreatedAt: *pcreated,
				UpdatedAt: *pupdated,
			}
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dulcemimos/go-store-api/internal/errs"
)

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, brand, model, price, stock, created_at, updated_at`

func (r *Repo) Create(ctx context.Context, p *Product) error {
	p.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products (id, brand, model, price, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.Brand, p.Model, p.Price, p.Stock)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productCols+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Brand, &p.Model, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Brand, &p.Model, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %s: %w", id, errs.ErrNotFound)
	}
	return p, err
}

// Update applies a partial update under the same FOR UPDATE row lock the
// checkout path takes, so direct stock edits serialize with concurrent
// checkouts instead of racing them.
func (r *Repo) Update(ctx context.Context, id string, u Update) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback(ctx)

	var p Product
	err = tx.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.Brand, &p.Model, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("product %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Product{}, err
	}

	if u.Brand != nil {
		p.Brand = *u.Brand
	}
	if u.Model != nil {
		p.Model = *u.Model
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}

	err = tx.QueryRow(ctx, `
		UPDATE products SET brand=$2, model=$3, price=$4, stock=$5, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		p.ID, p.Brand, p.Model, p.Price, p.Stock).Scan(&p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, tx.Commit(ctx)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

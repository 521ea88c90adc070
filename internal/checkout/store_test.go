package checkout

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/catalog"
	"github.com/dulcemimos/go-store-api/internal/errs"
	"github.com/dulcemimos/go-store-api/internal/orders"
	"github.com/dulcemimos/go-store-api/internal/postgres"
)

// Needs a live database: set TEST_POSTGRES_DSN to run.
func TestPGStore_ConcurrentCheckoutsSerializeOnStock(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, postgres.Migrate(ctx, db))

	p := catalog.Product{ID: uuid.NewString(), Brand: "Acme", Model: "X1",
		Price: dec("100.00"), Stock: 5}
	_, err = db.Exec(ctx, `INSERT INTO products (id, brand, model, price, stock)
		VALUES ($1, $2, $3, $4, $5)`, p.ID, p.Brand, p.Model, p.Price, p.Stock)
	require.NoError(t, err)
	defer func() {
		_, _ = db.Exec(ctx, `DELETE FROM orders
			WHERE id IN (SELECT order_id FROM order_items WHERE product_id=$1)`, p.ID)
		_, _ = db.Exec(ctx, `DELETE FROM products WHERE id=$1`, p.ID)
	}()

	svc := &Service{
		Store:      &PGStore{DB: db},
		Gateway:    &fakeGateway{},
		Log:        zap.NewNop(),
		Currency:   "UYU",
		Descriptor: "DULCE MIMOS",
		BaseURL:    "http://localhost:3000",
	}

	// combined demand 6 > stock 5: the row lock must let exactly one through
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Checkout(ctx, orders.Customer{Name: "Ana"},
				[]Item{{ProductID: p.ID, Quantity: 3}})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range results {
		if err == nil {
			won++
			continue
		}
		assert.True(t, errs.IsInsufficientStock(err), "loser fails on stock, got %v", err)
		lost++
	}
	assert.Equal(t, 1, won, "exactly one checkout wins")
	assert.Equal(t, 1, lost)

	var stock int
	require.NoError(t, db.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1`, p.ID).Scan(&stock))
	assert.Equal(t, 2, stock, "stock decremented once")
}

package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/catalog"
	"github.com/dulcemimos/go-store-api/internal/errs"
	"github.com/dulcemimos/go-store-api/internal/mercadopago"
	"github.com/dulcemimos/go-store-api/internal/orders"
)

// fakeStore emulates transactional semantics in memory: tx work happens on a
// copy and is applied only when fn returns nil.
type fakeStore struct {
	products map[string]catalog.Product
	orders   map[string]*orders.Order
	txOpened int
}

func newFakeStore(ps ...catalog.Product) *fakeStore {
	s := &fakeStore{
		products: map[string]catalog.Product{},
		orders:   map[string]*orders.Order{},
	}
	for _, p := range ps {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txOpened++
	tx := &fakeTx{
		products: map[string]catalog.Product{},
		orders:   map[string]*orders.Order{},
	}
	for id, p := range s.products {
		tx.products[id] = p
	}
	if err := fn(tx); err != nil {
		return err // rollback: nothing applied
	}
	s.products = tx.products
	for id, o := range tx.orders {
		s.orders[id] = o
	}
	return nil
}

type fakeTx struct {
	products map[string]catalog.Product
	orders   map[string]*orders.Order
}

func (t *fakeTx) ProductForUpdate(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return catalog.Product{}, errs.ErrNotFound
	}
	return p, nil
}

func (t *fakeTx) UpdateStock(ctx context.Context, id string, stock int) error {
	p := t.products[id]
	p.Stock = stock
	t.products[id] = p
	return nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	cp := *o
	t.orders[o.ID] = &cp
	return nil
}

func (t *fakeTx) InsertLine(ctx context.Context, l *orders.Line) error {
	o := t.orders[l.OrderID]
	o.Lines = append(o.Lines, *l)
	return nil
}

func (t *fakeTx) SetOrderTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	t.orders[orderID].Total = total
	return nil
}

type fakeGateway struct {
	got   mercadopago.PreferenceRequest
	resp  mercadopago.Preference
	err   error
	calls int
}

func (g *fakeGateway) CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (mercadopago.Preference, error) {
	g.calls++
	g.got = req
	return g.resp, g.err
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newService(store Store, gw Gateway) *Service {
	return &Service{
		Store:      store,
		Gateway:    gw,
		Log:        zap.NewNop(),
		Currency:   "UYU",
		Descriptor: "DULCE MIMOS",
		BaseURL:    "http://localhost:3000",
	}
}

func acmeX1(stock int) catalog.Product {
	return catalog.Product{ID: "11111111-1111-1111-1111-111111111111",
		Brand: "Acme", Model: "X1", Price: dec("100.00"), Stock: stock}
}

func TestCheckout_Success(t *testing.T) {
	store := newFakeStore(acmeX1(5))
	gw := &fakeGateway{resp: mercadopago.Preference{ID: "pref-1", InitPoint: "https://mp.example/init"}}
	svc := newService(store, gw)

	cust := orders.Customer{Name: "Ana", Email: "ana@example.com", Phone: "099111222"}
	res, err := svc.Checkout(context.Background(), cust, []Item{{ProductID: acmeX1(0).ID, Quantity: 5}})
	require.NoError(t, err)

	assert.True(t, res.Total.Equal(dec("500.00")), "total = %s", res.Total)
	assert.Equal(t, "https://mp.example/init", res.RedirectURL)
	assert.Equal(t, 0, store.products[acmeX1(0).ID].Stock)

	o := store.orders[res.OrderID]
	require.NotNil(t, o)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(dec("500.00")))
	require.Len(t, o.Lines, 1)
	assert.Equal(t, 5, o.Lines[0].Qty)
	assert.True(t, o.Lines[0].UnitPrice.Equal(dec("100.00")), "captured unit price")

	// gateway gets the surcharged quote, not the stored sale price
	require.Len(t, gw.got.Items, 1)
	assert.Equal(t, "Acme X1", gw.got.Items[0].Title)
	assert.Equal(t, 5, gw.got.Items[0].Quantity)
	assert.Equal(t, "UYU", gw.got.Items[0].CurrencyID)
	assert.InDelta(t, 110.00, gw.got.Items[0].UnitPrice, 1e-9)
	assert.Equal(t, res.OrderID, gw.got.ExternalReference)
	assert.Equal(t, "DULCE MIMOS", gw.got.StatementDescriptor)
	assert.Equal(t, "http://localhost:3000/success", gw.got.BackURLs.Success)
	assert.Equal(t, "http://localhost:3000/failure", gw.got.BackURLs.Failure)
	assert.Equal(t, "http://localhost:3000/pending", gw.got.BackURLs.Pending)
	assert.Equal(t, "Ana", gw.got.Payer.Name)
	require.NotNil(t, gw.got.Payer.Phone)
	assert.Equal(t, "099111222", gw.got.Payer.Phone.Number)
}

func TestCheckout_MultiItemTotal(t *testing.T) {
	p1 := catalog.Product{ID: "11111111-1111-1111-1111-111111111111",
		Brand: "Acme", Model: "X1", Price: dec("100.00"), Stock: 5}
	p2 := catalog.Product{ID: "22222222-2222-2222-2222-222222222222",
		Brand: "Bolt", Model: "Z9", Price: dec("249.90"), Stock: 2}
	store := newFakeStore(p1, p2)
	gw := &fakeGateway{}
	svc := newService(store, gw)

	res, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: p1.ID, Quantity: 2}, {ProductID: p2.ID, Quantity: 1}})
	require.NoError(t, err)

	assert.True(t, res.Total.Equal(dec("449.90")), "total = %s", res.Total)
	assert.Equal(t, 3, store.products[p1.ID].Stock)
	assert.Equal(t, 1, store.products[p2.ID].Stock)
	require.Len(t, store.orders[res.OrderID].Lines, 2)
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	store := newFakeStore(acmeX1(0))
	gw := &fakeGateway{}
	svc := newService(store, gw)

	_, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: acmeX1(0).ID, Quantity: 1}})
	require.Error(t, err)
	assert.True(t, errs.IsInsufficientStock(err))

	var se *errs.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Requested)
	assert.Equal(t, 0, se.Available)

	assert.Empty(t, store.orders, "no order persists")
	assert.Equal(t, 0, store.products[acmeX1(0).ID].Stock)
	assert.Equal(t, 0, gw.calls, "gateway never called on rollback")
}

func TestCheckout_SecondItemShortageDiscardsWholeTx(t *testing.T) {
	p1 := catalog.Product{ID: "11111111-1111-1111-1111-111111111111",
		Brand: "Acme", Model: "X1", Price: dec("100.00"), Stock: 5}
	p2 := catalog.Product{ID: "22222222-2222-2222-2222-222222222222",
		Brand: "Bolt", Model: "Z9", Price: dec("50.00"), Stock: 1}
	store := newFakeStore(p1, p2)
	svc := newService(store, &fakeGateway{})

	_, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: p1.ID, Quantity: 2}, {ProductID: p2.ID, Quantity: 3}})
	require.Error(t, err)
	assert.True(t, errs.IsInsufficientStock(err))

	// first item's decrement must be rolled back with everything else
	assert.Equal(t, 5, store.products[p1.ID].Stock)
	assert.Equal(t, 1, store.products[p2.ID].Stock)
	assert.Empty(t, store.orders)
}

func TestCheckout_UnknownProduct(t *testing.T) {
	store := newFakeStore(acmeX1(5))
	svc := newService(store, &fakeGateway{})

	_, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: "99999999-9999-9999-9999-999999999999", Quantity: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.Empty(t, store.orders)
}

func TestCheckout_ValidationShortCircuits(t *testing.T) {
	store := newFakeStore(acmeX1(5))
	gw := &fakeGateway{}
	svc := newService(store, gw)

	cases := []struct {
		name  string
		cust  orders.Customer
		items []Item
	}{
		{"missing name", orders.Customer{}, []Item{{ProductID: acmeX1(0).ID, Quantity: 1}}},
		{"blank name", orders.Customer{Name: "   "}, []Item{{ProductID: acmeX1(0).ID, Quantity: 1}}},
		{"empty items", orders.Customer{Name: "Ana"}, nil},
		{"zero quantity", orders.Customer{Name: "Ana"}, []Item{{ProductID: acmeX1(0).ID, Quantity: 0}}},
		{"negative quantity", orders.Customer{Name: "Ana"}, []Item{{ProductID: acmeX1(0).ID, Quantity: -2}}},
		{"missing product id", orders.Customer{Name: "Ana"}, []Item{{Quantity: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Checkout(context.Background(), tc.cust, tc.items)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
		})
	}
	assert.Equal(t, 0, store.txOpened, "no transaction opened on validation failure")
	assert.Equal(t, 0, gw.calls)
}

func TestCheckout_GatewayFailureKeepsOrder(t *testing.T) {
	store := newFakeStore(acmeX1(5))
	gw := &fakeGateway{err: &errs.GatewayError{Err: errors.New("timeout")}}
	svc := newService(store, gw)

	res, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: acmeX1(0).ID, Quantity: 2}})
	require.NoError(t, err, "gateway failure never fails the checkout")

	assert.Empty(t, res.RedirectURL)
	assert.True(t, res.Total.Equal(dec("200.00")))
	require.NotNil(t, store.orders[res.OrderID], "order stays committed")
	assert.Equal(t, 3, store.products[acmeX1(0).ID].Stock)
	assert.Equal(t, 1, gw.calls, "single attempt, no retries")
}

func TestCheckout_CapturedPriceSurvivesCatalogChange(t *testing.T) {
	store := newFakeStore(acmeX1(5))
	svc := newService(store, &fakeGateway{})

	res, err := svc.Checkout(context.Background(), orders.Customer{Name: "Ana"},
		[]Item{{ProductID: acmeX1(0).ID, Quantity: 1}})
	require.NoError(t, err)

	// later catalog price change must not touch the stored order
	p := store.products[acmeX1(0).ID]
	p.Price = dec("999.99")
	store.products[p.ID] = p

	o := store.orders[res.OrderID]
	assert.True(t, o.Total.Equal(dec("100.00")))
	assert.True(t, o.Lines[0].UnitPrice.Equal(dec("100.00")))
}

func TestQuotePrice(t *testing.T) {
	cases := []struct{ in, want string }{
		{"100.00", "110"},
		{"0.99", "1.09"},    // 1.089 rounds up
		{"10.05", "11.06"},  // 11.055 rounds half-up
		{"33.33", "36.66"},  // 36.663 rounds down
		{"249.90", "274.89"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got := QuotePrice(dec(tc.in))
		assert.True(t, got.Equal(dec(tc.want)), "QuotePrice(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

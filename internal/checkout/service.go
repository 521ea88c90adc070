package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/errs"
	"github.com/dulcemimos/go-store-api/internal/mercadopago"
	"github.com/dulcemimos/go-store-api/internal/orders"
)

// Gateway creates a hosted-payment preference for a committed order.
type Gateway interface {
	CreatePreference(ctx context.Context, pref mercadopago.PreferenceRequest) (mercadopago.Preference, error)
}

// Item is one requested checkout line.
type Item struct {
	ProductID string
	Quantity  int
}

type Result struct {
	OrderID string
	Total   decimal.Decimal
	// RedirectURL is empty when the gateway call failed; the order stands
	// regardless.
	RedirectURL string
}

// Service orchestrates the checkout transaction: lock stock, decrement,
// persist order + lines with captured unit prices, then (after commit) ask
// the payment gateway for a redirect URL.
type Service struct {
	Store   Store
	Gateway Gateway
	Log     *zap.Logger

	Currency   string
	Descriptor string
	BaseURL    string // public base for the success/failure/pending back URLs
}

var surchargeRate = decimal.NewFromFloat(1.10)

// QuotePrice is the unit price quoted to the payment provider: catalog price
// plus the fixed 10% surcharge, rounded half-up to 2 decimals. The stored
// sale price is never inflated.
func QuotePrice(unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(surchargeRate).Round(2)
}

func (s *Service) Checkout(ctx context.Context, cust orders.Customer, items []Item) (Result, error) {
	if strings.TrimSpace(cust.Name) == "" {
		return Result{}, errs.Validation("customer name is required")
	}
	if len(items) == 0 {
		return Result{}, errs.Validation("at least one item is required")
	}
	for _, it := range items {
		if it.ProductID == "" {
			return Result{}, errs.Validation("item product id is required")
		}
		if it.Quantity <= 0 {
			return Result{}, errs.Validation("quantity for product %s must be a positive integer", it.ProductID)
		}
	}

	var (
		order   orders.Order
		gwItems []mercadopago.Item
		total   = decimal.Zero
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		// Order row first so line items can reference it; total is settled
		// after the lines are written.
		order = orders.Order{
			ID:       uuid.NewString(),
			Customer: cust,
			Total:    decimal.Zero,
			Status:   orders.StatusPending,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}

		for _, it := range items {
			p, err := tx.ProductForUpdate(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p.Stock < it.Quantity {
				return &errs.InsufficientStockError{
					ProductID: p.ID,
					Requested: it.Quantity,
					Available: p.Stock,
				}
			}
			if err := tx.UpdateStock(ctx, p.ID, p.Stock-it.Quantity); err != nil {
				return err
			}

			line := orders.Line{
				ID:        uuid.NewString(),
				OrderID:   order.ID,
				ProductID: p.ID,
				Qty:       it.Quantity,
				UnitPrice: p.Price,
			}
			if err := tx.InsertLine(ctx, &line); err != nil {
				return err
			}
			order.Lines = append(order.Lines, line)
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))

			gwItems = append(gwItems, mercadopago.Item{
				Title:      p.Brand + " " + p.Model,
				Quantity:   it.Quantity,
				CurrencyID: s.Currency,
				UnitPrice:  QuotePrice(p.Price).InexactFloat64(),
			})
		}

		return tx.SetOrderTotal(ctx, order.ID, total)
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{OrderID: order.ID, Total: total}

	// Strictly after commit, outside any lock. A failed or slow gateway call
	// never undoes the sale: the order stays Pending with no redirect URL.
	pref, err := s.Gateway.CreatePreference(ctx, s.preference(cust, gwItems, order.ID))
	if err != nil {
		s.Log.Warn("payment preference failed",
			zap.String("order_id", order.ID), zap.Error(err))
		return res, nil
	}
	res.RedirectURL = pref.InitPoint
	return res, nil
}

func (s *Service) preference(cust orders.Customer, items []mercadopago.Item, orderID string) mercadopago.PreferenceRequest {
	payer := mercadopago.Payer{Name: cust.Name, Email: cust.Email}
	if cust.Phone != "" {
		payer.Phone = &mercadopago.Phone{Number: cust.Phone}
	}
	return mercadopago.PreferenceRequest{
		Items: items,
		Payer: payer,
		BackURLs: mercadopago.BackURLs{
			Success: s.BaseURL + "/success",
			Failure: s.BaseURL + "/failure",
			Pending: s.BaseURL + "/pending",
		},
		ExternalReference:   orderID,
		StatementDescriptor: s.Descriptor,
	}
}

package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dulcemimos/go-store-api/internal/catalog"
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type Order struct {
	ID        string          `json:"id"`
	Customer  Customer        `json:"customer"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Lines     []Line          `json:"items"`
}

// Line is immutable once written: unit price is the catalog price captured at
// purchase time, never recomputed from the live catalog.
type Line struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"-"`
	ProductID string          `json:"productId"`
	Qty       int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`

	// Product is the joined catalog row; nil when the product was deleted
	// after the sale.
	Product *catalog.Product `json:"product"`
}

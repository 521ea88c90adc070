package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Update carries the optional fields of a partial catalog update. Nil means
// "leave as is".
type Update struct {
	Brand *string
	Model *string
	Price *decimal.Decimal
	Stock *int
}

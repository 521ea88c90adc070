package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dulcemimos/go-store-api/internal/errs"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Client wraps the hosted-checkout "create preference" call. The provider is
// treated as opaque: one attempt per checkout, bounded by the HTTP timeout.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func New(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ---- preference request/response shapes ----

type Item struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type Phone struct {
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone *Phone `json:"phone,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items               []Item   `json:"items"`
	Payer               Payer    `json:"payer"`
	BackURLs            BackURLs `json:"back_urls"`
	ExternalReference   string   `json:"external_reference"`
	StatementDescriptor string   `json:"statement_descriptor,omitempty"`
}

type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference registers what the customer is being asked to pay and
// returns the redirect URL (init_point). Failures come back as *errs.GatewayError.
func (c *Client) CreatePreference(ctx context.Context, pref PreferenceRequest) (Preference, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return Preference{}, &errs.GatewayError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return Preference{}, &errs.GatewayError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Preference{}, &errs.GatewayError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Preference{}, &errs.GatewayError{Err: fmt.Errorf("create preference: status %d", resp.StatusCode)}
	}

	var out Preference
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Preference{}, &errs.GatewayError{Err: err}
	}
	return out, nil
}

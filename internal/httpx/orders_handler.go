package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/checkout"
	"github.com/dulcemimos/go-store-api/internal/errs"
	kafkax "github.com/dulcemimos/go-store-api/internal/kafka"
	"github.com/dulcemimos/go-store-api/internal/orders"
	"github.com/dulcemimos/go-store-api/internal/redisx"
)

// OrderStore is the read/update slice of the orders repo.
type OrderStore interface {
	List(ctx context.Context) ([]orders.Order, error)
	Get(ctx context.Context, id string) (orders.Order, error)
	UpdateStatus(ctx context.Context, id string, st orders.Status) (orders.Order, error)
}

// CheckoutRunner is the checkout engine as the handler sees it.
type CheckoutRunner interface {
	Checkout(ctx context.Context, cust orders.Customer, items []checkout.Item) (checkout.Result, error)
}

// Publisher matches the async kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Repo     OrderStore
	Checkout CheckoutRunner
	Producer Publisher     // optional
	Redis    *redis.Client // optional
	Service  string
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateOrder)
	})
}

type createOrderReq struct {
	CustomerInfo orders.Customer `json:"customerInfo"`
	Items        []struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

type createOrderResp struct {
	Message     string          `json:"message"`
	OrderID     string          `json:"orderId"`
	Total       decimal.Decimal `json:"total"`
	RedirectURL *string         `json:"redirectUrl"` // null when the gateway gave no link
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]checkout.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, checkout.Item{ProductID: it.ID, Quantity: it.Quantity})
	}

	res, err := h.Checkout.Checkout(r.Context(), req.CustomerInfo, items)
	if err != nil {
		// an unknown product id inside a checkout is a business-rule failure
		// of this request, not a missing resource
		if errors.Is(err, errs.ErrNotFound) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, h.Log, err)
		return
	}

	h.publishOrderCreated(r, req, res)

	resp := createOrderResp{Message: "order placed", OrderID: res.OrderID, Total: res.Total}
	if res.RedirectURL != "" {
		resp.RedirectURL = &res.RedirectURL
	}
	writeJSON(w, http.StatusCreated, resp)
}

// publishOrderCreated emits the post-commit event. Best effort only: readers
// warm caches from it, checkout state never depends on it.
func (h *OrdersHandler) publishOrderCreated(r *http.Request, req createOrderReq, res checkout.Result) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.ItemQty, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.ItemQty{ProductID: it.ID, Qty: it.Quantity})
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.Service,
		TraceID:      middleware.GetReqID(r.Context()),
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:      res.OrderID,
			CustomerName: req.CustomerInfo.Name,
			Status:       orders.StatusPending,
			Total:        res.Total.StringFixed(2),
			Items:        items,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(res.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	os, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "order list", "data": os})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// cache first, DB is the source of truth
	key := fmt.Sprintf(redisx.KeyOrderDetail, id)
	if h.Redis != nil {
		if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "order found", "data": json.RawMessage(s),
			})
			return
		}
	}

	o, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if h.Redis != nil {
		if b, err := json.Marshal(o); err == nil {
			_ = h.Redis.Set(r.Context(), key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "order found", "data": o})
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Status.Valid() {
		writeMessage(w, http.StatusBadRequest, "invalid status")
		return
	}

	o, err := h.Repo.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderDetail, id)
		if b, err := json.Marshal(o); err == nil {
			_ = h.Redis.Set(r.Context(), key, b, redisx.TTLOrderCache).Err()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "order updated", "data": o})
}

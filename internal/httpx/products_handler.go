package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dulcemimos/go-store-api/internal/catalog"
)

// CatalogStore is the slice of the catalog repo the handlers need.
type CatalogStore interface {
	Create(ctx context.Context, p *catalog.Product) error
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Update(ctx context.Context, id string, u catalog.Update) (catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Repo CatalogStore
	Log  *zap.Logger
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type productReq struct {
	Brand *string          `json:"brand"`
	Model *string          `json:"model"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Brand == nil || *req.Brand == "" || req.Model == nil || *req.Model == "" ||
		req.Price == nil || req.Stock == nil {
		writeMessage(w, http.StatusBadRequest, "brand, model, price and stock are required")
		return
	}
	if req.Price.IsNegative() || *req.Stock < 0 {
		writeMessage(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	p := catalog.Product{Brand: *req.Brand, Model: *req.Model, Price: *req.Price, Stock: *req.Stock}
	if err := h.Repo.Create(r.Context(), &p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "product created", "data": p})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Repo.List(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "product list", "data": ps})
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "product found", "data": p})
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		writeMessage(w, http.StatusBadRequest, "price must be non-negative")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeMessage(w, http.StatusBadRequest, "stock must be non-negative")
		return
	}

	p, err := h.Repo.Update(r.Context(), id, catalog.Update{
		Brand: req.Brand, Model: req.Model, Price: req.Price, Stock: req.Stock,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "product updated", "data": p})
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "product deleted", "data": p})
}

// pathID validates the {id} segment; a malformed id can never match a row.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return "", false
	}
	return id, true
}

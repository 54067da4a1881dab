package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-harga/internal/common"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

// PriceInfo is the wire representation of one price history entry.
type PriceInfo struct {
	Amount   common.Amount   `json:"amount" validate:"required"`
	FromDate common.WireTime `json:"fromDate" validate:"required"`
}

// ProductInfo is the wire representation of a product with its price history.
type ProductInfo struct {
	Name   string      `json:"name" validate:"required,min=1,max=255"`
	Prices []PriceInfo `json:"prices" validate:"omitempty,dive"`
}

// PriceUpdateInfo carries a price update submission.
type PriceUpdateInfo struct {
	ProductName string    `json:"productName" validate:"required,min=1,max=255"`
	Price       PriceInfo `json:"price" validate:"required"`
}

// Handler exposes product and price endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, validate *validator.Validate) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	return &Handler{Service: service, Validate: validate}
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	infos := make([]ProductInfo, 0, len(products))
	for _, p := range products {
		infos = append(infos, toProductInfo(p))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": infos})
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload ProductInfo
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	entries := make([]timeline.Entry, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		entries = append(entries, timeline.Entry{Amount: p.Amount.Decimal, EffectiveFrom: p.FromDate.UTC()})
	}
	product, err := h.Service.Create(r.Context(), payload.Name, entries)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toProductInfo(product)})
}

// Get handles GET /api/v1/products/{name}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	product, err := h.Service.GetByName(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toProductInfo(product)})
}

// CurrentPrice handles GET /api/v1/products/{name}/price.
func (h *Handler) CurrentPrice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	entry, err := h.Service.CurrentPrice(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toPriceInfo(entry)})
}

// UpdatePrice handles PUT /api/v1/products/price.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var payload PriceUpdateInfo
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	entry := timeline.Entry{Amount: payload.Price.Amount.Decimal, EffectiveFrom: payload.Price.FromDate.UTC()}
	product, err := h.Service.UpdateCurrentPrice(r.Context(), payload.ProductName, entry)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toProductInfo(product)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductExists):
		common.JSONError(w, http.StatusConflict, "PRODUCT_EXISTS", "product with this name already exists")
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found")
	case errors.Is(err, ErrNonMonotonicPrice):
		common.JSONError(w, http.StatusBadRequest, "NON_MONOTONIC_PRICE", "price effective date must be after the latest recorded price")
	case errors.Is(err, timeline.ErrEmptyTimeline):
		common.JSONError(w, http.StatusNotFound, "NO_CURRENT_PRICE", "product has no recorded prices")
	default:
		common.RenderError(w, err)
	}
}

func toProductInfo(p Product) ProductInfo {
	entries := p.Prices.Entries()
	prices := make([]PriceInfo, 0, len(entries))
	for _, e := range entries {
		prices = append(prices, toPriceInfo(e))
	}
	return ProductInfo{Name: p.Name, Prices: prices}
}

func toPriceInfo(e timeline.Entry) PriceInfo {
	return PriceInfo{Amount: common.NewAmount(e.Amount), FromDate: common.NewWireTime(e.EffectiveFrom)}
}

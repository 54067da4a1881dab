package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-harga/internal/catalog"
	"github.com/noah-isme/backend-harga/internal/common"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

// NewOrderLineInfo is one requested position in an order submission.
type NewOrderLineInfo struct {
	ProductName string `json:"productName" validate:"required,min=1,max=255"`
	Quantity    int64  `json:"quantity" validate:"required,gt=0"`
}

// NewOrderInfo is the order submission payload.
type NewOrderInfo struct {
	Email           string             `json:"email" validate:"required,email"`
	ProductsToOrder []NewOrderLineInfo `json:"productsToOrder" validate:"required,min=1,dive"`
}

// OrderLineInfo is the wire representation of one priced order line.
type OrderLineInfo struct {
	ProductName string            `json:"productName"`
	Price       catalog.PriceInfo `json:"price"`
	Quantity    int64             `json:"quantity"`
}

// OrderInfo is the wire representation of an order with its total. The order
// date serialises in common.TimeParamLayout so it can be fed back into the
// revaluation path unchanged.
type OrderInfo struct {
	Email     string          `json:"email"`
	OrderDate common.WireTime `json:"orderDate"`
	Products  []OrderLineInfo `json:"products"`
	OrderSum  common.Amount   `json:"orderSum"`
}

// Handler exposes order endpoints.
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

// List handles GET /api/v1/orders with optional fromDate and toDate filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if v := r.URL.Query().Get("fromDate"); v != "" {
		parsed, err := common.ParseTimeParam(v)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "fromDate must match "+common.TimeParamLayout)
			return
		}
		from = &parsed
	}
	if v := r.URL.Query().Get("toDate"); v != "" {
		parsed, err := common.ParseTimeParam(v)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "toDate must match "+common.TimeParamLayout)
			return
		}
		to = &parsed
	}
	if from != nil && to != nil && to.Before(*from) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "toDate must not be before fromDate")
		return
	}

	orders, err := h.Service.List(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}
	infos := make([]OrderInfo, 0, len(orders))
	for _, o := range orders {
		infos = append(infos, toOrderInfo(o, Total(o.Lines)))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": infos})
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload NewOrderInfo
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}
	requested := make([]RequestedLine, 0, len(payload.ProductsToOrder))
	for _, line := range payload.ProductsToOrder {
		requested = append(requested, RequestedLine{ProductName: line.ProductName, Quantity: line.Quantity})
	}

	o, err := h.Service.Create(r.Context(), payload.Email, requested)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			common.JSONError(w, http.StatusBadRequest, "UNKNOWN_PRODUCT", "order references an unknown product")
		case errors.Is(err, timeline.ErrNoPriceBefore):
			common.JSONError(w, http.StatusBadRequest, "NO_PRICE", "a product has no price effective at placement time")
		default:
			h.writeError(w, err)
		}
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toOrderInfo(o, Total(o.Lines))})
}

// Revalue handles GET /api/v1/orders/{email}/{orderDate}/placed/{date}: what
// the order identified by email and order date would have cost if placed at
// the given date instead.
func (h *Handler) Revalue(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	orderDate, err := common.ParseTimeParam(chi.URLParam(r, "orderDate"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "orderDate must match "+common.TimeParamLayout)
		return
	}
	at, err := common.ParseTimeParam(chi.URLParam(r, "date"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "date must match "+common.TimeParamLayout)
		return
	}

	o, total, err := h.Service.Revalue(r.Context(), email, orderDate, at)
	if err != nil {
		switch {
		case errors.Is(err, timeline.ErrNoPriceBefore), errors.Is(err, catalog.ErrProductNotFound):
			common.JSONError(w, http.StatusNotFound, "NO_PRICE", "a product has no price effective at the requested date")
		default:
			h.writeError(w, err)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toOrderInfo(o, total)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrOrderExists):
		common.JSONError(w, http.StatusConflict, "ORDER_EXISTS", "order for this email and date already exists")
	case errors.Is(err, ErrOrderNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
	default:
		common.RenderError(w, err)
	}
}

func toOrderInfo(o Order, total decimal.Decimal) OrderInfo {
	products := make([]OrderLineInfo, 0, len(o.Lines))
	for _, line := range o.Lines {
		products = append(products, OrderLineInfo{
			ProductName: line.ProductName,
			Price: catalog.PriceInfo{
				Amount:   common.NewAmount(line.Price.Amount),
				FromDate: common.NewWireTime(line.Price.EffectiveFrom),
			},
			Quantity: line.Quantity,
		})
	}
	return OrderInfo{
		Email:     o.Email,
		OrderDate: common.NewWireTime(o.OrderDate),
		Products:  products,
		OrderSum:  common.NewAmount(total),
	}
}

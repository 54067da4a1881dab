package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-harga/internal/catalog"
	"github.com/noah-isme/backend-harga/internal/timeline"
)

type productResponse struct {
	Data catalog.ProductInfo `json:"data"`
}

type priceResponse struct {
	Data catalog.PriceInfo `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestProductHandlers(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	handler := catalog.NewHandler(svc, nil)

	t.Run("create product with history", func(t *testing.T) {
		body := `{"name":"Product 1","prices":[
			{"amount":"100.50","fromDate":"1999-01-01T10:30:00Z"},
			{"amount":"200.50","fromDate":"1989-01-01T10:30:00Z"}
		]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Product 1", resp.Data.Name)
		require.Len(t, resp.Data.Prices, 2)
		// History comes back ordered by effective date.
		require.Equal(t, 1989, resp.Data.Prices[0].FromDate.Year())
		require.Equal(t, 1999, resp.Data.Prices[1].FromDate.Year())
	})

	t.Run("create duplicate name conflicts", func(t *testing.T) {
		body := `{"name":"Product 1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PRODUCT_EXISTS", resp.Error.Code)
	})

	t.Run("create rejects blank name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"name":""}`))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get product", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/Product%201", nil), "name", "Product 1")
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Product 1", resp.Data.Name)
	})

	t.Run("get unknown product", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil), "name", "nope")
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("current price is the latest entry", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/Product%201/price", nil), "name", "Product 1")
		rec := httptest.NewRecorder()
		handler.CurrentPrice(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp priceResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "100.5", resp.Data.Amount.String())
		require.Equal(t, 1999, resp.Data.FromDate.Year())
	})

	t.Run("update price", func(t *testing.T) {
		body := `{"productName":"Product 1","price":{"amount":"300.50","fromDate":"2000-01-01T10:30:00Z"}}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/products/price", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.UpdatePrice(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Prices, 3)
	})

	t.Run("update price rejects stale date", func(t *testing.T) {
		body := `{"productName":"Product 1","price":{"amount":"400.50","fromDate":"1999-01-01T10:30:00Z"}}`
		req := httptest.NewRequest(http.MethodPut, "/api/v1/products/price", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.UpdatePrice(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "NON_MONOTONIC_PRICE", resp.Error.Code)
	})
}

func TestWireFormatRoundTrip(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	handler := catalog.NewHandler(svc, nil)

	// Body timestamps use the same zone-less layout as URL parameters.
	body := `{"name":"Wire","prices":[{"amount":100.50,"fromDate":"1999-01-01T10:30:00"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	raw := rec.Body.String()
	require.Contains(t, raw, `"fromDate":"1999-01-01T10:30:00"`)
	require.Contains(t, raw, `"amount":100.50`)

	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Prices, 1)
	require.Equal(t, time.Date(1999, time.January, 1, 10, 30, 0, 0, time.UTC), resp.Data.Prices[0].FromDate.Time)
}

func TestCurrentPriceNoHistory(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	handler := catalog.NewHandler(svc, nil)

	_, err := svc.Create(context.Background(), "Bare", []timeline.Entry{})
	require.NoError(t, err)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/Bare/price", nil), "name", "Bare")
	rec := httptest.NewRecorder()
	handler.CurrentPrice(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NO_CURRENT_PRICE", resp.Error.Code)
}

func TestListProducts(t *testing.T) {
	store := newStubStore()
	svc := newTestService(t, store)
	handler := catalog.NewHandler(svc, nil)

	_, err := svc.Create(context.Background(), "Product 1", []timeline.Entry{
		{Amount: mustAmount(t, "100.50"), EffectiveFrom: utcDate(1999, time.January, 1)},
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Product 2", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []catalog.ProductInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
}

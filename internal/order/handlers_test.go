package order_test

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

	"github.com/noah-isme/backend-harga/internal/order"
)

type orderResponse struct {
	Data order.OrderInfo `json:"data"`
}

type ordersResponse struct {
	Data []order.OrderInfo `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestOrderHandlers(t *testing.T) {
	orders := &stubOrders{}
	svc := newTestService(t, orders, demoProducts(t), utcDate(2001, time.June, 1))
	handler := order.NewHandler(svc, nil)

	t.Run("create order", func(t *testing.T) {
		body := `{"email":"customer1@test.test","productsToOrder":[
			{"productName":"Product 1","quantity":2},
			{"productName":"Product 1","quantity":1}
		]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp orderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "customer1@test.test", resp.Data.Email)
		require.Len(t, resp.Data.Products, 1)
		require.Equal(t, int64(3), resp.Data.Products[0].Quantity)
		require.Equal(t, "901.5", resp.Data.OrderSum.String())
	})

	t.Run("duplicate order conflicts", func(t *testing.T) {
		body := `{"email":"customer1@test.test","productsToOrder":[{"productName":"Product 1","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ORDER_EXISTS", resp.Error.Code)
	})

	t.Run("unknown product rejected", func(t *testing.T) {
		body := `{"email":"customer2@test.test","productsToOrder":[{"productName":"ghost","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "UNKNOWN_PRODUCT", resp.Error.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		body := `{"email":"not-an-email","productsToOrder":[{"productName":"Product 1","quantity":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		body := `{"email":"customer3@test.test","productsToOrder":[{"productName":"Product 1","quantity":0}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Create(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list orders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ordersResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "901.5", resp.Data[0].OrderSum.String())
	})

	t.Run("order date round trips into revaluation path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"orderSum":901.50`)

		var listed struct {
			Data []struct {
				OrderDate string `json:"orderDate"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		require.Len(t, listed.Data, 1)
		require.Equal(t, "2001-06-01T10:30:00", listed.Data[0].OrderDate)

		// The serialized order date is usable verbatim as a path parameter.
		rreq := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/revalue", nil), map[string]string{
			"email":     "customer1@test.test",
			"orderDate": listed.Data[0].OrderDate,
			"date":      "1999-06-01T10:30:00",
		})
		rrec := httptest.NewRecorder()
		handler.Revalue(rrec, rreq)
		require.Equal(t, http.StatusOK, rrec.Code)
	})

	t.Run("list with inverted range rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?fromDate=2002-01-01T00:00:00&toDate=2001-01-01T00:00:00", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list with malformed date rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?fromDate=yesterday", nil)
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("revalue at historical date", func(t *testing.T) {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/revalue", nil), map[string]string{
			"email":     "customer1@test.test",
			"orderDate": "2001-06-01T10:30:00",
			"date":      "1999-06-01T10:30:00",
		})
		rec := httptest.NewRecorder()
		handler.Revalue(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp orderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "301.5", resp.Data.OrderSum.String())
		// Lines keep the captured placement price.
		require.Equal(t, "300.5", resp.Data.Products[0].Price.Amount.String())
	})

	t.Run("revalue before any price", func(t *testing.T) {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/revalue", nil), map[string]string{
			"email":     "customer1@test.test",
			"orderDate": "2001-06-01T10:30:00",
			"date":      "1980-01-01T00:00:00",
		})
		rec := httptest.NewRecorder()
		handler.Revalue(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "NO_PRICE", resp.Error.Code)
	})

	t.Run("revalue unknown order", func(t *testing.T) {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/revalue", nil), map[string]string{
			"email":     "nobody@test.test",
			"orderDate": "2001-06-01T10:30:00",
			"date":      "1999-06-01T10:30:00",
		})
		rec := httptest.NewRecorder()
		handler.Revalue(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("revalue with malformed date rejected", func(t *testing.T) {
		req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/revalue", nil), map[string]string{
			"email":     "customer1@test.test",
			"orderDate": "2001-06-01T10:30:00",
			"date":      "not-a-date",
		})
		rec := httptest.NewRecorder()
		handler.Revalue(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-storefront-cart/internal/models"
	"golang-storefront-cart/pkg/logging"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	requestID   string
	cookie      string
	body        map[string]interface{}
}

func setupBackend(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	var recorded []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			requestID:   r.Header.Get("X-Request-ID"),
		}
		if c, err := r.Cookie("token"); err == nil {
			rec.cookie = c.Value
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		recorded = append(recorded, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	endpoints := Endpoints{
		CartItems:      Endpoint{Method: http.MethodGet, URL: srv.URL + "/api/view-card-product"},
		UpdateCartItem: Endpoint{Method: http.MethodPost, URL: srv.URL + "/api/update-cart-product"},
		DeleteCartItem: Endpoint{Method: http.MethodPost, URL: srv.URL + "/api/delete-cart-product"},
		Payment:        Endpoint{Method: http.MethodPost, URL: srv.URL + "/api/checkout"},
	}
	client := NewClient(endpoints, 2*time.Second, BreakerSettings{ConsecutiveFails: 2, Timeout: time.Minute},
		logging.Discard().WithField("component", "backend"))
	return client, &recorded
}

func TestFetchCart_ForwardsCredentials(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusOK,
		`{"success":true,"data":[{"_id":"a","quantity":2,"productId":{"sellingPrice":100}}]}`)

	bound := client.WithCredentials([]*http.Cookie{{Name: "token", Value: "session-1"}})
	ctx := WithRequestID(context.Background(), "req-42")

	resp, err := bound.FetchCart(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 2, resp.Data[0].Quantity)

	require.Len(t, *recorded, 1)
	got := (*recorded)[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/view-card-product", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "req-42", got.requestID)
	assert.Equal(t, "session-1", got.cookie)
	assert.Nil(t, got.body)
}

func TestWithCredentials_DoesNotLeakIntoParent(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusOK, `{"success":true,"data":[]}`)

	_ = client.WithCredentials([]*http.Cookie{{Name: "token", Value: "session-1"}})
	_, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", (*recorded)[0].cookie)
}

func TestUpdateCartItem_Body(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusOK, `{"success":true,"message":"Product Updated"}`)

	resp, err := client.UpdateCartItem(context.Background(), "a", 3)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	got := (*recorded)[0]
	assert.Equal(t, "/api/update-cart-product", got.path)
	assert.Equal(t, "a", got.body["_id"])
	assert.Equal(t, float64(3), got.body["quantity"])
}

func TestDeleteCartItem_BusinessFailureOn4xx(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusBadRequest, `{"success":false,"error":true,"message":"not found"}`)

	resp, err := client.DeleteCartItem(context.Background(), "zz")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "not found", resp.Message)
	assert.Equal(t, "zz", (*recorded)[0].body["_id"])
}

func TestCreatePaymentSession_SendsCartSnapshot(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusOK, `{"id":"sess_123"}`)

	var items []models.CartLineItem
	require.NoError(t, json.Unmarshal([]byte(`[{"_id":"a","quantity":2,"productId":{"sellingPrice":100}}]`), &items))

	resp, err := client.CreatePaymentSession(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, "sess_123", resp.ID)

	cartItem, ok := (*recorded)[0].body["CartItem"].([]interface{})
	require.True(t, ok)
	require.Len(t, cartItem, 1)
	assert.Equal(t, "a", cartItem[0].(map[string]interface{})["_id"])
}

func TestCreatePaymentSession_EmptyCartSendsArray(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusOK, `{}`)

	resp, err := client.CreatePaymentSession(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", resp.ID)
	assert.Equal(t, []interface{}{}, (*recorded)[0].body["CartItem"])
}

func TestFetchCart_MalformedResponse(t *testing.T) {
	client, _ := setupBackend(t, http.StatusOK, `<html>oops</html>`)

	resp, err := client.FetchCart(context.Background())
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestFetchCart_ServerErrorWithEnvelope(t *testing.T) {
	client, _ := setupBackend(t, http.StatusInternalServerError, `{"success":false,"message":"db down"}`)

	resp, err := client.FetchCart(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestBreaker_OpensAfterConsecutiveServerErrors(t *testing.T) {
	client, recorded := setupBackend(t, http.StatusBadGateway, ``)

	for i := 0; i < 2; i++ {
		_, err := client.FetchCart(context.Background())
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	}

	_, err := client.FetchCart(context.Background())
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Len(t, *recorded, 2)
}

func TestFetchCart_TransportError(t *testing.T) {
	client := NewClient(Endpoints{CartItems: Endpoint{Method: http.MethodGet, URL: "http://127.0.0.1:1/cart"}},
		time.Second, BreakerSettings{}, logging.Discard().WithField("component", "backend"))

	resp, err := client.FetchCart(context.Background())
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestFetchCart_ServerErrorWithoutEnvelope(t *testing.T) {
	client, _ := setupBackend(t, http.StatusServiceUnavailable, `upstream unavailable`)

	resp, err := client.FetchCart(context.Background())
	assert.Nil(t, resp)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

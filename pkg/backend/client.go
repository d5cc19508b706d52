package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang-storefront-cart/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrMalformedResponse marks a backend answer that could not be decoded.
var ErrMalformedResponse = errors.New("malformed backend response")

// Endpoint is one backend route: method plus absolute URL.
type Endpoint struct {
	Method string
	URL    string
}

// Endpoints lists the storefront routes the cart view talks to.
type Endpoints struct {
	CartItems      Endpoint
	UpdateCartItem Endpoint
	DeleteCartItem Endpoint
	Payment        Endpoint
}

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ConsecutiveFails uint32
}

// StatusError is returned for 5xx answers; Body holds whatever the backend sent.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return http.StatusText(e.StatusCode) + ": " + string(e.Body)
}

// Client issues credentialed JSON requests against the storefront backend.
// A Client bound to a shopper's cookies is obtained with WithCredentials.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cookies    []*http.Cookie
	log        *logrus.Entry
}

func NewClient(endpoints Endpoints, timeout time.Duration, settings BreakerSettings, log *logrus.Entry) *Client {
	return NewClientWithHTTP(endpoints, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, settings, log)
}

func NewClientWithHTTP(endpoints Endpoints, httpClient *http.Client, settings BreakerSettings, log *logrus.Entry) *Client {
	c := &Client{
		endpoints:  endpoints,
		httpClient: httpClient,
		log:        log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "storefront-backend",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return settings.ConsecutiveFails > 0 && counts.ConsecutiveFailures >= settings.ConsecutiveFails
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("backend circuit breaker changed state")
		},
	})
	return c
}

// WithCredentials returns a copy of the client that forwards the given cookies.
// The copy shares the transport and the circuit breaker.
func (c *Client) WithCredentials(cookies []*http.Cookie) *Client {
	bound := *c
	bound.cookies = append([]*http.Cookie(nil), cookies...)
	return &bound
}

// FetchCart lists the shopper's cart entries with their products populated.
func (c *Client) FetchCart(ctx context.Context) (*models.CartListResponse, error) {
	var resp models.CartListResponse
	if err := c.call(ctx, c.endpoints.CartItems, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateCartItem sets the quantity of one cart entry.
func (c *Client) UpdateCartItem(ctx context.Context, id string, quantity int) (*models.MutationResponse, error) {
	var resp models.MutationResponse
	req := models.UpdateCartItemRequest{ID: id, Quantity: quantity}
	if err := c.call(ctx, c.endpoints.UpdateCartItem, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteCartItem removes one cart entry.
func (c *Client) DeleteCartItem(ctx context.Context, id string) (*models.MutationResponse, error) {
	var resp models.MutationResponse
	if err := c.call(ctx, c.endpoints.DeleteCartItem, models.DeleteCartItemRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePaymentSession asks the backend for a hosted checkout session covering items.
func (c *Client) CreatePaymentSession(ctx context.Context, items []models.CartLineItem) (*models.PaymentSessionResponse, error) {
	if items == nil {
		items = []models.CartLineItem{}
	}
	var resp models.PaymentSessionResponse
	if err := c.call(ctx, c.endpoints.Payment, models.PaymentSessionRequest{CartItem: items}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, ep Endpoint, payload, dest interface{}) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, ep, payload)
	})
	if err != nil {
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || len(statusErr.Body) == 0 {
			return err
		}
		// the backend also reports failures as JSON envelopes on 5xx
		if json.Unmarshal(statusErr.Body, dest) != nil {
			return err
		}
		return nil
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrapf(ErrMalformedResponse, "%s %s: %v", ep.Method, ep.URL, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, ep Endpoint, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", ep.Method, ep.URL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	c.log.WithFields(logrus.Fields{
		"method":  ep.Method,
		"url":     ep.URL,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("backend call")

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

type requestIDKey struct{}

// WithRequestID attaches the inbound request id so backend calls carry it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

package payment

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMissingPublishableKey = errors.New("stripe publishable key is not configured")
	ErrInvalidPublishableKey = errors.New("stripe publishable key must start with pk_")
	ErrMissingSession        = errors.New("payment session id is empty")
)

// StripeGateway hands a backend-created checkout session over to Stripe's
// hosted checkout page.
type StripeGateway struct {
	publishableKey  string
	checkoutBaseURL string
}

func NewStripeGateway(publishableKey, checkoutBaseURL string) *StripeGateway {
	return &StripeGateway{
		publishableKey:  strings.TrimSpace(publishableKey),
		checkoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
	}
}

// Ready reports whether the gateway can hand sessions off.
func (g *StripeGateway) Ready() error {
	if g.publishableKey == "" {
		return ErrMissingPublishableKey
	}
	if !strings.HasPrefix(g.publishableKey, "pk_") {
		return ErrInvalidPublishableKey
	}
	return nil
}

// CheckoutURL returns the hosted checkout page for a session.
func (g *StripeGateway) CheckoutURL(sessionID string) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}
	if sessionID == "" {
		return "", ErrMissingSession
	}

	u, err := url.Parse(g.checkoutBaseURL + "/" + url.PathEscape(sessionID))
	if err != nil {
		return "", errors.Wrap(err, "invalid checkout base url")
	}
	q := u.Query()
	q.Set("key", g.publishableKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

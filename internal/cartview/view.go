package cartview

import (
	"context"
	"sync"
	"time"

	"golang-storefront-cart/internal/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrQuantityFloor is returned by Decrease when the entry is already at
	// quantity 1; no request is sent in that case.
	ErrQuantityFloor = errors.New("quantity cannot go below 1")
	// ErrRejected means the backend answered success:false.
	ErrRejected = errors.New("backend rejected the request")
)

// CartAPI is the storefront backend as the cart view consumes it.
type CartAPI interface {
	FetchCart(ctx context.Context) (*models.CartListResponse, error)
	UpdateCartItem(ctx context.Context, id string, quantity int) (*models.MutationResponse, error)
	DeleteCartItem(ctx context.Context, id string) (*models.MutationResponse, error)
	CreatePaymentSession(ctx context.Context, items []models.CartLineItem) (*models.PaymentSessionResponse, error)
}

// Notifier receives the badge value after every successful load.
type Notifier interface {
	SetCount(ctx context.Context, count int) error
}

// CartContext lets the rest of the storefront refresh its cart caches.
// itemID names the entry that changed.
type CartContext interface {
	Refresh(ctx context.Context, itemID string) error
}

// PaymentGateway turns a payment session id into a hosted checkout location.
type PaymentGateway interface {
	CheckoutURL(sessionID string) (string, error)
}

type Deps struct {
	API         CartAPI
	Notifier    Notifier
	CartContext CartContext
	Gateway     PaymentGateway
}

// ViewState is replaced wholesale after every applied load.
type ViewState struct {
	Items   []models.CartLineItem `json:"items"`
	Loading bool                  `json:"loading"`
}

type CheckoutResult struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// View holds one shopper's cart page. Every mutation is sent to the backend
// and followed by a full reload; nothing is patched locally.
type View struct {
	deps Deps
	log  *logrus.Entry

	mu      sync.Mutex
	countMu sync.Mutex // serializes badge writes
	state   ViewState
	issued  uint64 // generation handed to the most recently started load
	applied uint64 // generation whose result is in state
	mounted bool
}

func NewView(deps Deps, log *logrus.Entry) *View {
	return &View{
		deps:  deps,
		log:   log,
		state: ViewState{Items: []models.CartLineItem{}},
	}
}

// State returns a copy of the current state.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]models.CartLineItem, len(v.state.Items))
	copy(items, v.state.Items)
	return ViewState{Items: items, Loading: v.state.Loading}
}

// Page renders the current state.
func (v *View) Page() Page {
	return Render(v.State())
}

// Mounted reports whether Mount has completed at least once.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Mount runs the initial load with the loading flag raised.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	v.state.Loading = true
	v.mu.Unlock()

	err := v.Load(ctx)

	v.mu.Lock()
	v.state.Loading = false
	v.mounted = true
	v.mu.Unlock()
	return err
}

// Load fetches the cart and replaces the item list. A load that finishes after
// a later-started load has already been applied is discarded.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.issued++
	gen := v.issued
	v.mu.Unlock()

	start := time.Now()
	resp, err := v.api().FetchCart(ctx)
	if err != nil {
		v.log.WithError(err).Error("Error fetching cart data")
		return errors.Wrap(err, "fetch cart")
	}

	items := []models.CartLineItem{}
	if resp.Success && resp.Data != nil {
		items = resp.Data
	}
	count := models.TotalQuantity(items)

	v.mu.Lock()
	if gen < v.applied {
		applied := v.applied
		v.mu.Unlock()
		v.log.WithFields(logrus.Fields{"generation": gen, "applied": applied}).
			Debug("discarding stale cart reload")
		return nil
	}
	v.applied = gen
	v.state.Items = items
	notifier := v.deps.Notifier
	v.mu.Unlock()

	if !resp.Success {
		v.log.WithField("message", resp.Message).Info("cart listing unsuccessful, clearing view")
	}

	v.publishCount(ctx, notifier, gen, count)

	v.log.WithFields(logrus.Fields{
		"items":    len(items),
		"quantity": count,
		"latency":  time.Since(start).String(),
	}).Debug("cart loaded")
	return nil
}

// publishCount writes the badge outside the view lock. Writes are serialized
// by countMu and skipped once a newer load has been applied, so the badge
// never moves back to an older count.
func (v *View) publishCount(ctx context.Context, notifier Notifier, gen uint64, count int) {
	v.countMu.Lock()
	defer v.countMu.Unlock()

	v.mu.Lock()
	current := gen == v.applied
	v.mu.Unlock()
	if !current {
		return
	}

	if err := notifier.SetCount(ctx, count); err != nil {
		v.log.WithError(err).Warn("failed to update notification count")
	}
}

// Increase raises an entry's quantity by one.
func (v *View) Increase(ctx context.Context, id string, quantity int) error {
	return v.setQuantity(ctx, id, quantity+1, "Error increasing quantity")
}

// Decrease lowers an entry's quantity by one, never below 1.
func (v *View) Decrease(ctx context.Context, id string, quantity int) error {
	if quantity < 2 {
		return ErrQuantityFloor
	}
	return v.setQuantity(ctx, id, quantity-1, "Error decreasing quantity")
}

func (v *View) setQuantity(ctx context.Context, id string, quantity int, failure string) error {
	log := v.log.WithFields(logrus.Fields{"item_id": id, "quantity": quantity})

	resp, err := v.api().UpdateCartItem(ctx, id, quantity)
	if err != nil {
		log.WithError(err).Error(failure)
		return errors.Wrap(err, "update cart item")
	}
	if !resp.Success {
		log.WithField("message", resp.Message).Warn(failure)
		return rejected(resp.Message)
	}

	return v.Load(ctx)
}

// Delete removes an entry, reloads, and tells the rest of the storefront.
func (v *View) Delete(ctx context.Context, id string) error {
	log := v.log.WithField("item_id", id)

	resp, err := v.api().DeleteCartItem(ctx, id)
	if err != nil {
		log.WithError(err).Error("Error deleting cart product")
		return errors.Wrap(err, "delete cart item")
	}
	if !resp.Success {
		log.WithField("message", resp.Message).Warn("Error deleting cart product")
		return rejected(resp.Message)
	}

	loadErr := v.Load(ctx)
	if err := v.deps.CartContext.Refresh(ctx, id); err != nil {
		log.WithError(err).Warn("failed to refresh shared cart context")
		if loadErr == nil {
			return errors.Wrap(err, "refresh cart context")
		}
	}
	return loadErr
}

// Checkout requests a payment session for the current items and resolves the
// hosted checkout location. A nil result with a nil error means the backend
// returned no session and nothing should be handed off.
func (v *View) Checkout(ctx context.Context) (*CheckoutResult, error) {
	items := v.State().Items

	resp, err := v.api().CreatePaymentSession(ctx, items)
	if err != nil {
		v.log.WithError(err).Error("Error creating payment session")
		return nil, errors.Wrap(err, "create payment session")
	}
	if resp.ID == "" {
		v.log.WithField("items", len(items)).Info("payment response carried no session id")
		return nil, nil
	}

	redirectURL, err := v.deps.Gateway.CheckoutURL(resp.ID)
	if err != nil {
		v.log.WithError(err).WithField("session_id", resp.ID).Error("payment handoff failed")
		return nil, errors.Wrap(err, "payment handoff")
	}

	v.log.WithField("session_id", resp.ID).Info("handing off to hosted checkout")
	return &CheckoutResult{SessionID: resp.ID, RedirectURL: redirectURL}, nil
}

// rebind swaps the backend client, used when the shopper's credentials rotate.
func (v *View) rebind(api CartAPI) {
	if api == nil {
		return
	}
	v.mu.Lock()
	v.deps.API = api
	v.mu.Unlock()
}

func (v *View) api() CartAPI {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deps.API
}

func rejected(message string) error {
	if message == "" {
		return ErrRejected
	}
	return errors.Wrap(ErrRejected, message)
}

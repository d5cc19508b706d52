package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"golang-storefront-cart/internal/cartview"
	"golang-storefront-cart/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// CartTemplate parses the cart page template for gin's HTML renderer.
func CartTemplate() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type CartHandler struct {
	views         ViewRegistryInterface
	notifications NotificationCounterInterface
	deps          DepsFactory
	log           *logrus.Entry
}

func NewCartHandler(views ViewRegistryInterface, notifications NotificationCounterInterface, deps DepsFactory, log *logrus.Entry) *CartHandler {
	return &CartHandler{
		views:         views,
		notifications: notifications,
		deps:          deps,
		log:           log,
	}
}

// RegisterRoutes registers the cart page and its JSON counterpart
func (h *CartHandler) RegisterRoutes(pages, api *gin.RouterGroup, authMiddleware *middleware.AuthMiddleware) {
	// All cart routes require authentication
	cart := pages.Group("/cart", authMiddleware.AuthRequired())
	{
		cart.GET("", h.ShowCart)
		cart.POST("/items/:item_id/increase", h.IncreaseQuantity)
		cart.POST("/items/:item_id/decrease", h.DecreaseQuantity)
		cart.POST("/items/:item_id/delete", h.DeleteItem)
		cart.POST("/payment", h.Payment)
	}

	cartAPI := api.Group("/cart", authMiddleware.AuthRequired())
	{
		cartAPI.GET("", h.GetCart)
		cartAPI.GET("/notifications", h.GetNotificationCount)
		cartAPI.POST("/items/:item_id/increase", h.IncreaseQuantityJSON)
		cartAPI.POST("/items/:item_id/decrease", h.DecreaseQuantityJSON)
		cartAPI.DELETE("/items/:item_id", h.DeleteItemJSON)
		cartAPI.POST("/payment", h.PaymentJSON)
		cartAPI.DELETE("/view", h.ResetView)
	}
}

// QuantityRequest carries the quantity the page showed when the stepper was pressed
type QuantityRequest struct {
	Quantity int `form:"quantity" json:"quantity"`
}

type PaymentResponse struct {
	SessionID   string `json:"session_id,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Redirect    bool   `json:"redirect"`
}

type NotificationResponse struct {
	Count int `json:"count"`
}

type cartPageData struct {
	Page             cartview.Page
	PlaceholderSlots []int
}

func (h *CartHandler) view(c *gin.Context) *cartview.View {
	userID := middleware.GetUserID(c)
	return h.views.Acquire(userID, h.deps(c, userID))
}

// ShowCart mounts the shopper's view and renders the cart page
func (h *CartHandler) ShowCart(c *gin.Context) {
	view := h.view(c)
	// failures are logged by the view; the page shows the last good state
	_ = view.Mount(c.Request.Context())

	page := view.Page()
	c.HTML(http.StatusOK, "cart.html", cartPageData{
		Page:             page,
		PlaceholderSlots: make([]int, page.Placeholders),
	})
}

// GetCart mounts the shopper's view and returns the rendered page as JSON
func (h *CartHandler) GetCart(c *gin.Context) {
	view := h.view(c)
	if err := view.Mount(c.Request.Context()); err != nil {
		respondViewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Page())
}

// GetNotificationCount returns the cart badge value
func (h *CartHandler) GetNotificationCount(c *gin.Context) {
	count, err := h.notifications.Count(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to read notification count",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, NotificationResponse{Count: count})
}

func (h *CartHandler) IncreaseQuantity(c *gin.Context) {
	h.mutatePage(c, func(view *cartview.View, id string, qty int) error {
		return view.Increase(c.Request.Context(), id, qty)
	})
}

func (h *CartHandler) DecreaseQuantity(c *gin.Context) {
	h.mutatePage(c, func(view *cartview.View, id string, qty int) error {
		return view.Decrease(c.Request.Context(), id, qty)
	})
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	h.mutatePage(c, func(view *cartview.View, id string, _ int) error {
		return view.Delete(c.Request.Context(), id)
	})
}

func (h *CartHandler) IncreaseQuantityJSON(c *gin.Context) {
	h.mutateJSON(c, true, func(view *cartview.View, id string, qty int) error {
		return view.Increase(c.Request.Context(), id, qty)
	})
}

func (h *CartHandler) DecreaseQuantityJSON(c *gin.Context) {
	h.mutateJSON(c, true, func(view *cartview.View, id string, qty int) error {
		return view.Decrease(c.Request.Context(), id, qty)
	})
}

func (h *CartHandler) DeleteItemJSON(c *gin.Context) {
	h.mutateJSON(c, false, func(view *cartview.View, id string, _ int) error {
		return view.Delete(c.Request.Context(), id)
	})
}

// Payment creates a payment session and sends the shopper to hosted checkout,
// or back to the cart when no session came back
func (h *CartHandler) Payment(c *gin.Context) {
	result, err := h.view(c).Checkout(c.Request.Context())
	if err != nil || result == nil {
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}
	c.Redirect(http.StatusSeeOther, result.RedirectURL)
}

func (h *CartHandler) PaymentJSON(c *gin.Context) {
	result, err := h.view(c).Checkout(c.Request.Context())
	if err != nil {
		respondViewError(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, PaymentResponse{Redirect: false})
		return
	}
	c.JSON(http.StatusOK, PaymentResponse{
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
		Redirect:    true,
	})
}

// ResetView drops the shopper's view and badge, e.g. on logout
func (h *CartHandler) ResetView(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.views.Forget(userID)
	if err := h.notifications.Clear(c.Request.Context(), userID); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to clear notification count")
	}
	c.Status(http.StatusNoContent)
}

type mutation func(view *cartview.View, id string, quantity int) error

// mutatePage runs a stepper or delete command from the HTML page. Failures are
// logged by the view and the shopper is always sent back to the cart.
func (h *CartHandler) mutatePage(c *gin.Context, fn mutation) {
	var req QuantityRequest
	if err := c.ShouldBind(&req); err != nil {
		h.log.WithError(err).Warn("invalid cart form")
		c.Redirect(http.StatusSeeOther, "/cart")
		return
	}

	_ = fn(h.view(c), c.Param("item_id"), req.Quantity)
	c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHandler) mutateJSON(c *gin.Context, needsQuantity bool, fn mutation) {
	var req QuantityRequest
	if needsQuantity {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
			})
			return
		}
	}

	view := h.view(c)
	if err := fn(view, c.Param("item_id"), req.Quantity); err != nil {
		respondViewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Page())
}

func respondViewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cartview.ErrQuantityFloor):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Quantity cannot be decreased",
			Message: err.Error(),
		})
	case errors.Is(err, cartview.ErrRejected):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Request rejected by storefront",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Storefront backend unavailable",
			Message: err.Error(),
		})
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

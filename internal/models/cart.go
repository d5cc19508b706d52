package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLineItem is one product-and-quantity entry as the storefront backend
// returns it from the cart listing, with the product reference populated.
type CartLineItem struct {
	ID        string      `json:"_id"`
	Quantity  int         `json:"quantity"`
	ProductID *ProductRef `json:"productId"`

	// raw is the backend's own encoding, forwarded as-is in checkout payloads.
	raw json.RawMessage
}

// ProductRef is the populated product document linked from a cart entry.
type ProductRef struct {
	ID           string   `json:"_id,omitempty"`
	ProductName  string   `json:"productName"`
	BrandName    string   `json:"brandName,omitempty"`
	Category     string   `json:"category"`
	Price        float64  `json:"price,omitempty"`
	SellingPrice float64  `json:"sellingPrice"`
	ProductImage []string `json:"productImage"`
}

type cartLineItemJSON CartLineItem

func (i *CartLineItem) UnmarshalJSON(data []byte) error {
	var decoded cartLineItemJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*i = CartLineItem(decoded)
	i.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (i CartLineItem) MarshalJSON() ([]byte, error) {
	if len(i.raw) > 0 {
		return i.raw, nil
	}
	return json.Marshal(cartLineItemJSON(i))
}

// HasProduct reports whether the product reference survived population.
// Entries whose product was deleted come back with a null reference.
func (i CartLineItem) HasProduct() bool {
	return i.ProductID != nil
}

// UnitPrice is the selling price, zero when the product reference is missing.
func (i CartLineItem) UnitPrice() decimal.Decimal {
	if i.ProductID == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(i.ProductID.SellingPrice)
}

// LineTotal is unit price times quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FirstImage returns the first product image URL or "".
func (i CartLineItem) FirstImage() string {
	if i.ProductID == nil || len(i.ProductID.ProductImage) == 0 {
		return ""
	}
	return i.ProductID.ProductImage[0]
}

// TotalQuantity sums quantities over every entry.
func TotalQuantity(items []CartLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums line totals over every entry, missing prices counting as zero.
func TotalPrice(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CartListResponse is the envelope of the cart listing endpoint.
type CartListResponse struct {
	Success bool           `json:"success"`
	Error   bool           `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    []CartLineItem `json:"data"`
}

// MutationResponse is the envelope of the update and delete endpoints.
type MutationResponse struct {
	Success bool   `json:"success"`
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// UpdateCartItemRequest sets an entry's quantity.
type UpdateCartItemRequest struct {
	ID       string `json:"_id"`
	Quantity int    `json:"quantity"`
}

// DeleteCartItemRequest removes an entry.
type DeleteCartItemRequest struct {
	ID string `json:"_id"`
}

// PaymentSessionRequest carries the cart snapshot to the payment endpoint.
type PaymentSessionRequest struct {
	CartItem []CartLineItem `json:"CartItem"`
}

// PaymentSessionResponse holds the hosted checkout session id, if one was created.
type PaymentSessionResponse struct {
	ID string `json:"id"`
}

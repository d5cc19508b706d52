package cartview

import (
	"golang-storefront-cart/internal/models"
	"golang-storefront-cart/pkg/currency"

	"github.com/shopspring/decimal"
)

// PlaceholderRows is how many skeleton rows the page shows while loading.
const PlaceholderRows = 4

const (
	unknownProduct  = "Unknown Product"
	unknownCategory = "Unknown Category"
)

type Page struct {
	Loading bool `json:"loading"`
	// Placeholders is the number of skeleton rows; non-zero only while loading.
	Placeholders int   `json:"placeholders"`
	Rows         []Row `json:"rows"`
	// Summary is nil when the cart has no entries or while loading.
	Summary            *Summary `json:"summary,omitempty"`
	SummaryPlaceholder bool     `json:"summary_placeholder"`
	Empty              bool     `json:"empty"`
}

type Row struct {
	ID            string          `json:"id"`
	ImageURL      string          `json:"image_url"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
	UnitPriceText string          `json:"unit_price_text"`
	LineTotalText string          `json:"line_total_text"`
}

type Summary struct {
	TotalQty       int             `json:"total_qty"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	TotalPriceText string          `json:"total_price_text"`
}

// Render projects state onto the page. It has no side effects.
func Render(state ViewState) Page {
	page := Page{
		Loading: state.Loading,
		Rows:    []Row{},
		Empty:   len(state.Items) == 0 && !state.Loading,
	}

	hasItems := len(state.Items) > 0

	if state.Loading {
		page.Placeholders = PlaceholderRows
		page.SummaryPlaceholder = hasItems
		return page
	}

	for _, item := range state.Items {
		if !item.HasProduct() {
			continue
		}
		page.Rows = append(page.Rows, renderRow(item))
	}

	if hasItems {
		total := models.TotalPrice(state.Items)
		page.Summary = &Summary{
			TotalQty:       models.TotalQuantity(state.Items),
			TotalPrice:     total,
			TotalPriceText: currency.FormatINR(total),
		}
	}
	return page
}

func renderRow(item models.CartLineItem) Row {
	unit := item.UnitPrice()
	line := item.LineTotal()
	return Row{
		ID:            item.ID,
		ImageURL:      item.FirstImage(),
		Name:          orDefault(item.ProductID.ProductName, unknownProduct),
		Category:      orDefault(item.ProductID.Category, unknownCategory),
		Quantity:      item.Quantity,
		UnitPrice:     unit,
		LineTotal:     line,
		UnitPriceText: currency.FormatINR(unit),
		LineTotalText: currency.FormatINR(line),
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

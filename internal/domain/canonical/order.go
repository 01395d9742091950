package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults substituted by forward mapping when the vendor payload omits a field.
const (
	// DefaultCurrency is used when a vendor payload carries no currency
	DefaultCurrency = "USD"
	// DefaultUnit is used when a vendor payload carries no quantity unit
	DefaultUnit = "EA"
)

// OrderStatus represents the vendor-neutral status of a sales order
type OrderStatus string

const (
	// OrderStatusDraft indicates the order has not been submitted
	OrderStatusDraft OrderStatus = "DRAFT"
	// OrderStatusOpen indicates the order is accepted and in process
	OrderStatusOpen OrderStatus = "OPEN"
	// OrderStatusConfirmed indicates the order is confirmed by the vendor system
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusPartiallyShipped indicates some lines have shipped
	OrderStatusPartiallyShipped OrderStatus = "PARTIALLY_SHIPPED"
	// OrderStatusShipped indicates all lines have shipped
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusInvoiced indicates the order has been billed
	OrderStatusInvoiced OrderStatus = "INVOICED"
	// OrderStatusCompleted indicates the order is fully processed
	OrderStatusCompleted OrderStatus = "COMPLETED"
	// OrderStatusCancelled indicates the order was cancelled
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusOpen, OrderStatusConfirmed,
		OrderStatusPartiallyShipped, OrderStatusShipped, OrderStatusInvoiced,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal returns true if the status is a terminal state
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order is the vendor-neutral representation of a sales order.
// Fields left zero-valued by a partial canonical object are treated as
// absent by reverse mapping and must not be emitted to the vendor.
type Order struct {
	// ExternalID is the order identifier in the vendor system
	ExternalID string `json:"externalId,omitempty"`
	// OrderNumber is the human-readable order number
	OrderNumber string `json:"orderNumber,omitempty"`
	// CustomerID is the vendor identifier of the ordering customer
	CustomerID string `json:"customerId,omitempty"`
	// CustomerName is the ordering customer's display name
	CustomerName string `json:"customerName,omitempty"`
	// Status is the canonical order status
	Status OrderStatus `json:"status,omitempty"`
	// Currency is the ISO 4217 currency code (default: USD)
	Currency string `json:"currency,omitempty"`
	// NetAmount is the order total before tax
	NetAmount decimal.Decimal `json:"netAmount"`
	// TaxAmount is the total tax
	TaxAmount decimal.Decimal `json:"taxAmount"`
	// GrossAmount is the order total including tax
	GrossAmount decimal.Decimal `json:"grossAmount"`
	// Lines contains the order line items
	Lines []OrderLine `json:"lines,omitempty"`
	// RequestedDeliveryDate is the requested delivery date, if any
	RequestedDeliveryDate *time.Time `json:"requestedDeliveryDate,omitempty"`
	// CreatedAt is when the order was created in the vendor system
	CreatedAt time.Time `json:"createdAt"`
	// Metadata carries vendor-specific attributes that survive round-trips
	Metadata map[string]string `json:"metadata,omitempty"`
}

// OrderLine is a single line item on a canonical order
type OrderLine struct {
	// LineNumber is the position of the line within the order
	LineNumber int `json:"lineNumber,omitempty"`
	// ProductID is the vendor identifier of the ordered product
	ProductID string `json:"productId,omitempty"`
	// ProductName is the ordered product's description
	ProductName string `json:"productName,omitempty"`
	// Quantity is the ordered quantity
	Quantity decimal.Decimal `json:"quantity"`
	// Unit is the quantity unit (default: EA)
	Unit string `json:"unit,omitempty"`
	// UnitPrice is the price per unit
	UnitPrice decimal.Decimal `json:"unitPrice"`
	// NetAmount is the line total before tax
	NetAmount decimal.Decimal `json:"netAmount"`
	// Plant identifies the fulfilling plant or site, if any
	Plant string `json:"plant,omitempty"`
}

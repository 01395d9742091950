package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the vendor-neutral status of an invoice
type InvoiceStatus string

const (
	// InvoiceStatusOpen indicates the invoice is issued and unpaid
	InvoiceStatusOpen InvoiceStatus = "OPEN"
	// InvoiceStatusPartiallyPaid indicates a partial payment was received
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	// InvoiceStatusPaid indicates the invoice is settled
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusCancelled indicates the invoice was reversed
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
	// InvoiceStatusOverdue indicates the invoice passed its due date unpaid
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// IsValid returns true if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPartiallyPaid, InvoiceStatusPaid,
		InvoiceStatusCancelled, InvoiceStatusOverdue:
		return true
	default:
		return false
	}
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// Invoice is the vendor-neutral representation of a billing document
type Invoice struct {
	// ExternalID is the invoice identifier in the vendor system
	ExternalID string `json:"externalId,omitempty"`
	// InvoiceNumber is the human-readable invoice number
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	// OrderID is the vendor identifier of the billed order, if any
	OrderID string `json:"orderId,omitempty"`
	// CustomerID is the vendor identifier of the billed customer
	CustomerID string `json:"customerId,omitempty"`
	// Status is the canonical invoice status
	Status InvoiceStatus `json:"status,omitempty"`
	// Currency is the ISO 4217 currency code (default: USD)
	Currency string `json:"currency,omitempty"`
	// NetAmount is the invoice total before tax
	NetAmount decimal.Decimal `json:"netAmount"`
	// TaxAmount is the total tax
	TaxAmount decimal.Decimal `json:"taxAmount"`
	// GrossAmount is the invoice total including tax
	GrossAmount decimal.Decimal `json:"grossAmount"`
	// Lines contains the invoice line items
	Lines []InvoiceLine `json:"lines,omitempty"`
	// IssuedAt is the billing date
	IssuedAt time.Time `json:"issuedAt"`
	// DueAt is the payment due date, if known
	DueAt *time.Time `json:"dueAt,omitempty"`
}

// InvoiceLine is a single line item on a canonical invoice
type InvoiceLine struct {
	// LineNumber is the position of the line within the invoice
	LineNumber int `json:"lineNumber,omitempty"`
	// ProductID is the vendor identifier of the billed product
	ProductID string `json:"productId,omitempty"`
	// ProductName is the billed product's description
	ProductName string `json:"productName,omitempty"`
	// Quantity is the billed quantity
	Quantity decimal.Decimal `json:"quantity"`
	// Unit is the quantity unit (default: EA)
	Unit string `json:"unit,omitempty"`
	// NetAmount is the line total before tax
	NetAmount decimal.Decimal `json:"netAmount"`
}

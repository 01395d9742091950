package dynamics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/b2bhub/backend/internal/domain/canonical"
)

// Mapper converts between Dynamics Web API shapes and the canonical model.
// Pure functions; forward mapping substitutes the documented defaults
// (currency "USD", unit "EA", amounts zero), reverse mapping emits only
// fields the canonical input provides.
type Mapper struct{}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// mapOrderStatus maps the Dynamics salesorder state/status pair to the
// canonical order status. Fixed table; unknown values map to OPEN.
//
// statecode: 0=Active, 1=Submitted, 2=Canceled, 3=Fulfilled, 4=Invoiced
func mapOrderStatus(stateCode, statusCode int) canonical.OrderStatus {
	switch stateCode {
	case 0:
		return canonical.OrderStatusDraft
	case 1:
		return canonical.OrderStatusOpen
	case 2:
		return canonical.OrderStatusCancelled
	case 3:
		// statuscode 100002 = partially fulfilled
		if statusCode == 100002 {
			return canonical.OrderStatusPartiallyShipped
		}
		return canonical.OrderStatusShipped
	case 4:
		return canonical.OrderStatusInvoiced
	default:
		return canonical.OrderStatusOpen
	}
}

// mapInvoiceStatus maps the Dynamics invoice state/status pair to the
// canonical invoice status. Fixed table; unknown values map to OPEN.
//
// statecode: 0=Active, 1=Closed, 2=Paid, 3=Canceled
func mapInvoiceStatus(stateCode, statusCode int) canonical.InvoiceStatus {
	switch stateCode {
	case 0, 1:
		// statuscode 100001 = partially paid
		if statusCode == 100001 {
			return canonical.InvoiceStatusPartiallyPaid
		}
		return canonical.InvoiceStatusOpen
	case 2:
		return canonical.InvoiceStatusPaid
	case 3:
		return canonical.InvoiceStatusCancelled
	default:
		return canonical.InvoiceStatusOpen
	}
}

// mapAccountStatus maps the Dynamics account state to the canonical customer
// status. statecode 0=Active, 1=Inactive; statuscode 100001 marks a credit hold.
func mapAccountStatus(stateCode, statusCode int) canonical.CustomerStatus {
	if stateCode == 1 {
		return canonical.CustomerStatusInactive
	}
	if statusCode == 100001 {
		return canonical.CustomerStatusBlocked
	}
	return canonical.CustomerStatusActive
}

// ---------------------------------------------------------------------------
// Forward Mapping (Dynamics -> canonical)
// ---------------------------------------------------------------------------

// ProductToCanonical maps a Dynamics product to the canonical product
func (m Mapper) ProductToCanonical(p *dynProduct) *canonical.Product {
	product := &canonical.Product{
		ExternalID:  p.ProductID,
		SKU:         p.ProductNumber,
		Name:        p.Name,
		Description: p.Description,
		Unit:        p.DefaultUnit,
		Price:       decimal.NewFromFloat(p.Price),
		Currency:    p.CurrencyCode,
		IsActive:    p.StateCode == 0,
	}
	if product.Unit == "" {
		product.Unit = canonical.DefaultUnit
	}
	if product.Currency == "" {
		product.Currency = canonical.DefaultCurrency
	}
	return product
}

// OrderToCanonical maps a Dynamics sales order to the canonical order
func (m Mapper) OrderToCanonical(o *dynSalesOrder) *canonical.Order {
	order := &canonical.Order{
		ExternalID:   o.SalesOrderID,
		OrderNumber:  o.OrderNumber,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Status:       mapOrderStatus(o.StateCode, o.StatusCode),
		Currency:     o.CurrencyCode,
		GrossAmount:  decimal.NewFromFloat(o.TotalAmount),
		TaxAmount:    decimal.NewFromFloat(o.TotalTax),
		Lines:        make([]canonical.OrderLine, 0, len(o.Details)),
	}
	if order.Currency == "" {
		order.Currency = canonical.DefaultCurrency
	}
	order.NetAmount = order.GrossAmount.Sub(order.TaxAmount)

	if t, ok := parseDynamicsDate(o.RequestDelivery); ok {
		order.RequestedDeliveryDate = &t
	}
	if t, ok := parseDynamicsDate(o.CreatedOn); ok {
		order.CreatedAt = t
	}

	for _, detail := range o.Details {
		line := canonical.OrderLine{
			LineNumber:  detail.LineItemNumber,
			ProductID:   detail.ProductID,
			ProductName: detail.ProductName,
			Quantity:    decimal.NewFromFloat(detail.Quantity),
			Unit:        detail.UOM,
			UnitPrice:   decimal.NewFromFloat(detail.PricePerUnit),
			NetAmount:   decimal.NewFromFloat(detail.ExtendedAmount),
		}
		if line.Unit == "" {
			line.Unit = canonical.DefaultUnit
		}
		order.Lines = append(order.Lines, line)
	}
	return order
}

// CustomerToCanonical maps a Dynamics account to the canonical customer
func (m Mapper) CustomerToCanonical(a *dynAccount) *canonical.Customer {
	return &canonical.Customer{
		ExternalID: a.AccountID,
		Name:       a.Name,
		Email:      a.EmailAddress,
		Phone:      a.Telephone,
		Status:     mapAccountStatus(a.StateCode, a.StatusCode),
		Currency:   canonical.DefaultCurrency,
		BillingAddress: &canonical.Address{
			Street:     a.AddressLine1,
			City:       a.AddressCity,
			Region:     a.AddressState,
			PostalCode: a.AddressPostal,
			Country:    a.AddressCountry,
		},
	}
}

// InvoiceToCanonical maps a Dynamics invoice to the canonical invoice
func (m Mapper) InvoiceToCanonical(i *dynInvoice) *canonical.Invoice {
	invoice := &canonical.Invoice{
		ExternalID:    i.InvoiceID,
		InvoiceNumber: i.InvoiceNumber,
		CustomerID:    i.CustomerID,
		Status:        mapInvoiceStatus(i.StateCode, i.StatusCode),
		Currency:      i.CurrencyCode,
		GrossAmount:   decimal.NewFromFloat(i.TotalAmount),
		TaxAmount:     decimal.NewFromFloat(i.TotalTax),
	}
	if invoice.Currency == "" {
		invoice.Currency = canonical.DefaultCurrency
	}
	invoice.NetAmount = invoice.GrossAmount.Sub(invoice.TaxAmount)

	if t, ok := parseDynamicsDate(i.CreatedOn); ok {
		invoice.IssuedAt = t
	}
	return invoice
}

// ---------------------------------------------------------------------------
// Reverse Mapping (canonical -> Dynamics)
// ---------------------------------------------------------------------------

// OrderToDynamics maps a canonical order to the Web API create payload.
// Only fields present on the canonical input are emitted.
func (m Mapper) OrderToDynamics(order *canonical.Order) map[string]any {
	payload := map[string]any{}
	if order.CustomerID != "" {
		payload["customerid"] = order.CustomerID
	}
	if order.OrderNumber != "" {
		payload["ordernumber"] = order.OrderNumber
	}
	if order.Currency != "" {
		payload["transactioncurrencyid"] = order.Currency
	}
	if order.RequestedDeliveryDate != nil {
		payload["requestdeliveryby"] = order.RequestedDeliveryDate.Format(time.RFC3339)
	}

	if len(order.Lines) > 0 {
		details := make([]map[string]any, 0, len(order.Lines))
		for _, line := range order.Lines {
			detail := map[string]any{}
			if line.LineNumber > 0 {
				detail["lineitemnumber"] = line.LineNumber
			}
			if line.ProductID != "" {
				detail["productid"] = line.ProductID
			}
			if !line.Quantity.IsZero() {
				detail["quantity"], _ = line.Quantity.Float64()
			}
			if !line.UnitPrice.IsZero() {
				detail["priceperunit"], _ = line.UnitPrice.Float64()
			}
			details = append(details, detail)
		}
		payload["order_details"] = details
	}
	return payload
}

// parseDynamicsDate parses the RFC3339 timestamps the Web API emits
func parseDynamicsDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

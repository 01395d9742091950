package sap

import (
	"strconv"
	"time"

	"github.com/b2bhub/backend/internal/domain/canonical"
)

// Mapper converts between SAP wire shapes and the canonical model. All
// functions are pure; forward mapping substitutes documented defaults for
// absent vendor fields (currency "USD", unit "EA", amounts zero) and reverse
// mapping emits only fields the canonical input provides.
type Mapper struct{}

// ---------------------------------------------------------------------------
// Status Mapping
// ---------------------------------------------------------------------------

// mapOrderStatus maps the SAP overall processing status to the canonical
// order status. Fixed table; unknown values map to OPEN.
func mapOrderStatus(status string) canonical.OrderStatus {
	switch status {
	case "A":
		return canonical.OrderStatusOpen
	case "B":
		return canonical.OrderStatusPartiallyShipped
	case "C":
		return canonical.OrderStatusCompleted
	default:
		return canonical.OrderStatusOpen
	}
}

// mapInvoiceStatus maps the SAP payment status to the canonical invoice
// status. Fixed table; unknown values map to OPEN.
func mapInvoiceStatus(status string) canonical.InvoiceStatus {
	switch status {
	case "":
		return canonical.InvoiceStatusOpen
	case "P":
		return canonical.InvoiceStatusPartiallyPaid
	case "C":
		return canonical.InvoiceStatusPaid
	case "X":
		return canonical.InvoiceStatusCancelled
	case "O":
		return canonical.InvoiceStatusOverdue
	default:
		return canonical.InvoiceStatusOpen
	}
}

// mapCustomerStatus derives the canonical customer status from the SAP
// block and deletion indicators.
func mapCustomerStatus(c *sapCustomer) canonical.CustomerStatus {
	if c.DeletionIndicator {
		return canonical.CustomerStatusInactive
	}
	if c.OrderIsBlockedForCustomer != "" {
		return canonical.CustomerStatusBlocked
	}
	return canonical.CustomerStatusActive
}

// ---------------------------------------------------------------------------
// Forward Mapping (SAP -> canonical)
// ---------------------------------------------------------------------------

// ProductToCanonical maps a SAP product to the canonical product
func (m Mapper) ProductToCanonical(p *sapProduct) *canonical.Product {
	product := &canonical.Product{
		ExternalID: p.Product,
		SKU:        p.Product,
		Name:       p.ProductDescription,
		Unit:       p.BaseUnit,
		Price:      parseDecimal(p.StandardPrice),
		Currency:   p.Currency,
		Weight:     parseDecimal(p.GrossWeight),
		WeightUnit: p.WeightUnit,
		IsActive:   !p.ProductIsMarkedForDeletion,
	}
	if product.Unit == "" {
		product.Unit = canonical.DefaultUnit
	}
	if product.Currency == "" {
		product.Currency = canonical.DefaultCurrency
	}
	return product
}

// OrderToCanonical maps a SAP sales order to the canonical order
func (m Mapper) OrderToCanonical(o *sapSalesOrder) *canonical.Order {
	order := &canonical.Order{
		ExternalID:   o.SalesOrder,
		OrderNumber:  o.PurchaseOrderByCustomer,
		CustomerID:   o.SoldToParty,
		CustomerName: o.SoldToPartyName,
		Status:       mapOrderStatus(o.OverallSDProcessStatus),
		Currency:     o.TransactionCurrency,
		NetAmount:    parseDecimal(o.TotalNetAmount),
		TaxAmount:    parseDecimal(o.TotalTaxAmount),
		Lines:        make([]canonical.OrderLine, 0, len(o.Items)),
	}
	if order.Currency == "" {
		order.Currency = canonical.DefaultCurrency
	}
	order.GrossAmount = order.NetAmount.Add(order.TaxAmount)

	if t, ok := parseSAPDate(o.RequestedDeliveryDate); ok {
		order.RequestedDeliveryDate = &t
	}
	if t, ok := parseSAPDate(o.CreationDate); ok {
		order.CreatedAt = t
	}

	for _, item := range o.Items {
		order.Lines = append(order.Lines, m.orderLineToCanonical(item))
	}
	return order
}

func (m Mapper) orderLineToCanonical(item sapSalesOrderItem) canonical.OrderLine {
	line := canonical.OrderLine{
		LineNumber:  parseLineNumber(item.SalesOrderItem),
		ProductID:   item.Material,
		ProductName: item.SalesOrderItemText,
		Quantity:    parseDecimal(item.RequestedQuantity),
		Unit:        item.RequestedQuantityUnit,
		UnitPrice:   parseDecimal(item.NetPriceAmount),
		NetAmount:   parseDecimal(item.NetAmount),
		Plant:       item.ProductionPlant,
	}
	if line.Unit == "" {
		line.Unit = canonical.DefaultUnit
	}
	return line
}

// CustomerToCanonical maps a SAP business partner to the canonical customer
func (m Mapper) CustomerToCanonical(c *sapCustomer) *canonical.Customer {
	return &canonical.Customer{
		ExternalID: c.Customer,
		Name:       c.CustomerName,
		Email:      c.EmailAddress,
		Phone:      c.TelephoneNumber1,
		Status:     mapCustomerStatus(c),
		Currency:   canonical.DefaultCurrency,
		BillingAddress: &canonical.Address{
			Street:     c.StreetName,
			City:       c.CityName,
			Region:     c.Region,
			PostalCode: c.PostalCode,
			Country:    c.Country,
		},
	}
}

// InvoiceToCanonical maps a SAP billing document to the canonical invoice
func (m Mapper) InvoiceToCanonical(i *sapInvoice) *canonical.Invoice {
	invoice := &canonical.Invoice{
		ExternalID: i.BillingDocument,
		CustomerID: i.SoldToParty,
		Status:     mapInvoiceStatus(i.PaymentStatus),
		Currency:   i.TransactionCurrency,
		NetAmount:  parseDecimal(i.TotalNetAmount),
		TaxAmount:  parseDecimal(i.TotalTaxAmount),
		Lines:      make([]canonical.InvoiceLine, 0, len(i.Items)),
	}
	if invoice.Currency == "" {
		invoice.Currency = canonical.DefaultCurrency
	}
	invoice.GrossAmount = invoice.NetAmount.Add(invoice.TaxAmount)

	if t, ok := parseSAPDate(i.BillingDocumentDate); ok {
		invoice.IssuedAt = t
	}

	for _, item := range i.Items {
		invoice.Lines = append(invoice.Lines, canonical.InvoiceLine{
			LineNumber:  parseLineNumber(item.BillingDocumentItem),
			ProductID:   item.Material,
			ProductName: item.BillingDocumentItemText,
			Quantity:    parseDecimal(item.BillingQuantity),
			NetAmount:   parseDecimal(item.NetAmount),
		})
	}
	return invoice
}

// InventoryToCanonical maps a SAP stock record to the canonical inventory
func (m Mapper) InventoryToCanonical(s *sapStock) *canonical.Inventory {
	inv := &canonical.Inventory{
		ProductID:         s.Material,
		Location:          s.Plant,
		AvailableQuantity: parseDecimal(s.MatlWrhsStkQtyInMatlBaseUnit),
		ReservedQuantity:  parseDecimal(s.ReservedQuantity),
		OnOrderQuantity:   parseDecimal(s.OnOrderQuantity),
		Unit:              s.BaseUnit,
	}
	if inv.Unit == "" {
		inv.Unit = canonical.DefaultUnit
	}
	return inv
}

// AvailabilityToCanonical maps a SAP ATP result to the canonical availability
func (m Mapper) AvailabilityToCanonical(a *sapAvailability) *canonical.Availability {
	avail := &canonical.Availability{
		ProductID:         a.Material,
		Unit:              canonical.DefaultUnit,
		RequestedQuantity: parseDecimal(a.RequestedQuantity),
		AvailableQuantity: parseDecimal(a.AvailableQuantity),
	}
	avail.IsAvailable = avail.AvailableQuantity.GreaterThanOrEqual(avail.RequestedQuantity)
	if t, ok := parseSAPDate(a.AvailabilityDate); ok {
		avail.AvailableFrom = &t
	}
	return avail
}

// ---------------------------------------------------------------------------
// Reverse Mapping (canonical -> SAP)
// ---------------------------------------------------------------------------

// OrderToSAP maps a canonical order to the SAP create payload. Only fields
// present on the canonical input are emitted.
func (m Mapper) OrderToSAP(order *canonical.Order) *sapSalesOrder {
	out := &sapSalesOrder{
		SoldToParty:             order.CustomerID,
		PurchaseOrderByCustomer: order.OrderNumber,
		TransactionCurrency:     order.Currency,
	}
	if order.RequestedDeliveryDate != nil {
		out.RequestedDeliveryDate = order.RequestedDeliveryDate.Format("2006-01-02")
	}
	for _, line := range order.Lines {
		item := sapSalesOrderItem{
			Material:              line.ProductID,
			RequestedQuantityUnit: line.Unit,
			ProductionPlant:       line.Plant,
		}
		if line.LineNumber > 0 {
			item.SalesOrderItem = strconv.Itoa(line.LineNumber)
		}
		if !line.Quantity.IsZero() {
			item.RequestedQuantity = line.Quantity.String()
		}
		if !line.UnitPrice.IsZero() {
			item.NetPriceAmount = line.UnitPrice.String()
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// parseLineNumber parses a SAP item number, returning 0 on malformed input
func parseLineNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseSAPDate parses the date formats SAP emits
func parseSAPDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

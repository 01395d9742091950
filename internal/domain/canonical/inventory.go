package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is the vendor-neutral representation of a stock position
type Inventory struct {
	// ProductID is the vendor identifier of the stocked product
	ProductID string `json:"productId,omitempty"`
	// SKU is the stock keeping unit / material number
	SKU string `json:"sku,omitempty"`
	// Location identifies the plant, warehouse or storage location
	Location string `json:"location,omitempty"`
	// AvailableQuantity is the quantity available to promise
	AvailableQuantity decimal.Decimal `json:"availableQuantity"`
	// ReservedQuantity is the quantity committed to open orders
	ReservedQuantity decimal.Decimal `json:"reservedQuantity"`
	// OnOrderQuantity is the quantity on inbound purchase orders
	OnOrderQuantity decimal.Decimal `json:"onOrderQuantity"`
	// Unit is the quantity unit (default: EA)
	Unit string `json:"unit,omitempty"`
	// AsOf is when the stock position was captured
	AsOf time.Time `json:"asOf"`
}

// Availability is the result of an availability (ATP) check
type Availability struct {
	// ProductID is the vendor identifier of the checked product
	ProductID string `json:"productId,omitempty"`
	// RequestedQuantity is the quantity that was asked for
	RequestedQuantity decimal.Decimal `json:"requestedQuantity"`
	// AvailableQuantity is the quantity that can be promised
	AvailableQuantity decimal.Decimal `json:"availableQuantity"`
	// Unit is the quantity unit (default: EA)
	Unit string `json:"unit,omitempty"`
	// IsAvailable reports whether the full requested quantity can be promised
	IsAvailable bool `json:"isAvailable"`
	// AvailableFrom is the earliest date the quantity is available, if known
	AvailableFrom *time.Time `json:"availableFrom,omitempty"`
}

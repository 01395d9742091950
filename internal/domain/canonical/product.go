package canonical

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the vendor-neutral representation of a sellable product
type Product struct {
	// ExternalID is the product identifier in the vendor system
	ExternalID string `json:"externalId,omitempty"`
	// SKU is the stock keeping unit / material number
	SKU string `json:"sku,omitempty"`
	// Name is the product description
	Name string `json:"name,omitempty"`
	// Description is the long text description
	Description string `json:"description,omitempty"`
	// Category is the vendor product category or material group
	Category string `json:"category,omitempty"`
	// Unit is the base quantity unit (default: EA)
	Unit string `json:"unit,omitempty"`
	// Price is the list price per base unit
	Price decimal.Decimal `json:"price"`
	// Currency is the price currency (default: USD)
	Currency string `json:"currency,omitempty"`
	// Weight is the gross weight per base unit
	Weight decimal.Decimal `json:"weight"`
	// WeightUnit is the weight unit (e.g. KG)
	WeightUnit string `json:"weightUnit,omitempty"`
	// IsActive indicates whether the product is sellable
	IsActive bool `json:"isActive"`
	// CreatedAt is when the product was created in the vendor system
	CreatedAt time.Time `json:"createdAt"`
}

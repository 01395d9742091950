package canonical

import "time"

// CustomerStatus represents the vendor-neutral status of a customer account
type CustomerStatus string

const (
	// CustomerStatusActive indicates a customer in good standing
	CustomerStatusActive CustomerStatus = "ACTIVE"
	// CustomerStatusBlocked indicates a customer blocked for ordering
	CustomerStatusBlocked CustomerStatus = "BLOCKED"
	// CustomerStatusInactive indicates a deactivated customer
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

// IsValid returns true if the status is valid
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusBlocked, CustomerStatusInactive:
		return true
	default:
		return false
	}
}

// String returns the string representation of CustomerStatus
func (s CustomerStatus) String() string {
	return string(s)
}

// Customer is the vendor-neutral representation of a business customer
type Customer struct {
	// ExternalID is the customer identifier in the vendor system
	ExternalID string `json:"externalId,omitempty"`
	// Name is the customer's legal or display name
	Name string `json:"name,omitempty"`
	// Status is the canonical account status
	Status CustomerStatus `json:"status,omitempty"`
	// TaxID is the customer's tax registration number
	TaxID string `json:"taxId,omitempty"`
	// Email is the primary contact email
	Email string `json:"email,omitempty"`
	// Phone is the primary contact phone number
	Phone string `json:"phone,omitempty"`
	// BillingAddress is the billing address, if known
	BillingAddress *Address `json:"billingAddress,omitempty"`
	// ShippingAddress is the default shipping address, if known
	ShippingAddress *Address `json:"shippingAddress,omitempty"`
	// PaymentTerms is the vendor payment-terms code
	PaymentTerms string `json:"paymentTerms,omitempty"`
	// Currency is the customer's trading currency (default: USD)
	Currency string `json:"currency,omitempty"`
	// CreatedAt is when the customer was created in the vendor system
	CreatedAt time.Time `json:"createdAt"`
}

// Address is a vendor-neutral postal address
type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

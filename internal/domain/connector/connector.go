package connector

import (
	"regexp"
	"time"

	"github.com/b2bhub/backend/internal/domain/shared"
)

// Type classifies the external system a connector integrates with
type Type string

const (
	// TypeERP is an enterprise resource planning system (SAP, Dynamics)
	TypeERP Type = "ERP"
	// TypeCRM is a customer relationship management system
	TypeCRM Type = "CRM"
	// TypeEcommerce is an e-commerce storefront or marketplace
	TypeEcommerce Type = "ECOMMERCE"
	// TypePayment is a payment provider
	TypePayment Type = "PAYMENT"
	// TypeLogistics is a logistics or carrier system
	TypeLogistics Type = "LOGISTICS"
	// TypeCustom is any other system type
	TypeCustom Type = "CUSTOM"
)

// IsValid returns true if the connector type is valid
func (t Type) IsValid() bool {
	switch t {
	case TypeERP, TypeCRM, TypeEcommerce, TypePayment, TypeLogistics, TypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// Direction declares which way data flows through a connector
type Direction string

const (
	// DirectionIn means data flows from the external system into the platform
	DirectionIn Direction = "IN"
	// DirectionOut means data flows from the platform to the external system
	DirectionOut Direction = "OUT"
	// DirectionBidirectional means data flows both ways
	DirectionBidirectional Direction = "BIDIRECTIONAL"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionBidirectional:
		return true
	default:
		return false
	}
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// capabilityCodePattern constrains capability codes to lowerCamelCase identifiers
var capabilityCodePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]{1,63}$`)

// IsValidCapabilityCode reports whether code is a well-formed capability code
func IsValidCapabilityCode(code string) bool {
	return capabilityCodePattern.MatchString(code)
}

// Connector is the catalog record for an installed integration plugin.
// The code is its immutable identity; operational fields are mutable.
type Connector struct {
	shared.BaseAggregateRoot
	// Code uniquely identifies the connector (e.g. "sap-s4hana")
	Code string
	// Name is the human-readable connector name
	Name string
	// Type classifies the external system
	Type Type
	// Direction declares the supported data flow
	Direction Direction
	// IsActive gates whether new capability calls are accepted
	IsActive bool
	// IsBuiltIn marks connectors registered at startup from compiled-in plugins
	IsBuiltIn bool
	// Capabilities are the operations this connector declares
	Capabilities []Capability
	// ConfigSchema describes the settings a configuration must provide
	ConfigSchema *ConfigSchema
	// RateLimit is the maximum number of calls per window (0 = unlimited)
	RateLimit int
	// RateLimitWindow is the rate limit window
	RateLimitWindow time.Duration
	// FailureThreshold is the consecutive failure count that opens the breaker
	FailureThreshold int
	// SuccessThreshold is the consecutive success count that closes the breaker
	SuccessThreshold int
}

// Default breaker thresholds applied when registration omits them.
const (
	DefaultFailureThreshold = 5
	DefaultSuccessThreshold = 2
)

// NewConnector creates a connector catalog record
func NewConnector(code, name string, typ Type, direction Direction) (*Connector, error) {
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION", "connector code is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "connector name is required")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid connector type")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid connector direction")
	}

	return &Connector{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Type:              typ,
		Direction:         direction,
		IsActive:          true,
		Capabilities:      make([]Capability, 0),
		FailureThreshold:  DefaultFailureThreshold,
		SuccessThreshold:  DefaultSuccessThreshold,
	}, nil
}

// DeclareCapabilities upserts capability declarations. A code collision with
// an existing capability on this connector overwrites the earlier declaration.
func (c *Connector) DeclareCapabilities(capabilities []Capability) error {
	for _, capability := range capabilities {
		if !IsValidCapabilityCode(capability.Code) {
			return ErrInvalidCapabilityCode
		}
	}
	for _, capability := range capabilities {
		replaced := false
		for i, existing := range c.Capabilities {
			if existing.Code == capability.Code {
				c.Capabilities[i] = capability
				replaced = true
				break
			}
		}
		if !replaced {
			c.Capabilities = append(c.Capabilities, capability)
		}
	}
	c.Touch()
	return nil
}

// HasCapability reports whether the connector declares the capability code
func (c *Connector) HasCapability(code string) bool {
	for _, capability := range c.Capabilities {
		if capability.Code == code {
			return true
		}
	}
	return false
}

// GetCapability returns the declared capability for a code
func (c *Connector) GetCapability(code string) (Capability, bool) {
	for _, capability := range c.Capabilities {
		if capability.Code == code {
			return capability, true
		}
	}
	return Capability{}, false
}

// Enable activates the connector. Idempotent.
func (c *Connector) Enable() {
	if !c.IsActive {
		c.IsActive = true
		c.Touch()
	}
}

// Disable deactivates the connector. Existing configurations remain but new
// capability calls are refused. Idempotent.
func (c *Connector) Disable() {
	if c.IsActive {
		c.IsActive = false
		c.Touch()
	}
}

// EffectiveRateLimit returns the configuration override when set, otherwise
// the connector-level rate limit.
func (c *Connector) EffectiveRateLimit(cfg *Configuration) int {
	if cfg != nil && cfg.RateLimit > 0 {
		return cfg.RateLimit
	}
	return c.RateLimit
}

package connector

// CapabilityCategory classifies how a capability executes
type CapabilityCategory string

const (
	// CategorySync is a synchronous request/response operation
	CategorySync CapabilityCategory = "SYNC"
	// CategoryAsync is an operation completed out of band
	CategoryAsync CapabilityCategory = "ASYNC"
	// CategoryBatch processes multiple records per call
	CategoryBatch CapabilityCategory = "BATCH"
	// CategoryWebhook is an inbound event delivered by the vendor
	CategoryWebhook CapabilityCategory = "WEBHOOK"
	// CategoryStream is a long-lived change feed
	CategoryStream CapabilityCategory = "STREAM"
)

// IsValid returns true if the category is valid
func (c CapabilityCategory) IsValid() bool {
	switch c {
	case CategorySync, CategoryAsync, CategoryBatch, CategoryWebhook, CategoryStream:
		return true
	default:
		return false
	}
}

// String returns the string representation of CapabilityCategory
func (c CapabilityCategory) String() string {
	return string(c)
}

// Capability is a single named operation a connector can perform.
// Declared capabilities are the contract surface; a configuration's enabled
// set is a subset gate over them.
type Capability struct {
	// Code uniquely identifies the capability within its connector
	Code string
	// Name is the human-readable capability name
	Name string
	// Category classifies the execution style
	Category CapabilityCategory
	// InputSchema describes the expected input shape
	InputSchema *ConfigSchema
	// OutputSchema describes the produced output shape
	OutputSchema *ConfigSchema
	// RequiredScopes are the credential scopes/permissions this capability needs
	RequiredScopes []string
	// IsOptional marks capabilities a configuration may leave disabled
	IsOptional bool
	// IsDeprecated marks capabilities scheduled for removal
	IsDeprecated bool
}

package connector

import "errors"

var (
	// Registry errors
	ErrConnectorNotFound     = errors.New("connector: connector not found")
	ErrConnectorCodeConflict = errors.New("connector: connector code already registered")
	ErrConnectorDisabled     = errors.New("connector: connector is disabled")
	ErrConnectorInUse        = errors.New("connector: connector is referenced by configurations")
	ErrInvalidCapabilityCode = errors.New("connector: invalid capability code")

	// Configuration errors
	ErrConfigurationNotFound = errors.New("connector: configuration not found")
	ErrConfigurationInactive = errors.New("connector: configuration is inactive")
	ErrConfigurationInUse    = errors.New("connector: configuration is in active use")
	ErrCapabilityNotEnabled  = errors.New("connector: capability not enabled for configuration")
	ErrCapabilityNotDeclared = errors.New("connector: capability not declared by connector")
	ErrConfigSchemaViolation = errors.New("connector: configuration violates connector schema")

	// Vault errors
	ErrVaultEntryNotFound  = errors.New("connector: vault entry not found")
	ErrVaultEntryInUse     = errors.New("connector: vault entry is referenced by configurations")
	ErrVaultAccessDenied   = errors.New("connector: vault access policy denied request")
	ErrVaultTenantMismatch = errors.New("connector: vault entry belongs to another tenant")

	// Execution errors
	ErrCircuitOpen       = errors.New("connector: circuit breaker is open")
	ErrCapabilityUnknown = errors.New("connector: capability not implemented by connector")
)

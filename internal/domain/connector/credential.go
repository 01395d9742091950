package connector

import (
	"time"

	"github.com/b2bhub/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CredentialType classifies the secret material stored in a vault entry
type CredentialType string

const (
	// CredentialTypeBasic is a username/password pair
	CredentialTypeBasic CredentialType = "BASIC"
	// CredentialTypeOAuth2 is an OAuth2 client credential set
	CredentialTypeOAuth2 CredentialType = "OAUTH2"
	// CredentialTypeAPIKey is a static API key
	CredentialTypeAPIKey CredentialType = "API_KEY"
	// CredentialTypeCertificate is a client certificate and key
	CredentialTypeCertificate CredentialType = "CERTIFICATE"
	// CredentialTypeCustom is any other secret shape
	CredentialTypeCustom CredentialType = "CUSTOM"
)

// IsValid returns true if the credential type is valid
func (t CredentialType) IsValid() bool {
	switch t {
	case CredentialTypeBasic, CredentialTypeOAuth2, CredentialTypeAPIKey,
		CredentialTypeCertificate, CredentialTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of CredentialType
func (t CredentialType) String() string {
	return string(t)
}

// RotationPolicy controls scheduled replacement of a vault entry's payload
type RotationPolicy struct {
	// Enabled turns rotation tracking on
	Enabled bool
	// IntervalDays is how often the payload should be rotated
	IntervalDays int
	// AutoRotate requests automatic rotation where the connector supports it
	AutoRotate bool
	// NotifyBeforeDays is the advance warning window for expiring credentials
	NotifyBeforeDays int
}

// AccessPolicy restricts who may decrypt a vault entry. Empty lists mean
// unrestricted for that dimension.
type AccessPolicy struct {
	// AllowedConnectors restricts decryption to the listed connector codes
	AllowedConnectors []string
	// AllowedUsers restricts decryption to the listed user IDs
	AllowedUsers []string
	// AllowedRoles restricts decryption to callers holding one of the roles
	AllowedRoles []string
	// MaxAccessCount caps lifetime decrypt operations (0 = unlimited)
	MaxAccessCount int
	// IPWhitelist restricts decryption to the listed source addresses
	IPWhitelist []string
}

// VaultEntry stores connector secrets encrypted at rest. The payload is
// opaque ciphertext to every component except the vault's own decrypt path.
type VaultEntry struct {
	shared.TenantAggregateRoot
	// Name is the tenant-chosen entry name
	Name string
	// Type classifies the secret material
	Type CredentialType
	// EncryptedPayload is the ciphertext produced by the vault cipher
	EncryptedPayload string
	// ExpiresAt is when the underlying secret expires, if known
	ExpiresAt *time.Time
	// RotatedAt is when the payload was last replaced
	RotatedAt *time.Time
	// LastAccessedAt is when the payload was last decrypted
	LastAccessedAt *time.Time
	// AccessCount is incremented on every successful decrypt
	AccessCount int
	// RotationPolicy controls scheduled payload replacement
	RotationPolicy RotationPolicy
	// AccessPolicy restricts who may decrypt the payload
	AccessPolicy AccessPolicy
}

// NewVaultEntry creates a vault entry shell; the encrypted payload is set by
// the vault service after encryption.
func NewVaultEntry(tenantID uuid.UUID, name string, typ CredentialType) (*VaultEntry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "tenant ID is required")
	}
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "vault entry name is required")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid credential type")
	}

	return &VaultEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Type:                typ,
	}, nil
}

// AccessRequest describes who is asking to decrypt a vault entry
type AccessRequest struct {
	// ConnectorCode is the code of the connector the secret will be handed to
	ConnectorCode string
	// UserID is the requesting user, if the call originated from a user action
	UserID string
	// Roles are the requesting user's roles
	Roles []string
	// SourceIP is the caller's source address, if known
	SourceIP string
}

// Authorize checks the access policy against a request. It returns
// ErrVaultAccessDenied when any configured restriction excludes the caller.
// Authorization happens before any counter is touched.
func (e *VaultEntry) Authorize(req AccessRequest) error {
	p := e.AccessPolicy
	if len(p.AllowedConnectors) > 0 && !containsString(p.AllowedConnectors, req.ConnectorCode) {
		return ErrVaultAccessDenied
	}
	if len(p.AllowedUsers) > 0 && req.UserID != "" && !containsString(p.AllowedUsers, req.UserID) {
		return ErrVaultAccessDenied
	}
	if len(p.AllowedRoles) > 0 {
		allowed := false
		for _, role := range req.Roles {
			if containsString(p.AllowedRoles, role) {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrVaultAccessDenied
		}
	}
	if len(p.IPWhitelist) > 0 && req.SourceIP != "" && !containsString(p.IPWhitelist, req.SourceIP) {
		return ErrVaultAccessDenied
	}
	if p.MaxAccessCount > 0 && e.AccessCount >= p.MaxAccessCount {
		return ErrVaultAccessDenied
	}
	return nil
}

// RecordAccess increments the access counter after a successful decrypt
func (e *VaultEntry) RecordAccess() {
	now := time.Now()
	e.AccessCount++
	e.LastAccessedAt = &now
	e.Touch()
}

// Rotate replaces the encrypted payload and stamps the rotation time.
// In-flight calls holding previously decrypted values are unaffected.
func (e *VaultEntry) Rotate(encryptedPayload string) {
	now := time.Now()
	e.EncryptedPayload = encryptedPayload
	e.RotatedAt = &now
	e.Touch()
}

// ExpiresWithin reports whether the entry expires inside the window
func (e *VaultEntry) ExpiresWithin(window time.Duration) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return e.ExpiresAt.Before(time.Now().Add(window))
}

// NeedsRotation reports whether the rotation policy says the payload is due
func (e *VaultEntry) NeedsRotation() bool {
	if !e.RotationPolicy.Enabled || e.RotationPolicy.IntervalDays <= 0 {
		return false
	}
	last := e.CreatedAt
	if e.RotatedAt != nil {
		last = *e.RotatedAt
	}
	due := last.AddDate(0, 0, e.RotationPolicy.IntervalDays)
	return time.Now().After(due)
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/vault"
)

// VaultService manages tenant credential entries. Secrets cross its boundary
// exactly twice: plaintext in on Create/Rotate, plaintext out on Decrypt.
// Everything else sees metadata only.
type VaultService struct {
	vaults  connector.VaultRepository
	configs connector.ConfigurationRepository
	events  connector.EventRepository
	cipher  *vault.Cipher
	logger  *zap.Logger
}

// NewVaultService creates the vault service
func NewVaultService(
	vaults connector.VaultRepository,
	configs connector.ConfigurationRepository,
	events connector.EventRepository,
	cipher *vault.Cipher,
	logger *zap.Logger,
) *VaultService {
	return &VaultService{
		vaults:  vaults,
		configs: configs,
		events:  events,
		cipher:  cipher,
		logger:  logger,
	}
}

// Create encrypts the credential payload and stores a new entry. The
// response carries metadata only.
func (s *VaultService) Create(ctx context.Context, input CreateVaultEntryInput) (*VaultEntryView, error) {
	entry, err := connector.NewVaultEntry(input.TenantID, input.Name, input.Type)
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.encrypt(input.Credentials)
	if err != nil {
		return nil, err
	}
	entry.EncryptedPayload = ciphertext
	entry.ExpiresAt = input.ExpiresAt
	entry.RotationPolicy = input.RotationPolicy
	entry.AccessPolicy = input.AccessPolicy

	if err := s.vaults.Save(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("vault entry created",
		zap.String("tenant", input.TenantID.String()),
		zap.String("entry", entry.ID.String()),
		zap.String("type", input.Type.String()))

	view := vaultEntryView(entry)
	return &view, nil
}

// Get returns one entry's metadata scoped to a tenant
func (s *VaultService) Get(ctx context.Context, tenantID, id uuid.UUID) (*VaultEntryView, error) {
	entry, err := s.vaults.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	view := vaultEntryView(entry)
	return &view, nil
}

// List returns a tenant's entry metadata
func (s *VaultService) List(ctx context.Context, tenantID uuid.UUID) ([]VaultEntryView, error) {
	entries, err := s.vaults.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	views := make([]VaultEntryView, 0, len(entries))
	for i := range entries {
		views = append(views, vaultEntryView(&entries[i]))
	}
	return views, nil
}

// Decrypt authorizes the request against the entry's access policy, then
// decrypts and returns the plaintext credentials. A denied request does not
// touch the access counter. Not exposed over HTTP; callers are the executor
// and the registry's connection test.
func (s *VaultService) Decrypt(ctx context.Context, id uuid.UUID, req connector.AccessRequest) (map[string]any, error) {
	entry, err := s.vaults.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.Authorize(req); err != nil {
		s.logger.Warn("vault access denied",
			zap.String("entry", id.String()),
			zap.String("connector", req.ConnectorCode),
			zap.String("user", req.UserID))

		// Denials are audited too, without touching the access counter
		denial := connector.NewEvent(entry.TenantID, req.ConnectorCode, nil, connector.EventCredentialAccess, map[string]any{
			"vaultEntryId": id.String(),
			"userId":       req.UserID,
			"denied":       true,
			"reason":       err.Error(),
		})
		if appendErr := s.events.Append(ctx, denial); appendErr != nil {
			s.logger.Warn("failed to append access denial event", zap.Error(appendErr))
		}
		return nil, err
	}

	credentials, err := s.decrypt(entry.EncryptedPayload)
	if err != nil {
		return nil, err
	}

	entry.RecordAccess()
	if err := s.vaults.Save(ctx, entry); err != nil {
		s.logger.Warn("failed to persist access counter",
			zap.String("entry", id.String()), zap.Error(err))
	}

	event := connector.NewEvent(entry.TenantID, req.ConnectorCode, nil, connector.EventCredentialAccess, map[string]any{
		"vaultEntryId": id.String(),
		"userId":       req.UserID,
		"accessCount":  entry.AccessCount,
	})
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append access event", zap.Error(err))
	}

	return credentials, nil
}

// Rotate replaces the entry's payload with freshly encrypted credentials.
// Executions already holding decrypted values keep using them.
func (s *VaultService) Rotate(ctx context.Context, tenantID, id uuid.UUID, credentials map[string]any) (*VaultEntryView, error) {
	entry, err := s.vaults.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	ciphertext, err := s.encrypt(credentials)
	if err != nil {
		return nil, err
	}
	entry.Rotate(ciphertext)

	if err := s.vaults.Save(ctx, entry); err != nil {
		return nil, err
	}

	event := connector.NewEvent(tenantID, "", nil, connector.EventCredentialRotate, map[string]any{
		"vaultEntryId": id.String(),
	})
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append rotation event", zap.Error(err))
	}

	s.logger.Info("vault entry rotated",
		zap.String("tenant", tenantID.String()),
		zap.String("entry", id.String()))

	view := vaultEntryView(entry)
	return &view, nil
}

// GetExpiring returns entries expiring within the window
func (s *VaultService) GetExpiring(ctx context.Context, tenantID uuid.UUID, window time.Duration) ([]VaultEntryView, error) {
	entries, err := s.vaults.FindExpiring(ctx, tenantID, time.Now().Add(window))
	if err != nil {
		return nil, err
	}
	views := make([]VaultEntryView, 0, len(entries))
	for i := range entries {
		views = append(views, vaultEntryView(&entries[i]))
	}
	return views, nil
}

// GetNeedingRotation returns entries whose rotation policy says the payload
// is overdue
func (s *VaultService) GetNeedingRotation(ctx context.Context, tenantID uuid.UUID) ([]VaultEntryView, error) {
	entries, err := s.vaults.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	views := make([]VaultEntryView, 0)
	for i := range entries {
		if entries[i].NeedsRotation() {
			views = append(views, vaultEntryView(&entries[i]))
		}
	}
	return views, nil
}

// Delete removes an entry that no configuration references
func (s *VaultService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	entry, err := s.vaults.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}

	count, err := s.configs.CountByVaultEntry(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d configurations reference %s", connector.ErrVaultEntryInUse, count, entry.Name)
	}

	return s.vaults.Delete(ctx, id)
}

func (s *VaultService) encrypt(credentials map[string]any) (string, error) {
	plaintext, err := json.Marshal(credentials)
	if err != nil {
		return "", fmt.Errorf("vault: marshal credentials: %w", err)
	}
	return s.cipher.Encrypt(plaintext)
}

func (s *VaultService) decrypt(ciphertext string) (map[string]any, error) {
	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		return nil, err
	}
	var credentials map[string]any
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return nil, fmt.Errorf("vault: unmarshal credentials: %w", err)
	}
	return credentials, nil
}

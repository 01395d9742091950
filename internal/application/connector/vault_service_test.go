package connector

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/vault"
)

func newTestCipher(t *testing.T) *vault.Cipher {
	t.Helper()
	cipher, err := vault.NewCipher("test-master-secret-0123456789")
	require.NoError(t, err)
	return cipher
}

func newVaultFixture(t *testing.T) (*VaultService, *MockVaultRepository, *MockConfigurationRepository, *recordingEventRepo) {
	vaults := new(MockVaultRepository)
	configs := new(MockConfigurationRepository)
	events := &recordingEventRepo{}
	service := NewVaultService(vaults, configs, events, newTestCipher(t), newTestLogger())
	return service, vaults, configs, events
}

func TestVaultService_Create(t *testing.T) {
	service, vaults, _, _ := newVaultFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()

	var saved *connector.VaultEntry
	vaults.On("Save", ctx, mock.AnythingOfType("*connector.VaultEntry")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*connector.VaultEntry) }).
		Return(nil)

	view, err := service.Create(ctx, CreateVaultEntryInput{
		TenantID:    tenantID,
		Name:        "sap-prod-credentials",
		Type:        connector.CredentialTypeBasic,
		Credentials: map[string]any{"username": "svc-b2b", "password": "hunter2"},
	})
	require.NoError(t, err)

	assert.Equal(t, "sap-prod-credentials", view.Name)
	assert.Equal(t, tenantID, view.TenantID)
	assert.Zero(t, view.AccessCount)

	// Ciphertext is stored; plaintext never is.
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.EncryptedPayload)
	assert.NotContains(t, saved.EncryptedPayload, "hunter2")
	vaults.AssertExpectations(t)
}

func TestVaultService_Decrypt(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	newEntry := func(t *testing.T, service *VaultService, policy connector.AccessPolicy) *connector.VaultEntry {
		entry, err := connector.NewVaultEntry(tenantID, "creds", connector.CredentialTypeOAuth2)
		require.NoError(t, err)
		ciphertext, err := service.encrypt(map[string]any{"clientId": "cid", "clientSecret": "cs"})
		require.NoError(t, err)
		entry.EncryptedPayload = ciphertext
		entry.AccessPolicy = policy
		return entry
	}

	t.Run("returns plaintext and bumps the access counter", func(t *testing.T) {
		service, vaults, _, events := newVaultFixture(t)
		entry := newEntry(t, service, connector.AccessPolicy{})

		vaults.On("FindByID", ctx, entry.ID).Return(entry, nil)
		vaults.On("Save", ctx, entry).Return(nil)

		credentials, err := service.Decrypt(ctx, entry.ID, connector.AccessRequest{ConnectorCode: "sap-s4hana"})
		require.NoError(t, err)

		assert.Equal(t, "cid", credentials["clientId"])
		assert.Equal(t, 1, entry.AccessCount)
		require.Len(t, events.events, 1)
		assert.Equal(t, connector.EventCredentialAccess, events.events[0].Type)
	})

	t.Run("denied request does not touch the counter but is audited", func(t *testing.T) {
		service, vaults, _, events := newVaultFixture(t)
		entry := newEntry(t, service, connector.AccessPolicy{
			AllowedConnectors: []string{"dynamics-365"},
		})

		vaults.On("FindByID", ctx, entry.ID).Return(entry, nil)

		_, err := service.Decrypt(ctx, entry.ID, connector.AccessRequest{ConnectorCode: "sap-s4hana"})
		assert.ErrorIs(t, err, connector.ErrVaultAccessDenied)
		assert.Zero(t, entry.AccessCount)
		vaults.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

		require.Len(t, events.events, 1)
		assert.Equal(t, connector.EventCredentialAccess, events.events[0].Type)
		assert.Equal(t, true, events.events[0].Details["denied"])
		assert.NotEmpty(t, events.events[0].Details["reason"])
	})

	t.Run("max access count exhausts", func(t *testing.T) {
		service, vaults, _, _ := newVaultFixture(t)
		entry := newEntry(t, service, connector.AccessPolicy{MaxAccessCount: 1})

		vaults.On("FindByID", ctx, entry.ID).Return(entry, nil)
		vaults.On("Save", ctx, entry).Return(nil)

		_, err := service.Decrypt(ctx, entry.ID, connector.AccessRequest{})
		require.NoError(t, err)

		_, err = service.Decrypt(ctx, entry.ID, connector.AccessRequest{})
		assert.ErrorIs(t, err, connector.ErrVaultAccessDenied)
		assert.Equal(t, 1, entry.AccessCount)
	})
}

func TestVaultService_Rotate(t *testing.T) {
	service, vaults, _, events := newVaultFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()

	entry, err := connector.NewVaultEntry(tenantID, "creds", connector.CredentialTypeAPIKey)
	require.NoError(t, err)
	original, err := service.encrypt(map[string]any{"apiKey": "old"})
	require.NoError(t, err)
	entry.EncryptedPayload = original

	vaults.On("FindByIDForTenant", ctx, tenantID, entry.ID).Return(entry, nil)
	vaults.On("Save", ctx, entry).Return(nil)

	view, err := service.Rotate(ctx, tenantID, entry.ID, map[string]any{"apiKey": "new"})
	require.NoError(t, err)

	assert.NotEqual(t, original, entry.EncryptedPayload)
	assert.NotNil(t, view.RotatedAt)
	require.Len(t, events.events, 1)
	assert.Equal(t, connector.EventCredentialRotate, events.events[0].Type)

	rotated, err := service.decrypt(entry.EncryptedPayload)
	require.NoError(t, err)
	assert.Equal(t, "new", rotated["apiKey"])
}

func TestVaultService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("refuses while configurations reference the entry", func(t *testing.T) {
		service, vaults, configs, _ := newVaultFixture(t)
		entry, _ := connector.NewVaultEntry(tenantID, "creds", connector.CredentialTypeBasic)

		vaults.On("FindByIDForTenant", ctx, tenantID, entry.ID).Return(entry, nil)
		configs.On("CountByVaultEntry", ctx, entry.ID).Return(int64(2), nil)

		err := service.Delete(ctx, tenantID, entry.ID)
		assert.ErrorIs(t, err, connector.ErrVaultEntryInUse)
		vaults.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes an unreferenced entry", func(t *testing.T) {
		service, vaults, configs, _ := newVaultFixture(t)
		entry, _ := connector.NewVaultEntry(tenantID, "creds", connector.CredentialTypeBasic)

		vaults.On("FindByIDForTenant", ctx, tenantID, entry.ID).Return(entry, nil)
		configs.On("CountByVaultEntry", ctx, entry.ID).Return(int64(0), nil)
		vaults.On("Delete", ctx, entry.ID).Return(nil)

		assert.NoError(t, service.Delete(ctx, tenantID, entry.ID))
		vaults.AssertExpectations(t)
	})
}

func TestVaultService_GetNeedingRotation(t *testing.T) {
	service, vaults, _, _ := newVaultFixture(t)
	ctx := context.Background()
	tenantID := uuid.New()

	due, _ := connector.NewVaultEntry(tenantID, "stale", connector.CredentialTypeBasic)
	due.RotationPolicy = connector.RotationPolicy{Enabled: true, IntervalDays: 30}
	due.CreatedAt = time.Now().AddDate(0, 0, -45)

	fresh, _ := connector.NewVaultEntry(tenantID, "fresh", connector.CredentialTypeBasic)
	fresh.RotationPolicy = connector.RotationPolicy{Enabled: true, IntervalDays: 30}

	vaults.On("FindByTenant", ctx, tenantID).Return([]connector.VaultEntry{*due, *fresh}, nil)

	views, err := service.GetNeedingRotation(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "stale", views[0].Name)
}

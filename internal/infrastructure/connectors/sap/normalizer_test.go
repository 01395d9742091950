package sap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/infrastructure/resilience"
)

func TestNormalize(t *testing.T) {
	t.Run("uses the OData message with status precedence", func(t *testing.T) {
		body := []byte(`{"error":{"code":"/IWBEP/CM_MGW_RT/021","message":{"value":"Resource not found"}}}`)
		err := Normalize(nil, 404, body, "")
		require.NotNil(t, err)
		assert.Equal(t, resilience.CategoryNotFound, err.Category)
		assert.Equal(t, "Resource not found", err.Message)
	})

	t.Run("promotes known message classes to business rule", func(t *testing.T) {
		body := []byte(`{"error":{"code":"V4/219","message":{"value":"Customer 1000042 is blocked for orders"}}}`)
		err := Normalize(nil, 400, body, "")
		require.NotNil(t, err)
		assert.Equal(t, resilience.CategoryBusinessRule, err.Category)
		assert.False(t, err.Retryable())
		assert.Equal(t, "Customer 1000042 is blocked for orders", err.UserMessage())
	})

	t.Run("collects field-level validation details", func(t *testing.T) {
		body := []byte(`{"error":{"code":"VALIDATION","message":{"value":"Invalid request"},` +
			`"innererror":{"errordetails":[{"code":"F1","message":"Currency XTS is not supported","target":"TransactionCurrency"}]}}}`)
		err := Normalize(nil, 400, body, "")
		require.NotNil(t, err)
		assert.Equal(t, resilience.CategoryValidation, err.Category)
		assert.Equal(t, "Currency XTS is not supported", err.FieldErrors["TransactionCurrency"])
	})

	t.Run("honors Retry-After on throttling", func(t *testing.T) {
		err := Normalize(nil, 429, nil, "12")
		require.NotNil(t, err)
		assert.Equal(t, resilience.CategoryRateLimit, err.Category)
		assert.Equal(t, 12*time.Second, err.RetryAfter)
	})

	t.Run("malformed body falls back to the status mapping", func(t *testing.T) {
		err := Normalize(nil, 500, []byte("<html>dispatcher error</html>"), "")
		require.NotNil(t, err)
		assert.Equal(t, resilience.CategorySystem, err.Category)
		assert.True(t, err.Retryable())
	})
}

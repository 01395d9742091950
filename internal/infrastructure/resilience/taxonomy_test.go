package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_StatusMapping(t *testing.T) {
	cases := []struct {
		status   int
		expected Category
	}{
		{401, CategoryAuthentication},
		{403, CategoryAuthorization},
		{404, CategoryNotFound},
		{400, CategoryValidation},
		{422, CategoryValidation},
		{409, CategoryConflict},
		{429, CategoryRateLimit},
		{408, CategoryTimeout},
		{504, CategoryTimeout},
		{500, CategorySystem},
		{502, CategorySystem},
		{503, CategorySystem},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("status %d", tc.status), func(t *testing.T) {
			result := Classify(errors.New("vendor says no"), tc.status)
			assert.Equal(t, tc.expected, result.Category)
			assert.Equal(t, tc.status, result.HTTPStatus)
		})
	}
}

func TestClassify_StatusTakesPrecedenceOverMessage(t *testing.T) {
	// A 401 body that happens to mention "timeout" must still classify
	// by status.
	result := Classify(errors.New("session timeout, please re-authenticate"), 401)
	assert.Equal(t, CategoryAuthentication, result.Category)
}

func TestClassify_MessageHeuristics(t *testing.T) {
	t.Run("connection errors map to network", func(t *testing.T) {
		result := Classify(errors.New("dial tcp 10.0.0.5:443: connection refused"), 0)
		assert.Equal(t, CategoryNetwork, result.Category)
		assert.True(t, result.Retryable())
	})

	t.Run("deadline exceeded maps to timeout", func(t *testing.T) {
		result := Classify(errors.New("context deadline exceeded"), 0)
		assert.Equal(t, CategoryTimeout, result.Category)
	})

	t.Run("unrecognized errors map to unknown", func(t *testing.T) {
		result := Classify(errors.New("something odd happened"), 0)
		assert.Equal(t, CategoryUnknown, result.Category)
		assert.False(t, result.Retryable())
	})
}

func TestClassify_PassesThroughConnectorError(t *testing.T) {
	original := &ConnectorError{Category: CategoryBusinessRule, Message: "credit limit exceeded"}
	result := Classify(fmt.Errorf("call failed: %w", original), 0)
	assert.Same(t, original, result)
}

func TestCategory_Retryable(t *testing.T) {
	retryable := []Category{CategoryNetwork, CategoryTimeout, CategorySystem, CategoryRateLimit, CategoryConflict}
	for _, c := range retryable {
		assert.True(t, c.Retryable(), c)
	}

	terminal := []Category{
		CategoryAuthentication, CategoryAuthorization, CategoryNotFound,
		CategoryValidation, CategoryBusinessRule, CategoryUnknown,
	}
	for _, c := range terminal {
		assert.False(t, c.Retryable(), c)
	}
}

func TestConnectorError_UserMessage(t *testing.T) {
	t.Run("business rule surfaces the vendor message", func(t *testing.T) {
		err := &ConnectorError{Category: CategoryBusinessRule, Message: "Customer 1000042 is blocked for orders"}
		assert.Equal(t, "Customer 1000042 is blocked for orders", err.UserMessage())
	})

	t.Run("validation surfaces field errors", func(t *testing.T) {
		err := &ConnectorError{
			Category:    CategoryValidation,
			Message:     "bad request",
			FieldErrors: map[string]string{"currency": "unsupported currency XTS"},
		}
		assert.Contains(t, err.UserMessage(), "currency: unsupported currency XTS")
	})

	t.Run("system uses a generic template", func(t *testing.T) {
		err := &ConnectorError{Category: CategorySystem, Message: "ABAP dump CX_SY_ZERODIVIDE"}
		msg := err.UserMessage()
		assert.NotContains(t, msg, "ABAP")
		assert.NotEmpty(t, msg)
	})
}

func TestConnectorError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	classified := Classify(cause, 0)
	require.NotNil(t, classified)
	assert.ErrorIs(t, classified, cause)
}

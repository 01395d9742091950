package dynamics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bhub/backend/internal/domain/canonical"
	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
	"github.com/b2bhub/backend/internal/infrastructure/token"
)

// newTestServer serves a token endpoint at /oauth/token and delegates
// everything else to handler.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-dyn","token_type":"Bearer","expires_in":3600}`))
			return
		}
		assert.Equal(t, "Bearer tok-dyn", r.Header.Get("Authorization"))
		handler(w, r)
	}))
}

func testExecCtx(baseURL string) connector.ExecutionContext {
	return connector.ExecutionContext{
		TenantID: uuid.New(),
		ConfigID: uuid.New(),
		Config: map[string]any{
			"baseUrl":  baseURL,
			"tokenUrl": baseURL + "/oauth/token",
		},
		Credentials: map[string]any{"clientId": "cid", "clientSecret": "cs"},
	}
}

func TestConnector_GetProduct(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/api/data/v9.2/products")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"productid":"prod-1","productnumber":"MAT-1","name":"Hex bolts M8","price":3.0,"statecode":0}`))
	})
	defer server.Close()

	conn := New(token.NewCache(0))
	result, err := conn.ExecuteCapability(context.Background(), "getProduct",
		map[string]any{"productId": "prod-1"}, testExecCtx(server.URL))
	require.NoError(t, err)

	product, ok := result.Data.(*canonical.Product)
	require.True(t, ok)
	assert.Equal(t, "MAT-1", product.SKU)
	assert.True(t, product.IsActive)
	assert.Equal(t, canonical.DefaultCurrency, product.Currency)
}

func TestConnector_CreateSalesOrder_BusinessRule(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"0x8004F001","message":"Account is on credit hold"}}`))
	})
	defer server.Close()

	conn := New(token.NewCache(0))
	_, err := conn.ExecuteCapability(context.Background(), "createSalesOrder",
		map[string]any{
			"customerId": "acc-42",
			"lines":      []any{map[string]any{"productId": "prod-1", "quantity": 5}},
		}, testExecCtx(server.URL))
	require.Error(t, err)

	var connErr *resilience.ConnectorError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, resilience.CategoryBusinessRule, connErr.Category)
	assert.Equal(t, "Account is on credit hold", connErr.UserMessage())
	assert.False(t, connErr.Retryable())
}

func TestConnector_RateLimitCarriesRetryAfter(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":"0x80072322","message":"Rate limit exceeded"}}`))
	})
	defer server.Close()

	conn := New(token.NewCache(0))
	_, err := conn.ExecuteCapability(context.Background(), "getProduct",
		map[string]any{"productId": "prod-1"}, testExecCtx(server.URL))
	require.Error(t, err)

	var connErr *resilience.ConnectorError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, resilience.CategoryRateLimit, connErr.Category)
	assert.Equal(t, 7*time.Second, connErr.RetryAfter)
	assert.True(t, connErr.Retryable())
}

func TestConnector_RequiresTokenURL(t *testing.T) {
	conn := New(token.NewCache(0))
	_, err := conn.ExecuteCapability(context.Background(), "getProduct",
		map[string]any{"productId": "prod-1"}, connector.ExecutionContext{
			Config: map[string]any{"baseUrl": "https://dyn.example.com"},
		})
	assert.Error(t, err)
}

func TestConnector_HandleWebhook(t *testing.T) {
	conn := New(token.NewCache(0))
	body := []byte(`{"eventType":"salesorder.updated","data":{"salesorderid":"a1b2c3"}}`)

	signToken := func(secret string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"iss": "dynamics-365",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := tok.SignedString([]byte(secret))
		require.NoError(t, err)
		return signed
	}

	execCtx := connector.ExecutionContext{
		Config: map[string]any{"webhookSecret": "whsec"},
	}

	t.Run("valid token decodes the event", func(t *testing.T) {
		result := conn.HandleWebhook(context.Background(), connector.WebhookPayload{
			Data:      body,
			Signature: signToken("whsec"),
		}, execCtx)

		require.True(t, result.Valid)
		assert.Equal(t, "salesorder.updated", result.EventType)
		assert.Equal(t, "a1b2c3", result.Data["salesorderid"])
	})

	t.Run("token signed with the wrong secret fails closed", func(t *testing.T) {
		result := conn.HandleWebhook(context.Background(), connector.WebhookPayload{
			Data:      body,
			Signature: signToken("attacker"),
		}, execCtx)

		assert.False(t, result.Valid)
		assert.Nil(t, result.Data)
	})

	t.Run("expired token fails closed", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := tok.SignedString([]byte("whsec"))
		require.NoError(t, err)

		result := conn.HandleWebhook(context.Background(), connector.WebhookPayload{
			Data:      body,
			Signature: signed,
		}, execCtx)
		assert.False(t, result.Valid)
	})

	t.Run("missing token fails closed", func(t *testing.T) {
		result := conn.HandleWebhook(context.Background(), connector.WebhookPayload{Data: body}, execCtx)
		assert.False(t, result.Valid)
	})
}

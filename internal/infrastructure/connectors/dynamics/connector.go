// Package dynamics implements the Microsoft Dynamics 365 connector. It
// speaks a Web-API-style JSON dialect with OAuth2 client-credentials auth
// and validates inbound webhooks as HS256 JWTs.
package dynamics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/b2bhub/backend/internal/domain/canonical"
	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
	"github.com/b2bhub/backend/internal/infrastructure/token"
)

// Code is the connector code the Dynamics plugin registers under
const Code = "dynamics-365"

// Connector implements the Dynamics 365 plugin
type Connector struct {
	mapper     Mapper
	tokens     *token.Cache
	httpClient *http.Client
}

// Option customizes the connector construction
type Option func(*Connector)

// WithHTTPClient overrides the HTTP client (used by tests)
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) { c.httpClient = client }
}

// New creates the Dynamics connector
func New(tokens *token.Cache, opts ...Option) *Connector {
	c := &Connector{tokens: tokens}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metadata describes the connector to the registry
func (c *Connector) Metadata() connector.Metadata {
	return connector.Metadata{
		Code:        Code,
		Name:        "Microsoft Dynamics 365",
		Version:     "1.0.0",
		Type:        connector.TypeERP,
		Direction:   connector.DirectionBidirectional,
		Description: "Dynamics 365 sales and billing integration",
	}
}

// CredentialRequirements declares the secret fields Dynamics credentials carry
func (c *Connector) CredentialRequirements() []connector.CredentialRequirement {
	return []connector.CredentialRequirement{
		{Key: "clientId", Label: "Application (client) ID", Required: true, Secret: false},
		{Key: "clientSecret", Label: "Client secret", Required: true, Secret: true},
	}
}

// ConfigSchema describes the settings a Dynamics configuration must provide
func (c *Connector) ConfigSchema() *connector.ConfigSchema {
	minTimeout := 1.0
	maxTimeout := 300.0
	return connector.ObjectSchema(map[string]connector.PropertySchema{
		"baseUrl": {
			Type:        "string",
			Title:       "Environment URL",
			Description: "Root URL of the Dynamics 365 environment",
			Format:      "uri",
		},
		"tokenUrl": {
			Type:   "string",
			Title:  "OAuth token URL",
			Format: "uri",
		},
		"apiVersion": {
			Type:    "string",
			Title:   "Web API version",
			Default: "v9.2",
		},
		"timeoutSeconds": {
			Type:    "integer",
			Title:   "Request timeout",
			Default: 30,
			Minimum: &minTimeout,
			Maximum: &maxTimeout,
		},
	}, "baseUrl", "tokenUrl")
}

// Capabilities declares the operations the Dynamics connector performs
func (c *Connector) Capabilities() []connector.Capability {
	return []connector.Capability{
		{Code: "getProduct", Name: "Get Product", Category: connector.CategorySync},
		{Code: "listProducts", Name: "List Products", Category: connector.CategorySync},
		{Code: "createSalesOrder", Name: "Create Sales Order", Category: connector.CategorySync},
		{Code: "getCustomer", Name: "Get Customer", Category: connector.CategorySync},
		{Code: "getInvoice", Name: "Get Invoice", Category: connector.CategorySync},
	}
}

// Initialize prepares the plugin; the Dynamics connector holds no startup state
func (c *Connector) Initialize(ctx context.Context) error {
	return nil
}

// TestConnection probes the WhoAmI function
func (c *Connector) TestConnection(ctx context.Context, execCtx connector.ExecutionContext) connector.TestResult {
	start := time.Now()
	cl, err := newClient(execCtx, c.tokens, c.httpClient)
	if err != nil {
		return connector.TestResult{Success: false, Message: err.Error()}
	}
	if connErr := cl.get(ctx, "/WhoAmI", nil, nil); connErr != nil {
		return connector.TestResult{
			Success: false,
			Message: connErr.UserMessage(),
			Latency: time.Since(start),
		}
	}
	return connector.TestResult{
		Success: true,
		Message: "connected",
		Latency: time.Since(start),
	}
}

// ExecuteCapability dispatches one named operation
func (c *Connector) ExecuteCapability(ctx context.Context, code string, input map[string]any, execCtx connector.ExecutionContext) (*connector.ExecutionResult, error) {
	cl, err := newClient(execCtx, c.tokens, c.httpClient)
	if err != nil {
		return nil, err
	}

	switch code {
	case "getProduct":
		return c.getProduct(ctx, cl, input)
	case "listProducts":
		return c.listProducts(ctx, cl, input)
	case "createSalesOrder":
		return c.createSalesOrder(ctx, cl, input)
	case "getCustomer":
		return c.getCustomer(ctx, cl, input)
	case "getInvoice":
		return c.getInvoice(ctx, cl, input)
	default:
		return nil, fmt.Errorf("%w: %s", connector.ErrCapabilityUnknown, code)
	}
}

// ---------------------------------------------------------------------------
// Capability Implementations
// ---------------------------------------------------------------------------

func (c *Connector) getProduct(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	productID, err := requireString(input, "productId")
	if err != nil {
		return nil, err
	}

	var product dynProduct
	path := fmt.Sprintf("/products(%s)", url.PathEscape(productID))
	if connErr := cl.get(ctx, path, nil, &product); connErr != nil {
		return nil, connErr
	}
	return &connector.ExecutionResult{Data: c.mapper.ProductToCanonical(&product)}, nil
}

func (c *Connector) listProducts(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	query := url.Values{}
	if top, ok := input["limit"].(float64); ok && top > 0 {
		query.Set("$top", fmt.Sprintf("%d", int(top)))
	}

	var response listResponse[dynProduct]
	if connErr := cl.get(ctx, "/products", query, &response); connErr != nil {
		return nil, connErr
	}

	products := make([]*canonical.Product, 0, len(response.Value))
	for i := range response.Value {
		products = append(products, c.mapper.ProductToCanonical(&response.Value[i]))
	}
	return &connector.ExecutionResult{
		Data:     products,
		Metadata: map[string]any{"count": len(products)},
	}, nil
}

func (c *Connector) createSalesOrder(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	order, err := decodeOrder(input)
	if err != nil {
		return nil, err
	}

	payload := c.mapper.OrderToDynamics(order)
	var created dynSalesOrder
	if connErr := cl.post(ctx, "/salesorders", payload, &created); connErr != nil {
		return nil, connErr
	}
	return &connector.ExecutionResult{Data: c.mapper.OrderToCanonical(&created)}, nil
}

func (c *Connector) getCustomer(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	customerID, err := requireString(input, "customerId")
	if err != nil {
		return nil, err
	}

	var account dynAccount
	path := fmt.Sprintf("/accounts(%s)", url.PathEscape(customerID))
	if connErr := cl.get(ctx, path, nil, &account); connErr != nil {
		return nil, connErr
	}
	return &connector.ExecutionResult{Data: c.mapper.CustomerToCanonical(&account)}, nil
}

func (c *Connector) getInvoice(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	invoiceID, err := requireString(input, "invoiceId")
	if err != nil {
		return nil, err
	}

	var invoice dynInvoice
	path := fmt.Sprintf("/invoices(%s)", url.PathEscape(invoiceID))
	if connErr := cl.get(ctx, path, nil, &invoice); connErr != nil {
		return nil, connErr
	}
	return &connector.ExecutionResult{Data: c.mapper.InvoiceToCanonical(&invoice)}, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// HandleWebhook validates the payload signature as an HS256 JWT signed with
// the configured webhook secret. Verification fails closed.
func (c *Connector) HandleWebhook(ctx context.Context, payload connector.WebhookPayload, execCtx connector.ExecutionContext) connector.WebhookResult {
	secret, _ := execCtx.Config["webhookSecret"].(string)
	if secret == "" {
		return connector.WebhookResult{Valid: false, Error: "webhook secret is not configured"}
	}
	if payload.Signature == "" {
		return connector.WebhookResult{Valid: false, Error: "missing signature token"}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(payload.Signature, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return connector.WebhookResult{Valid: false, Error: "signature validation failed"}
	}

	var event struct {
		EventType string         `json:"eventType"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload.Data, &event); err != nil {
		return connector.WebhookResult{Valid: false, Error: "malformed event body"}
	}

	eventType := event.EventType
	if eventType == "" {
		eventType = payload.EventType
	}
	return connector.WebhookResult{
		Valid:     true,
		EventType: eventType,
		Data:      event.Data,
	}
}

// ---------------------------------------------------------------------------
// Input Helpers
// ---------------------------------------------------------------------------

func requireString(input map[string]any, key string) (string, error) {
	value, _ := input[key].(string)
	if value == "" {
		return "", &resilience.ConnectorError{
			Category: resilience.CategoryValidation,
			Message:  key + " is required",
		}
	}
	return value, nil
}

func decodeOrder(input map[string]any) (*canonical.Order, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryValidation, Message: "malformed order input"}
	}
	var order canonical.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryValidation, Message: "malformed order input: " + err.Error()}
	}
	if order.CustomerID == "" {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryValidation, Message: "customerId is required"}
	}
	if len(order.Lines) == 0 {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryValidation, Message: "at least one order line is required"}
	}
	return &order, nil
}

var (
	_ connector.Plugin         = (*Connector)(nil)
	_ connector.WebhookHandler = (*Connector)(nil)
)

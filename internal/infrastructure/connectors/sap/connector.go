// Package sap implements the SAP S/4HANA connector. It speaks an
// OData-style JSON dialect against the configured gateway, maps payloads to
// the canonical model, and normalizes vendor failures into the shared
// taxonomy.
package sap

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/b2bhub/backend/internal/domain/canonical"
	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
	"github.com/b2bhub/backend/internal/infrastructure/token"
)

// Code is the connector code the SAP plugin registers under
const Code = "sap-s4hana"

// Connector implements the SAP S/4HANA plugin
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

// New creates the SAP connector
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
		Name:        "SAP S/4HANA",
		Version:     "1.0.0",
		Type:        connector.TypeERP,
		Direction:   connector.DirectionBidirectional,
		Description: "SAP S/4HANA sales, billing and inventory integration",
	}
}

// CredentialRequirements declares the secret fields SAP credentials carry
func (c *Connector) CredentialRequirements() []connector.CredentialRequirement {
	return []connector.CredentialRequirement{
		{Key: "username", Label: "Username", Required: false, Secret: false},
		{Key: "password", Label: "Password", Required: false, Secret: true},
		{Key: "clientId", Label: "OAuth Client ID", Required: false, Secret: false},
		{Key: "clientSecret", Label: "OAuth Client Secret", Required: false, Secret: true},
	}
}

// ConfigSchema describes the settings a SAP configuration must provide
func (c *Connector) ConfigSchema() *connector.ConfigSchema {
	minTimeout := 1.0
	maxTimeout := 300.0
	return connector.ObjectSchema(map[string]connector.PropertySchema{
		"baseUrl": {
			Type:        "string",
			Title:       "Gateway base URL",
			Description: "Root URL of the S/4HANA OData gateway",
			Format:      "uri",
		},
		"client": {
			Type:        "string",
			Title:       "SAP client",
			Pattern:     `^\d{3}$`,
			Description: "Three-digit SAP client number",
		},
		"authType": {
			Type:    "string",
			Title:   "Authentication type",
			Enum:    []string{"basic", "oauth2"},
			Default: "basic",
		},
		"tokenUrl": {
			Type:   "string",
			Title:  "OAuth token URL",
			Format: "uri",
		},
		"timeoutSeconds": {
			Type:    "integer",
			Title:   "Request timeout",
			Default: 30,
			Minimum: &minTimeout,
			Maximum: &maxTimeout,
		},
		"salesOrganization": {
			Type:  "string",
			Title: "Sales organization",
		},
	}, "baseUrl")
}

// Capabilities declares the operations the SAP connector performs
func (c *Connector) Capabilities() []connector.Capability {
	return []connector.Capability{
		{Code: "getProduct", Name: "Get Product", Category: connector.CategorySync},
		{Code: "listProducts", Name: "List Products", Category: connector.CategorySync},
		{Code: "createSalesOrder", Name: "Create Sales Order", Category: connector.CategorySync},
		{Code: "getSalesOrder", Name: "Get Sales Order", Category: connector.CategorySync},
		{Code: "getCustomer", Name: "Get Customer", Category: connector.CategorySync},
		{Code: "getInventory", Name: "Get Inventory", Category: connector.CategorySync},
		{Code: "checkAvailability", Name: "Check Availability", Category: connector.CategorySync},
		{Code: "getInvoice", Name: "Get Invoice", Category: connector.CategorySync},
	}
}

// Initialize prepares the plugin; the SAP connector holds no startup state
func (c *Connector) Initialize(ctx context.Context) error {
	return nil
}

// TestConnection probes the gateway service document
func (c *Connector) TestConnection(ctx context.Context, execCtx connector.ExecutionContext) connector.TestResult {
	start := time.Now()
	cl, err := newClient(execCtx, c.tokens, c.httpClient)
	if err != nil {
		return connector.TestResult{Success: false, Message: err.Error()}
	}
	if connErr := cl.get(ctx, "/sap/opu/odata/sap/API_PRODUCT_SRV/", nil, nil); connErr != nil {
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
	case "getSalesOrder":
		return c.getSalesOrder(ctx, cl, input)
	case "getCustomer":
		return c.getCustomer(ctx, cl, input)
	case "getInventory":
		return c.getInventory(ctx, cl, input)
	case "checkAvailability":
		return c.checkAvailability(ctx, cl, input)
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

	var envelope singleEnvelope[sapProduct]
	path := fmt.Sprintf("/sap/opu/odata/sap/API_PRODUCT_SRV/A_Product('%s')", url.PathEscape(productID))
	if connErr := cl.get(ctx, path, nil, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryNotFound, Message: "product not found: " + productID}
	}
	return &connector.ExecutionResult{Data: c.mapper.ProductToCanonical(envelope.D)}, nil
}

func (c *Connector) listProducts(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	query := url.Values{}
	if top, ok := input["limit"].(float64); ok && top > 0 {
		query.Set("$top", fmt.Sprintf("%d", int(top)))
	}
	if skip, ok := input["offset"].(float64); ok && skip > 0 {
		query.Set("$skip", fmt.Sprintf("%d", int(skip)))
	}

	var envelope listEnvelope[sapProduct]
	if connErr := cl.get(ctx, "/sap/opu/odata/sap/API_PRODUCT_SRV/A_Product", query, &envelope); connErr != nil {
		return nil, connErr
	}

	products := make([]*canonical.Product, 0, len(envelope.D.Results))
	for i := range envelope.D.Results {
		products = append(products, c.mapper.ProductToCanonical(&envelope.D.Results[i]))
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

	payload := c.mapper.OrderToSAP(order)
	var envelope singleEnvelope[sapSalesOrder]
	if connErr := cl.post(ctx, "/sap/opu/odata/sap/API_SALES_ORDER_SRV/A_SalesOrder", payload, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategorySystem, Message: "sap returned an empty order response"}
	}
	return &connector.ExecutionResult{Data: c.mapper.OrderToCanonical(envelope.D)}, nil
}

func (c *Connector) getSalesOrder(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	orderID, err := requireString(input, "orderId")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$expand", "to_Item")
	var envelope singleEnvelope[sapSalesOrder]
	path := fmt.Sprintf("/sap/opu/odata/sap/API_SALES_ORDER_SRV/A_SalesOrder('%s')", url.PathEscape(orderID))
	if connErr := cl.get(ctx, path, query, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryNotFound, Message: "sales order not found: " + orderID}
	}
	return &connector.ExecutionResult{Data: c.mapper.OrderToCanonical(envelope.D)}, nil
}

func (c *Connector) getCustomer(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	customerID, err := requireString(input, "customerId")
	if err != nil {
		return nil, err
	}

	var envelope singleEnvelope[sapCustomer]
	path := fmt.Sprintf("/sap/opu/odata/sap/API_BUSINESS_PARTNER/A_Customer('%s')", url.PathEscape(customerID))
	if connErr := cl.get(ctx, path, nil, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryNotFound, Message: "customer not found: " + customerID}
	}
	return &connector.ExecutionResult{Data: c.mapper.CustomerToCanonical(envelope.D)}, nil
}

func (c *Connector) getInventory(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	productID, err := requireString(input, "productId")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("Material eq '%s'", productID))
	if plant, ok := input["plant"].(string); ok && plant != "" {
		query.Set("$filter", fmt.Sprintf("Material eq '%s' and Plant eq '%s'", productID, plant))
	}

	var envelope listEnvelope[sapStock]
	if connErr := cl.get(ctx, "/sap/opu/odata/sap/API_MATERIAL_STOCK_SRV/A_MatlStkInAcctMod", query, &envelope); connErr != nil {
		return nil, connErr
	}

	positions := make([]*canonical.Inventory, 0, len(envelope.D.Results))
	for i := range envelope.D.Results {
		positions = append(positions, c.mapper.InventoryToCanonical(&envelope.D.Results[i]))
	}
	return &connector.ExecutionResult{Data: positions}, nil
}

func (c *Connector) checkAvailability(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	productID, err := requireString(input, "productId")
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"Material":          productID,
		"RequestedQuantity": fmt.Sprintf("%v", input["quantity"]),
	}
	if plant, ok := input["plant"].(string); ok {
		payload["Plant"] = plant
	}

	var envelope singleEnvelope[sapAvailability]
	if connErr := cl.post(ctx, "/sap/opu/odata/sap/API_ATP_SRV/CalculateAvailability", payload, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategorySystem, Message: "sap returned an empty availability response"}
	}
	return &connector.ExecutionResult{Data: c.mapper.AvailabilityToCanonical(envelope.D)}, nil
}

func (c *Connector) getInvoice(ctx context.Context, cl *client, input map[string]any) (*connector.ExecutionResult, error) {
	invoiceID, err := requireString(input, "invoiceId")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$expand", "to_Item")
	var envelope singleEnvelope[sapInvoice]
	path := fmt.Sprintf("/sap/opu/odata/sap/API_BILLING_DOCUMENT_SRV/A_BillingDocument('%s')", url.PathEscape(invoiceID))
	if connErr := cl.get(ctx, path, query, &envelope); connErr != nil {
		return nil, connErr
	}
	if envelope.D == nil {
		return nil, &resilience.ConnectorError{Category: resilience.CategoryNotFound, Message: "invoice not found: " + invoiceID}
	}
	return &connector.ExecutionResult{Data: c.mapper.InvoiceToCanonical(envelope.D)}, nil
}

// ---------------------------------------------------------------------------
// Webhooks
// ---------------------------------------------------------------------------

// HandleWebhook verifies the HMAC-SHA256 signature and decodes the event.
// Verification fails closed.
func (c *Connector) HandleWebhook(ctx context.Context, payload connector.WebhookPayload, execCtx connector.ExecutionContext) connector.WebhookResult {
	secret, _ := execCtx.Config["webhookSecret"].(string)
	if secret == "" {
		return connector.WebhookResult{Valid: false, Error: "webhook secret is not configured"}
	}
	if payload.Signature == "" {
		return connector.WebhookResult{Valid: false, Error: "missing signature"}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload.Data)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(payload.Signature)) {
		return connector.WebhookResult{Valid: false, Error: "signature mismatch"}
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

// decodeOrder converts a capability input into a canonical order via JSON
// round-tripping, so callers can pass plain maps.
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

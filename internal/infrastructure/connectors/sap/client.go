package sap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/b2bhub/backend/internal/domain/connector"
	"github.com/b2bhub/backend/internal/infrastructure/resilience"
	"github.com/b2bhub/backend/internal/infrastructure/token"
)

// maxResponseSize is the maximum allowed response size from the SAP API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// settings are the per-configuration connection settings parsed from the
// configuration's config map.
type settings struct {
	BaseURL        string
	Client         string
	AuthType       string
	TokenURL       string
	TimeoutSeconds int
}

func parseSettings(config map[string]any) (settings, error) {
	s := settings{
		AuthType:       "basic",
		TimeoutSeconds: 30,
	}
	baseURL, _ := config["baseUrl"].(string)
	if baseURL == "" {
		return s, fmt.Errorf("sap: baseUrl is required")
	}
	s.BaseURL = strings.TrimRight(baseURL, "/")

	if client, ok := config["client"].(string); ok {
		s.Client = client
	}
	if authType, ok := config["authType"].(string); ok && authType != "" {
		s.AuthType = authType
	}
	if tokenURL, ok := config["tokenUrl"].(string); ok {
		s.TokenURL = tokenURL
	}
	switch v := config["timeoutSeconds"].(type) {
	case int:
		s.TimeoutSeconds = v
	case float64:
		s.TimeoutSeconds = int(v)
	}
	return s, nil
}

// client performs OData-style HTTP calls against one SAP system
type client struct {
	settings   settings
	execCtx    connector.ExecutionContext
	httpClient *http.Client
	tokens     *token.Cache
}

func newClient(execCtx connector.ExecutionContext, tokens *token.Cache, httpClient *http.Client) (*client, error) {
	s, err := parseSettings(execCtx.Config)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(s.TimeoutSeconds) * time.Second}
	}
	return &client{
		settings:   s,
		execCtx:    execCtx,
		httpClient: httpClient,
		tokens:     tokens,
	}, nil
}

// get performs a GET against an OData path and decodes the response into out
func (c *client) get(ctx context.Context, path string, query url.Values, out any) *resilience.ConnectorError {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post performs a POST with a JSON body and decodes the response into out
func (c *client) post(ctx context.Context, path string, payload any, out any) *resilience.ConnectorError {
	return c.do(ctx, http.MethodPost, path, nil, payload, out)
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, payload, out any) *resilience.ConnectorError {
	endpoint := c.settings.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return resilience.Classify(fmt.Errorf("sap: encode request: %w", err), 0)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return resilience.Classify(fmt.Errorf("sap: build request: %w", err), 0)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.settings.Client != "" {
		req.Header.Set("sap-client", c.settings.Client)
	}
	if authErr := c.authorize(ctx, req); authErr != nil {
		return authErr
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return resilience.Classify(err, 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resilience.Classify(fmt.Errorf("sap: read response: %w", err), 0)
	}

	if resp.StatusCode >= 400 {
		return Normalize(nil, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resilience.Classify(fmt.Errorf("sap: parse response: %w", err), 0)
		}
	}
	return nil
}

// authorize attaches credentials to the request. Basic auth uses the vault
// payload directly; OAuth2 goes through the shared token cache.
func (c *client) authorize(ctx context.Context, req *http.Request) *resilience.ConnectorError {
	switch c.settings.AuthType {
	case "oauth2":
		tok, err := c.tokens.Get(ctx, c.execCtx.ConfigID, c.fetchToken)
		if err != nil {
			return resilience.Classify(err, 0)
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	default:
		username := credentialString(c.execCtx.Credentials, "username")
		password := credentialString(c.execCtx.Credentials, "password")
		req.SetBasicAuth(username, password)
	}
	return nil
}

// fetchToken performs the OAuth2 client-credentials exchange
func (c *client) fetchToken(ctx context.Context) (token.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", credentialString(c.execCtx.Credentials, "clientId"))
	form.Set("client_secret", credentialString(c.execCtx.Credentials, "clientSecret"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.settings.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return token.Token{}, fmt.Errorf("sap: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return token.Token{}, fmt.Errorf("sap: token request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return token.Token{}, fmt.Errorf("sap: read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return token.Token{}, fmt.Errorf("sap: token endpoint returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return token.Token{}, fmt.Errorf("sap: parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return token.Token{}, fmt.Errorf("sap: token endpoint returned no access token")
	}
	return token.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

func credentialString(credentials map[string]any, key string) string {
	if credentials == nil {
		return ""
	}
	value, _ := credentials[key].(string)
	return value
}

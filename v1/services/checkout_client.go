package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apierrors "github.com/enrollhub/enrollment-backend/pkg/errors"
)

// CheckoutSessionRequest is the payload sent to the provider to open a session
type CheckoutSessionRequest struct {
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

// CheckoutSession is the provider's view of one checkout session
type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
	Status      string `json:"status"`
}

// CheckoutProvider is the external payment provider boundary
type CheckoutProvider interface {
	CreateSession(req *CheckoutSessionRequest) (*CheckoutSession, error)
	GetSession(sessionID string) (*CheckoutSession, error)
}

// CheckoutClient talks to the hosted checkout provider over HTTP
type CheckoutClient struct {
	// baseURL is the provider endpoint
	baseURL string
	// apiKey authenticates requests to the provider
	apiKey string
	// HTTPClient is used to make requests to the provider
	HTTPClient *http.Client
}

// NewCheckoutClient creates a new instance of CheckoutClient
func NewCheckoutClient(baseURL, apiKey string, timeout time.Duration) *CheckoutClient {
	return &CheckoutClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// setAuthHeader is a helper function to add the provider API key
func (c *CheckoutClient) setAuthHeader(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}

// CreateSession opens a checkout session and returns the redirect URL
func (c *CheckoutClient) CreateSession(req *CheckoutSessionRequest) (*CheckoutSession, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/checkout/sessions", c.baseURL)
	httpReq, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to send request to checkout provider: %w", err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.Error("checkout provider returned error", "status", resp.StatusCode, "body", string(respBody))
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("checkout provider returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var session CheckoutSession
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to parse response: %w", err))
	}

	slog.Info("Checkout session created", "sessionId", session.SessionID)
	return &session, nil
}

// GetSession retrieves the current status of a checkout session
func (c *CheckoutClient) GetSession(sessionID string) (*CheckoutSession, error) {
	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionID))
	httpReq, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setAuthHeader(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to send request to checkout provider: %w", err))
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apierrors.NotFound("checkout session")
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("checkout provider returned error", "status", resp.StatusCode, "body", string(respBody))
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("checkout provider returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var session CheckoutSession
	if err := json.Unmarshal(respBody, &session); err != nil {
		return nil, apierrors.ProviderUnavailable(fmt.Errorf("failed to parse response: %w", err))
	}
	return &session, nil
}

package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/drip"
)

// Interface compliance check.
var _ drip.Sender = (*Client)(nil)

// Client implements [drip.Sender] against the Bot Framework connector.
type Client struct {
	token          string
	serviceURL     string
	conversationID string
	httpClient     *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a connector [Client] that posts activities to one
// conversation. serviceURL is the tenant's connector base URL, learned from
// an incoming activity; token is a connector access token the caller keeps
// fresh for the life of the exchange.
func New(token, serviceURL, conversationID string, opts ...Option) *Client {
	c := &Client{
		token:          token,
		serviceURL:     strings.TrimRight(serviceURL, "/"),
		conversationID: conversationID,
		httpClient:     http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Send posts the activity to the conversation and returns the ID the
// service assigned to it.
func (c *Client) Send(ctx context.Context, activity *drip.Activity) (string, error) {
	if c.serviceURL == "" || c.conversationID == "" {
		return "", fmt.Errorf("teams: service URL and conversation ID required: %w", drip.ErrValidation)
	}
	if err := activity.Validate(); err != nil {
		return "", fmt.Errorf("teams: %w", err)
	}

	body, err := json.Marshal(activity)
	if err != nil {
		return "", fmt.Errorf("teams: %w", err)
	}

	endpoint := c.serviceURL + "/v3/conversations/" + url.PathEscape(c.conversationID) + "/activities"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("teams: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("teams: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", parseHTTPError(resp)
	}

	var resource apiResource
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return "", fmt.Errorf("teams: decode response: %w", err)
	}
	return resource.ID, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("teams: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Code == "" {
		return fmt.Errorf("teams: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("teams: %s: %s", apiErr.Error.Code, apiErr.Error.Message)
}

// Package stakeinfo fetches validator eligibility from an external stake-info service
package stakeinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/screwyprof/liquidstake/ledger"
)

// ErrUnexpectedStatus is returned when the service answers with a non-200 status
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Client represents a stake-info API client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new stake-info API client with a 30s timeout
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(&http.Client{
		Timeout: 30 * time.Second,
	}, baseURL)
}

// NewClientWithHTTP creates a new stake-info API client with custom HTTP client and base URL
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Validator represents a validator as reported by the stake-info service
type Validator struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

// GetValidators retrieves the known validators
func (c *Client) GetValidators(ctx context.Context) ([]Validator, error) {
	url := fmt.Sprintf("%s/v1/validators", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var validators []Validator
	if err := json.NewDecoder(resp.Body).Decode(&validators); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return validators, nil
}

// AllowList builds an eligibility oracle accepting the active validators
func (c *Client) AllowList(ctx context.Context) (ledger.AllowList, error) {
	validators, err := c.GetValidators(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(validators))
	for _, v := range validators {
		if v.Active && v.ID != "" {
			ids = append(ids, v.ID)
		}
	}

	return ledger.NewAllowList(ids...), nil
}

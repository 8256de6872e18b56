package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client fetches the raw question rows from the Google Sheets values API.
type Client struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	valueRange    string
	httpClient    *http.Client
}

// New creates a sheets client. baseURL defaults to the public API host and
// valueRange to the "Questions" sheet.
func New(baseURL, spreadsheetID, apiKey, valueRange string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://sheets.googleapis.com"
	}
	if valueRange == "" {
		valueRange = "Questions"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		baseURL:       baseURL,
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		valueRange:    valueRange,
		httpClient:    httpClient,
	}
}

type valuesResponse struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

// FetchRows returns every row of the configured range, header included.
func (c *Client) FetchRows(ctx context.Context) ([][]string, error) {
	values := url.Values{}
	if c.apiKey != "" {
		values.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(c.valueRange), values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets non-200: %d", resp.StatusCode)
	}

	var payload valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Values, nil
}

// Package imgur uploads chart images to Imgur and reports its rate limiting
// as a distinct error so callers can back off.
package imgur

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrRateLimited marks an upload rejected by Imgur's rate limiter. Callers
// match it with errors.Is to decide whether to cool down and retry.
var ErrRateLimited = errors.New("imgur: rate limited")

// ClientConfig represents the configuration for the Imgur client.
type ClientConfig struct {
	APIURL   string // Default: https://api.imgur.com/3
	ClientID string
	Timeout  time.Duration // Default: 30 seconds
}

// Client uploads images through the anonymous Imgur API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
}

// NewClient creates a new Imgur client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = "https://api.imgur.com/3"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		clientID: config.ClientID,
	}
}

type uploadResponse struct {
	Data struct {
		Link  string `json:"link"`
		Error any    `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Upload sends the image file as a base64 form post and returns the public
// link.
func (c *Client) Upload(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	form := url.Values{}
	form.Set("type", "base64")
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequest("POST", c.baseURL+"/image", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.clientID)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "Too Many Requests") {
		return "", fmt.Errorf("%w (status %d)", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if !parsed.Success || parsed.Data.Link == "" {
		return "", fmt.Errorf("upload rejected: %v", parsed.Data.Error)
	}

	return parsed.Data.Link, nil
}

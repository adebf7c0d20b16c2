package notion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiVersion = "2022-06-28"

// ClientConfig represents the configuration for the Notion API client.
type ClientConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration // Default: 30 seconds
}

// Client is a Notion API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a new Notion API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	baseURL := config.APIURL
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		token:   config.Token,
	}
}

// QueryDatabase queries one page of a database. Pagination is cursor based:
// pass the NextCursor of the previous response as startCursor.
func (c *Client) QueryDatabase(databaseID string, filter, sorts json.RawMessage, pageSize int, startCursor string) (*QueryResponse, error) {
	body := QueryRequest{
		Filter:      filter,
		Sorts:       sorts,
		PageSize:    pageSize,
		StartCursor: startCursor,
	}

	var resp QueryResponse
	endpoint := fmt.Sprintf("%s/databases/%s/query", c.baseURL, databaseID)
	if err := c.do("POST", endpoint, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryDatabaseAll fetches every page of a database.
func (c *Client) QueryDatabaseAll(databaseID string, filter, sorts json.RawMessage, pageSize int) ([]Page, error) {
	var all []Page
	cursor := ""

	for {
		resp, err := c.QueryDatabase(databaseID, filter, sorts, pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to query database (fetched=%d): %w", len(all), err)
		}

		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == nil {
			break
		}
		cursor = *resp.NextCursor
	}

	return all, nil
}

// GetPage retrieves a page with all of its properties.
func (c *Client) GetPage(pageID string) (*Page, error) {
	var page Page
	endpoint := fmt.Sprintf("%s/pages/%s", c.baseURL, pageID)
	if err := c.do("GET", endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPageProperties retrieves the property map of a page.
func (c *Client) GetPageProperties(pageID string) (map[string]Property, error) {
	page, err := c.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	return page.Properties, nil
}

// CreatePage creates a new page in a database.
func (c *Client) CreatePage(databaseID string, properties map[string]any) (*Page, error) {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": properties,
	}

	var page Page
	endpoint := fmt.Sprintf("%s/pages", c.baseURL)
	if err := c.do("POST", endpoint, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateDatabase updates property definitions and/or the title of a database.
func (c *Client) UpdateDatabase(databaseID string, properties map[string]any, title string) error {
	body := map[string]any{}
	if properties != nil {
		body["properties"] = properties
	}
	if title != "" {
		body["title"] = []map[string]any{
			{"type": "text", "text": map[string]string{"content": title}},
		}
	}

	endpoint := fmt.Sprintf("%s/databases/%s", c.baseURL, databaseID)
	return c.do("PATCH", endpoint, body, nil)
}

// GetDatabaseSelectOptions retrieves the options of every select and
// multi_select property of a database, keyed by property name.
func (c *Client) GetDatabaseSelectOptions(databaseID string) (map[string]PropertyOptions, error) {
	var db DatabaseResponse
	endpoint := fmt.Sprintf("%s/databases/%s", c.baseURL, databaseID)
	if err := c.do("GET", endpoint, nil, &db); err != nil {
		return nil, err
	}

	options := make(map[string]PropertyOptions)
	for name, prop := range db.Properties {
		var holder *OptionsHolder
		switch prop.Type {
		case "select":
			holder = prop.Select
		case "multi_select":
			holder = prop.MultiSelect
		default:
			continue
		}
		if holder == nil || len(holder.Options) == 0 {
			continue
		}
		options[name] = PropertyOptions{Type: prop.Type, Options: holder.Options}
	}

	return options, nil
}

// UpdatePageFile attaches an external file URL to a files property of a page.
func (c *Client) UpdatePageFile(pageID, propertyName, fileName, url string) error {
	if propertyName == "" {
		propertyName = "File"
	}
	if fileName == "" {
		fileName = "image.png"
	}

	body := map[string]any{
		"properties": map[string]any{
			propertyName: map[string]any{
				"files": []map[string]any{
					{
						"name": fileName,
						"type": "external",
						"external": map[string]string{
							"url": url,
						},
					},
				},
			},
		},
	}

	endpoint := fmt.Sprintf("%s/pages/%s", c.baseURL, pageID)
	return c.do("PATCH", endpoint, body, nil)
}

// do performs an API request and decodes the response into out (when non-nil).
func (c *Client) do(method, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError parses an error response from the Notion API.
func (c *Client) parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notion API error (status %d): failed to read error response", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("notion API error (status %d): %s", resp.StatusCode, string(body))
	}

	if errResp.Message != "" {
		return fmt.Errorf("notion API error: %s - %s", errResp.Code, errResp.Message)
	}

	return fmt.Errorf("notion API error (status %d): %s", resp.StatusCode, errResp.Code)
}

// Package httpclient is the shared base for outbound REST integrations.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/correlation"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	Name     string
	BaseURL  *url.URL
	HTTP     *http.Client
	Username string
	Password string
}

// New fails fast on a malformed base URL since it only comes from config.
func New(name, baseURL, username, password string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s base url %q", name, baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{Name: name, BaseURL: u, HTTP: httpClient, Username: username, Password: password}, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.Code, e.Body)
}

func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, error) {
	u := c.BaseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}
	if cid := correlation.FromContext(ctx); cid != "" {
		req.Header.Set(correlation.Header, cid)
	}

	return c.HTTP.Do(req)
}

// DoJSON sends the request and decodes a 2xx JSON response into out.
func (c *Client) DoJSON(ctx context.Context, method, path string, body io.Reader, headers http.Header, out any) error {
	resp, err := c.Do(ctx, method, path, body, headers)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Service: c.Name, Code: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Name, err)
	}
	return nil
}

package checkoutapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

// Client talks to the checkout REST API and the CMS content endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new checkout API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Post sends body to path. Multipart posts carry the JSON payload in a
// single "data" form field.
func (c *Client) Post(ctx context.Context, path string, body interface{}, isMultipart bool) error {
	var (
		reader      io.Reader
		contentType string
	)

	if isMultipart {
		buf, ct, err := encodeMultipart(body)
		if err != nil {
			return err
		}
		reader, contentType = buf, ct
	} else {
		buf, err := encodeJSON(body)
		if err != nil {
			return err
		}
		reader, contentType = buf, "application/json"
	}

	_, err := c.do(ctx, http.MethodPost, c.config.BaseURL+path, reader, contentType)
	return err
}

// Delete issues a DELETE to path. A non-nil body is sent as JSON.
func (c *Client) Delete(ctx context.Context, path string, body interface{}) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		buf, err := encodeJSON(body)
		if err != nil {
			return err
		}
		reader, contentType = buf, "application/json"
	}

	_, err := c.do(ctx, http.MethodDelete, c.config.BaseURL+path, reader, contentType)
	return err
}

// GetCheckout fetches the authoritative basket snapshot.
func (c *Client) GetCheckout(ctx context.Context) (*model.BasketSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, c.config.BaseURL+PathCheckout, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout: %w", err)
	}

	var checkoutResp CheckoutResponse
	if err := json.Unmarshal(resp, &checkoutResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout response: %w", err)
	}
	return &checkoutResp.Data, nil
}

// PutCheckout pushes the client's item list to the checkout document.
func (c *Client) PutCheckout(ctx context.Context, items []model.BasketItem) error {
	buf, err := encodeJSON(CheckoutUpdate{Items: items})
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPut, c.config.BaseURL+PathCheckout, buf, "application/json"); err != nil {
		return fmt.Errorf("failed to update checkout: %w", err)
	}
	return nil
}

// GetContainer returns the first template of a named CMS container.
// query is appended verbatim and may be empty or start with "?".
func (c *Client) GetContainer(ctx context.Context, name, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/container/%s%s", c.config.ContentBaseURL, url.PathEscape(name), query)
	return c.getTemplate(ctx, endpoint)
}

// GetCategoryContent returns the rendered content of a CMS category.
func (c *Client) GetCategoryContent(ctx context.Context, categoryID int) (string, error) {
	endpoint := fmt.Sprintf("%s/category/%s", c.config.ContentBaseURL, strconv.Itoa(categoryID))
	return c.getTemplate(ctx, endpoint)
}

func (c *Client) getTemplate(ctx context.Context, endpoint string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}

	var container ContainerResponse
	if err := json.Unmarshal(resp, &container); err != nil {
		return "", fmt.Errorf("failed to unmarshal content response: %w", err)
	}
	if len(container.Data) == 0 {
		return "", ErrEmptyContainer
	}
	return container.Data[0], nil
}

// do performs an HTTP request and maps failed responses to errors
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	logger.Debug("Checkout API request", map[string]interface{}{
		"request_id": requestID,
		"method":     method,
		"url":        endpoint,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error == nil {
			return nil, fmt.Errorf("%w: %d, body: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		envelope.Error.StatusCode = resp.StatusCode

		logger.Warn("Checkout API returned error stack", map[string]interface{}{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
			"entries":     len(envelope.Error.Stack),
		})
		return nil, envelope.Error
	}

	return respBody, nil
}

func encodeJSON(body interface{}) (*bytes.Buffer, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewBuffer(data), nil
}

func encodeMultipart(body interface{}) (*bytes.Buffer, string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.WriteField("data", string(data)); err != nil {
		return nil, "", fmt.Errorf("failed to write multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

// Package lookup resolves scanned barcodes to drug names through an external catalogue service.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound indicates the catalogue has no drug for the barcode.
var ErrNotFound = errors.New("barcode not found")

// Client exposes the catalogue operations used by the application.
type Client interface {
	DrugByBarcode(ctx context.Context, barcode string) (*Drug, error)
}

// Drug is the catalogue record for a barcode.
type Drug struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a catalogue client for baseURL. apiKey is sent as a bearer
// token when non-empty.
func NewClient(baseURL, apiKey string, timeout time.Duration) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		restyClient.SetAuthToken(apiKey)
	}

	return &APIClient{httpClient: restyClient}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DrugByBarcode fetches the drug registered under barcode.
func (c *APIClient) DrugByBarcode(ctx context.Context, barcode string) (*Drug, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, errors.New("barcode must not be empty")
	}

	result := new(Drug)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr).
		Get("/drugs/" + url.PathEscape(barcode))
	if err != nil {
		return nil, fmt.Errorf("lookup barcode %s: %w", barcode, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return nil, fmt.Errorf("lookup api error: code=%d, message=%s", resp.StatusCode(), message)
	}
	if result.Name == "" {
		return nil, ErrNotFound
	}
	if result.Barcode == "" {
		result.Barcode = barcode
	}

	return result, nil
}

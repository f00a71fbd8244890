package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	v1 "github.com/123qassim/mumbso/internal/api/v1"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/123qassim/mumbso/pkg/httpclient"
)

const (
	initiatePath = "/api/v1/payments/stk-push"
	statusPath   = "/api/v1/payments/%s/status"
)

// APIError is a non-2xx answer from the payments API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	TrackID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d %s: %s (track id %s)", e.StatusCode, e.Code, e.Message, e.TrackID)
}

type envelope struct {
	Successful bool            `json:"successful"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	TrackID    string          `json:"x_track_id"`
	Result     json.RawMessage `json:"result"`
}

// Client talks to a running payments API. GetStatus makes it usable as a poller status reader.
type Client struct {
	client  httpclient.HTTPClient
	baseURL string
}

func New(baseURL string, client httpclient.HTTPClient) *Client {
	return &Client{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) Initiate(ctx context.Context, request v1.InitiatePaymentRequest) (service.InitiatePaymentResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return service.InitiatePaymentResponse{}, fmt.Errorf("encoding error: %w", err)
	}

	resp, err := c.client.Post(ctx, c.baseURL+initiatePath, &buf, map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return service.InitiatePaymentResponse{}, err
	}

	var result service.InitiatePaymentResponse
	if err := decode(resp, &result); err != nil {
		return service.InitiatePaymentResponse{}, err
	}
	return result, nil
}

func (c *Client) GetStatus(ctx context.Context, checkoutRequestID string) (service.PaymentStatusResponse, error) {
	endpoint := c.baseURL + fmt.Sprintf(statusPath, url.PathEscape(checkoutRequestID))

	resp, err := c.client.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return service.PaymentStatusResponse{}, err
	}

	var result service.PaymentStatusResponse
	if err := decode(resp, &result); err != nil {
		return service.PaymentStatusResponse{}, err
	}
	return result, nil
}

func decode(resp *http.Response, result any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var body envelope
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if resp.StatusCode >= http.StatusBadRequest || !body.Successful {
		return &APIError{StatusCode: resp.StatusCode, Code: body.Code, Message: body.Message, TrackID: body.TrackID}
	}

	if err := json.Unmarshal(body.Result, result); err != nil {
		return fmt.Errorf("decoding error: %w", err)
	}
	return nil
}

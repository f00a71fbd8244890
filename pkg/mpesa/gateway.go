package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/123qassim/mumbso/pkg/httpclient"
)

const (
	AuthEndpoint     = "/oauth/v1/generate?grant_type=client_credentials"
	STKPushEndpoint  = "/mpesa/stkpush/v1/processrequest"
	ResponseAccepted = "0"

	// tokens are refreshed this long before Daraja says they expire
	tokenExpiryMargin = time.Minute
)

type Gateway interface {
	STKPush(ctx context.Context, request PushRequest) (PushResult, error)
}

type gateway struct {
	client httpclient.HTTPClient
	config Config
	now    func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type Option func(*gateway)

// WithClock replaces time.Now, for timestamps and token expiry.
func WithClock(now func() time.Time) Option {
	return func(g *gateway) {
		g.now = now
	}
}

func NewGateway(cfg Config, client httpclient.HTTPClient, opts ...Option) Gateway {
	g := &gateway{config: cfg, client: client, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gateway) STKPush(ctx context.Context, request PushRequest) (PushResult, error) {
	if err := g.config.Validate(); err != nil {
		return PushResult{}, err
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return PushResult{}, err
	}

	timestamp := Timestamp(g.now().In(g.config.location()))
	body := STKPushRequest{
		BusinessShortCode: g.config.ShortCode,
		Password:          Password(g.config.ShortCode, g.config.PassKey, timestamp),
		Timestamp:         timestamp,
		TransactionType:   g.config.transactionType(),
		Amount:            request.Amount,
		PartyA:            request.PhoneNumber,
		PartyB:            g.config.ShortCode,
		PhoneNumber:       request.PhoneNumber,
		CallBackURL:       g.config.CallbackURL,
		AccountReference:  request.AccountReference,
		TransactionDesc:   request.TransactionDesc,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return PushResult{}, fmt.Errorf("encoding error: %w", err)
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + token,
	}

	resp, err := g.client.Post(ctx, g.config.BaseURL+STKPushEndpoint, &buf, headers)
	if err != nil {
		return PushResult{}, transportError(err)
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return PushResult{}, transportError(err)
	}

	var response STKPushResponse
	decodeErr := json.Unmarshal(raw, &response)

	if resp.StatusCode == http.StatusUnauthorized {
		g.invalidateToken()
	}

	if resp.StatusCode == http.StatusOK {
		if decodeErr != nil {
			return PushResult{}, fmt.Errorf("%w: decoding error: %v", ErrInvalidResponse, decodeErr)
		}

		if response.ResponseCode != ResponseAccepted || response.CheckoutRequestID == "" {
			return PushResult{}, newGatewayError(resp.StatusCode, response)
		}

		body.Password = ""
		return PushResult{
			MerchantRequestID:   response.MerchantRequestID,
			CheckoutRequestID:   response.CheckoutRequestID,
			ResponseCode:        response.ResponseCode,
			ResponseDescription: response.ResponseDescription,
			CustomerMessage:     response.CustomerMessage,
			Request:             body,
		}, nil
	}

	if decodeErr != nil {
		if isServerError(resp.StatusCode) {
			return PushResult{}, fmt.Errorf("%w: gateway returned %d", ErrNetwork, resp.StatusCode)
		}
		return PushResult{}, &GatewayError{
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
	}

	return PushResult{}, newGatewayError(resp.StatusCode, response)
}

// accessToken returns the cached OAuth token or fetches a fresh one. Any failure is an ErrCredential.
func (g *gateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.now().Before(g.expiresAt) {
		return g.token, nil
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(g.config.ConsumerKey + ":" + g.config.ConsumerSecret))
	headers := map[string]string{
		"Authorization": "Basic " + credentials,
	}

	resp, err := g.client.Get(ctx, g.config.BaseURL+AuthEndpoint, headers)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredential, transportError(err))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrCredential, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: decoding error: %v", ErrCredential, err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrCredential)
	}

	g.token = token.AccessToken
	g.expiresAt = time.Time{}
	if seconds, err := token.ExpiresIn.Int64(); err == nil && seconds > 0 {
		ttl := time.Duration(seconds)*time.Second - tokenExpiryMargin
		if ttl > 0 {
			g.expiresAt = g.now().Add(ttl)
		}
	}

	return g.token, nil
}

func (g *gateway) invalidateToken() {
	g.mu.Lock()
	g.token = ""
	g.expiresAt = time.Time{}
	g.mu.Unlock()
}

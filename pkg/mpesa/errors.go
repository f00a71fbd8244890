package mpesa

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

const (
	ErrCodeMissingConfig   = "MPESA_CONFIG_INCOMPLETE"
	ErrCodeCredential      = "CREDENTIAL_ERROR"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeNetwork         = "NETWORK_ERROR"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeMalformed       = "MALFORMED_CALLBACK"
)

var (
	ErrMissingConfig     = errors.New(ErrCodeMissingConfig)
	ErrCredential        = errors.New(ErrCodeCredential)
	ErrTimeout           = errors.New(ErrCodeTimeout)
	ErrNetwork           = errors.New(ErrCodeNetwork)
	ErrInvalidResponse   = errors.New(ErrCodeInvalidResponse)
	ErrMalformedCallback = errors.New(ErrCodeMalformed)
)

const defaultRejectReason = "Failed to initiate payment"

// GatewayError is returned when Daraja processed the request and declined it.
type GatewayError struct {
	StatusCode   int
	ResponseCode string
	Reason       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway rejected request (http %d, code %q): %s", e.StatusCode, e.ResponseCode, e.Reason)
}

func newGatewayError(statusCode int, resp STKPushResponse) *GatewayError {
	code := resp.ResponseCode
	if code == "" {
		code = resp.ErrorCode
	}

	reason := firstNonEmpty(resp.CustomerMessage, resp.ResponseDescription, resp.ErrorMessage)
	if reason == "" {
		reason = defaultRejectReason
	}

	return &GatewayError{StatusCode: statusCode, ResponseCode: code, Reason: reason}
}

// transportError classifies a failed round trip. Timeouts satisfy both ErrNetwork and ErrTimeout.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %v", ErrNetwork, ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w: %v", ErrNetwork, ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

func isServerError(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

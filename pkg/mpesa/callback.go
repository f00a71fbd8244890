package mpesa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	ResultCodeSuccess         = 0
	ResultCodeCancelledByUser = 1032
)

const (
	MetadataReceiptNumber   = "MpesaReceiptNumber"
	MetadataPhoneNumber     = "PhoneNumber"
	MetadataAmount          = "Amount"
	MetadataTransactionDate = "TransactionDate"
)

type CallbackEnvelope struct {
	Body *CallbackBody `json:"Body"`
}

type CallbackBody struct {
	STKCallback *STKCallback `json:"stkCallback"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        json.Number       `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values arrive as either JSON numbers or strings.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

// CallbackDetails is the metadata Daraja attaches to a successful result.
type CallbackDetails struct {
	ReceiptNumber   string
	PhoneNumber     string
	Amount          *int64
	TransactionDate string
}

// ParseCallback decodes a Daraja result notification. It fails with ErrMalformedCallback when the
// envelope, the checkout id or the result code is missing.
func ParseCallback(payload []byte) (STKCallback, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var envelope CallbackEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return STKCallback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return STKCallback{}, fmt.Errorf("%w: trailing data after envelope", ErrMalformedCallback)
	}

	if envelope.Body == nil || envelope.Body.STKCallback == nil {
		return STKCallback{}, fmt.Errorf("%w: missing Body.stkCallback", ErrMalformedCallback)
	}

	callback := *envelope.Body.STKCallback
	if strings.TrimSpace(callback.CheckoutRequestID) == "" {
		return STKCallback{}, fmt.Errorf("%w: missing CheckoutRequestID", ErrMalformedCallback)
	}

	if _, err := callback.Code(); err != nil {
		return STKCallback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	return callback, nil
}

func (c STKCallback) Code() (int, error) {
	if c.ResultCode == "" {
		return 0, fmt.Errorf("missing ResultCode")
	}

	code, err := c.ResultCode.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid ResultCode %q", c.ResultCode.String())
	}
	return int(code), nil
}

func (c STKCallback) Details() CallbackDetails {
	var details CallbackDetails
	if c.CallbackMetadata == nil {
		return details
	}

	for _, item := range c.CallbackMetadata.Item {
		switch item.Name {
		case MetadataReceiptNumber:
			details.ReceiptNumber = valueString(item.Value)
		case MetadataPhoneNumber:
			details.PhoneNumber = valueString(item.Value)
		case MetadataAmount:
			if amount, ok := valueInt64(item.Value); ok {
				details.Amount = &amount
			}
		case MetadataTransactionDate:
			details.TransactionDate = valueString(item.Value)
		}
	}

	return details
}

func valueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// valueInt64 reads a whole amount from a metadata value. Non-finite values and values outside
// the int64 range are rejected.
func valueInt64(v any) (int64, bool) {
	var raw string
	switch val := v.(type) {
	case json.Number:
		raw = val.String()
	case string:
		raw = strings.TrimSpace(val)
	case float64:
		return floatToInt64(val)
	default:
		return 0, false
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return floatToInt64(f)
}

func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	rounded := math.Round(f)
	// 2^63 is exactly representable; anything at or above it overflows.
	if rounded >= math.MaxInt64 || rounded < math.MinInt64 {
		return 0, false
	}
	return int64(rounded), true
}

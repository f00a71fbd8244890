package v1

import "github.com/shopspring/decimal"

// InitiatePaymentRequest takes the amount as a JSON number or numeric string. Range checks happen in
// the payment service so bad amounts and phone numbers carry their own error codes.
type InitiatePaymentRequest struct {
	PhoneNumber      string          `json:"phone_number" validate:"required,msisdn,max=20"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description" validate:"omitempty,max=100"`
	AccountReference string          `json:"account_reference" validate:"omitempty,account_ref,max=64"`
}

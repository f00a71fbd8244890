package service

import "github.com/123qassim/mumbso/internal/model"

type InitiatePaymentResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	CustomerMessage   string `json:"customer_message"`
	PhoneNumber       string `json:"phone_number"`
	Amount            int64  `json:"amount"`
	AccountReference  string `json:"account_reference"`
}

// PaymentStatusResponse is what a waiting caller sees. An unknown checkout id reads as pending.
type PaymentStatusResponse struct {
	CheckoutRequestID string              `json:"checkout_request_id"`
	Status            model.PaymentStatus `json:"status"`
	Amount            *int64              `json:"amount,omitempty"`
	TransactionID     *string             `json:"transaction_id,omitempty"`
	ResultDesc        *string             `json:"result_desc,omitempty"`
}

type CallbackResult struct {
	CheckoutRequestID string
	Status            model.PaymentStatus
	// Duplicate is set when the payment had already settled and nothing changed.
	Duplicate bool
}

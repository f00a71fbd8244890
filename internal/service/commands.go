package service

import "github.com/shopspring/decimal"

type InitiatePaymentCommand struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	Description      string
	AccountReference string
}

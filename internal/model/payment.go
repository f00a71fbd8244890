package model

import (
	"bytes"
	"time"

	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

const PaymentMethodMpesa = "mpesa"

func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusPending || s.IsTerminal()
}

type Payment struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement;column:id;<-:create" dynamodbav:"-"`
	CheckoutRequestID  string         `gorm:"column:checkout_request_id;type:varchar(64);uniqueIndex;not null;<-:create" dynamodbav:"checkout_request_id"`
	MerchantRequestID  string         `gorm:"column:merchant_request_id;type:varchar(64)" dynamodbav:"merchant_request_id,omitempty"`
	PhoneNumber        string         `gorm:"column:phone_number;type:varchar(20);not null" dynamodbav:"phone_number"`
	Amount             int64          `gorm:"column:amount;not null" dynamodbav:"amount"`
	AccountReference   string         `gorm:"column:account_reference;type:varchar(64)" dynamodbav:"account_reference,omitempty"`
	Description        string         `gorm:"column:description;type:varchar(255)" dynamodbav:"description,omitempty"`
	PaymentMethod      string         `gorm:"column:payment_method;type:varchar(16);default:mpesa;not null" dynamodbav:"payment_method"`
	Status             PaymentStatus  `gorm:"column:status;type:varchar(16);index;not null" dynamodbav:"status"`
	TransactionID      *string        `gorm:"column:transaction_id;type:varchar(64)" dynamodbav:"transaction_id,omitempty"`
	ReceiptNumber      *string        `gorm:"column:receipt_number;type:varchar(64)" dynamodbav:"receipt_number,omitempty"`
	ResultCode         *int           `gorm:"column:result_code" dynamodbav:"result_code,omitempty"`
	ResultDesc         *string        `gorm:"column:result_desc;type:varchar(255)" dynamodbav:"result_desc,omitempty"`
	RawCallbackPayload datatypes.JSON `gorm:"column:raw_callback_payload" dynamodbav:"raw_callback_payload,omitempty"`
	RequestMetadata    datatypes.JSON `gorm:"column:request_metadata" dynamodbav:"request_metadata,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at" dynamodbav:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" dynamodbav:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Clone returns a deep copy of p. Pointer fields and JSON columns are not shared with the original.
func (p Payment) Clone() Payment {
	p.TransactionID = clonePtr(p.TransactionID)
	p.ReceiptNumber = clonePtr(p.ReceiptNumber)
	p.ResultCode = clonePtr(p.ResultCode)
	p.ResultDesc = clonePtr(p.ResultDesc)
	p.RawCallbackPayload = cloneJSON(p.RawCallbackPayload)
	p.RequestMetadata = cloneJSON(p.RequestMetadata)
	return p
}

// Clone returns a copy of u that shares no memory with the caller's values.
func (u StatusUpdate) Clone() StatusUpdate {
	u.TransactionID = clonePtr(u.TransactionID)
	u.ReceiptNumber = clonePtr(u.ReceiptNumber)
	u.PhoneNumber = clonePtr(u.PhoneNumber)
	u.Amount = clonePtr(u.Amount)
	u.ResultCode = clonePtr(u.ResultCode)
	u.ResultDesc = clonePtr(u.ResultDesc)
	u.RawCallbackPayload = cloneJSON(u.RawCallbackPayload)
	return u
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneJSON(v datatypes.JSON) datatypes.JSON {
	if v == nil {
		return nil
	}
	return datatypes.JSON(bytes.Clone(v))
}

// StatusUpdate moves a pending payment to a terminal status. Nil fields leave the stored value alone.
type StatusUpdate struct {
	Status             PaymentStatus
	TransactionID      *string
	ReceiptNumber      *string
	PhoneNumber        *string
	Amount             *int64
	ResultCode         *int
	ResultDesc         *string
	RawCallbackPayload datatypes.JSON
}

// Apply copies the update onto p and stamps UpdatedAt.
func (p *Payment) Apply(update StatusUpdate, now time.Time) {
	p.Status = update.Status
	if update.TransactionID != nil {
		p.TransactionID = update.TransactionID
	}
	if update.ReceiptNumber != nil {
		p.ReceiptNumber = update.ReceiptNumber
	}
	if update.PhoneNumber != nil {
		p.PhoneNumber = *update.PhoneNumber
	}
	if update.Amount != nil {
		p.Amount = *update.Amount
	}
	if update.ResultCode != nil {
		p.ResultCode = update.ResultCode
	}
	if update.ResultDesc != nil {
		p.ResultDesc = update.ResultDesc
	}
	if len(update.RawCallbackPayload) > 0 {
		p.RawCallbackPayload = update.RawCallbackPayload
	}
	p.UpdatedAt = now
}

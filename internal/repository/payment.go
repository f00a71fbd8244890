package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/123qassim/mumbso/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("PAYMENT_NOT_FOUND")
var ErrPaymentDuplicate = errors.New("PAYMENT_DUPLICATE")
var ErrPaymentAlreadySettled = errors.New("PAYMENT_ALREADY_SETTLED")
var ErrInvalidStatusUpdate = errors.New("INVALID_STATUS_UPDATE")

// PaymentRepository is the only way payments are read or written. UpdateStatus only touches
// pending records, so a settled payment never moves again.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error
	GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error)
}

type Payment struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &Payment{db: db, now: time.Now}
}

// Migrate creates or alters the payments table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Payment{})
}

func (p *Payment) Create(ctx context.Context, payment *model.Payment) error {
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	if payment.PaymentMethod == "" {
		payment.PaymentMethod = model.PaymentMethodMpesa
	}

	err := p.db.WithContext(ctx).Create(payment).Error
	if err == nil {
		return nil
	}

	if isDuplicateKey(err) {
		return ErrPaymentDuplicate
	}

	return err
}

func (p *Payment) UpdateStatus(ctx context.Context, checkoutRequestID string, update model.StatusUpdate) error {
	if !update.Status.IsTerminal() {
		return fmt.Errorf("%w: %q", ErrInvalidStatusUpdate, update.Status)
	}

	db := p.db.WithContext(ctx)
	result := db.Model(&model.Payment{}).
		Where("checkout_request_id = ? AND status = ?", checkoutRequestID, model.PaymentStatusPending).
		Updates(updateColumns(update, p.now()))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&model.Payment{}).Where("checkout_request_id = ?", checkoutRequestID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrPaymentNotFound
	}

	return ErrPaymentAlreadySettled
}

func (p *Payment) GetByCheckoutID(ctx context.Context, checkoutRequestID string) (*model.Payment, error) {
	var payment model.Payment

	err := p.db.WithContext(ctx).Where("checkout_request_id = ?", checkoutRequestID).First(&payment).Error
	if err == nil {
		return &payment, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}

	return nil, err
}

func updateColumns(update model.StatusUpdate, now time.Time) map[string]interface{} {
	columns := map[string]interface{}{
		"status":     update.Status,
		"updated_at": now,
	}

	if update.TransactionID != nil {
		columns["transaction_id"] = *update.TransactionID
	}
	if update.ReceiptNumber != nil {
		columns["receipt_number"] = *update.ReceiptNumber
	}
	if update.PhoneNumber != nil {
		columns["phone_number"] = *update.PhoneNumber
	}
	if update.Amount != nil {
		columns["amount"] = *update.Amount
	}
	if update.ResultCode != nil {
		columns["result_code"] = *update.ResultCode
	}
	if update.ResultDesc != nil {
		columns["result_desc"] = *update.ResultDesc
	}
	if len(update.RawCallbackPayload) > 0 {
		columns["raw_callback_payload"] = update.RawCallbackPayload
	}

	return columns
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

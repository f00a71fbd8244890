package v1

import (
	"errors"
	"strings"
	"time"

	"github.com/123qassim/mumbso/internal/api/contract"
	"github.com/123qassim/mumbso/internal/api/validator"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/metrics"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

type Handler struct {
	logger          *zap.Logger
	paymentService  service.PaymentService
	callbackService service.CallbackService
	statusService   service.StatusService
	XValidator      validator.IXValidator
	metrics         *metrics.Metrics
}

func NewHandler(logger *zap.Logger, paymentService service.PaymentService, callbackService service.CallbackService,
	statusService service.StatusService, XValidator validator.IXValidator, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:          logger,
		paymentService:  paymentService,
		callbackService: callbackService,
		statusService:   statusService,
		XValidator:      XValidator,
		metrics:         metrics,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) InitiatePayment(c *fiber.Ctx) error {
	start := time.Now()

	var request InitiatePaymentRequest

	validationStart := time.Now()
	responseError := h.XValidator.Validator(&request, constants.MessageErrorFormat, c)
	h.metrics.RecordValidationDuration("initiate_payment", time.Since(validationStart))

	if responseError.Code != "" {
		responseError.Code = constants.ErrCodeValidationFailed
		if c.Response().StatusCode() == fiber.StatusBadRequest {
			responseError.Code = constants.ErrCodeInvalidRequestBody
		}

		h.logger.Warn("Rejected payment request",
			zap.String("code", responseError.Code),
			zap.String("message", responseError.Message),
			zap.String("body", string(c.Body())))
		return c.JSON(responseError)
	}

	cmd := service.InitiatePaymentCommand{
		PhoneNumber:      request.PhoneNumber,
		Amount:           request.Amount,
		Description:      request.Description,
		AccountReference: request.AccountReference,
	}

	resp, err := h.paymentService.Initiate(c.UserContext(), cmd)
	if err != nil {
		return err
	}

	h.logger.Info("Payment initiated",
		zap.String("checkoutRequestID", resp.CheckoutRequestID),
		zap.String("phoneNumber", resp.PhoneNumber),
		zap.Int64("amount", resp.Amount),
		zap.Duration("duration", time.Since(start)),
	)

	return c.JSON(contract.Response{
		Successful: true,
		Code:       "success",
		Message:    constants.MsgPaymentInitiated,
		TrackID:    contract.TrackID(c),
		Result:     resp,
	})
}

func (h *Handler) GetStatus(c *fiber.Ctx) error {
	checkoutRequestID := strings.TrimSpace(c.Params("checkoutRequestId"))
	if checkoutRequestID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(contract.Response{
			Code:    constants.ErrCodeValidationFailed,
			Message: constants.GetErrorMessage(constants.ErrCodeValidationFailed),
			TrackID: contract.TrackID(c),
		})
	}

	resp, err := h.statusService.GetStatus(c.UserContext(), checkoutRequestID)
	if err != nil {
		return err
	}

	return c.JSON(contract.Response{
		Successful: true,
		Code:       "success",
		Message:    constants.MsgPaymentStatus,
		TrackID:    contract.TrackID(c),
		Result:     resp,
	})
}

// MpesaCallback acknowledges every notification it could attribute to a payment, including
// redeliveries and ones the store failed to record, so Daraja stops retrying.
func (h *Handler) MpesaCallback(c *fiber.Ctx) error {
	// fiber reuses the body buffer once the handler returns
	payload := utils.CopyBytes(c.Body())

	result, err := h.callbackService.HandleCallback(c.UserContext(), payload)
	if err != nil {
		var serviceErr service.Error
		if !errors.As(err, &serviceErr) {
			return err
		}

		return c.Status(constants.GetHTTPStatus(serviceErr.Code)).JSON(CallbackError{
			Error: constants.GetErrorMessage(serviceErr.Code),
		})
	}

	h.logger.Debug("Callback acknowledged",
		zap.String("checkoutRequestID", result.CheckoutRequestID),
		zap.String("status", string(result.Status)),
		zap.Bool("duplicate", result.Duplicate))

	return c.JSON(CallbackAck{ResultCode: 0, ResultDesc: constants.MsgCallbackProcessed})
}

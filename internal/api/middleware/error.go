package middleware

import (
	"errors"

	"github.com/123qassim/mumbso/internal/api/contract"
	"github.com/123qassim/mumbso/internal/constants"
	"github.com/123qassim/mumbso/internal/service"
	"github.com/123qassim/mumbso/pkg/mpesa"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var serviceErr service.Error
		if errors.As(err, &serviceErr) {
			return handleServiceError(c, serviceErr)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(contract.Response{
				Code:    constants.ErrCodeHTTP,
				Message: fiberErr.Message,
				TrackID: contract.TrackID(c),
			})
		}

		logger.Error("Unhandled error",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("trackID", contract.TrackID(c)))

		return c.Status(fiber.StatusInternalServerError).JSON(contract.Response{
			Code:    constants.ErrCodeInternalError,
			Message: constants.GetErrorMessage(constants.ErrCodeInternalError),
			TrackID: contract.TrackID(c),
		})
	}
}

func handleServiceError(c *fiber.Ctx, err service.Error) error {
	errorCode := err.Code

	status := constants.GetHTTPStatus(errorCode)
	if status == fiber.StatusInternalServerError && err.Code != constants.ErrCodeInternalError {
		errorCode = constants.ErrCodeInternalError
	}

	message := constants.GetErrorMessage(errorCode)

	// the gateway's own wording tells the payer what to fix
	var gwErr *mpesa.GatewayError
	if errorCode == constants.ErrCodeGatewayRejected && errors.As(err, &gwErr) && gwErr.Reason != "" {
		message = gwErr.Reason
	}

	return c.Status(status).JSON(contract.Response{
		Code:    errorCode,
		Message: message,
		TrackID: contract.TrackID(c),
	})
}

package constants

const MessageErrorFormat = "The '%s' format is invalid"

const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	ErrCodeInvalidPhoneNumber = "INVALID_PHONE_NUMBER"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeConfiguration      = "CONFIGURATION_ERROR"
	ErrCodeCredential         = "CREDENTIAL_ERROR"
	ErrCodeGatewayRejected    = "GATEWAY_REJECTED"
	ErrCodeNetwork            = "NETWORK_ERROR"
	ErrCodePaymentNotFound    = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidCallback    = "INVALID_CALLBACK"
	ErrCodeInternalError      = "INTERNAL_ERROR"

	// ErrCodeHTTP covers errors raised by the router itself, such as unknown routes.
	ErrCodeHTTP = "HTTP_ERROR"
)

const (
	ErrMsgValidationFailed   = "request validation failed"
	ErrMsgInvalidRequestBody = "failed to parse request body"
	ErrMsgInvalidPhoneNumber = "invalid phone number"
	ErrMsgInvalidAmount      = "amount must be a positive whole number"
	ErrMsgConfiguration      = "payment gateway is not configured"
	ErrMsgCredential         = "could not authenticate with the payment gateway"
	ErrMsgGatewayRejected    = "payment request was rejected"
	ErrMsgNetwork            = "payment gateway is unreachable"
	ErrMsgPaymentNotFound    = "payment not found"
	ErrMsgInvalidCallback    = "Invalid callback data"
	ErrMsgInternalError      = "Internal server error"
)

const (
	MsgPaymentInitiated  = "payment request sent, check your phone"
	MsgPaymentStatus     = "payment status retrieved successfully"
	MsgCallbackProcessed = "Callback processed successfully"
)

var errorMessages = map[string]string{
	ErrCodeValidationFailed:   ErrMsgValidationFailed,
	ErrCodeInvalidRequestBody: ErrMsgInvalidRequestBody,
	ErrCodeInvalidPhoneNumber: ErrMsgInvalidPhoneNumber,
	ErrCodeInvalidAmount:      ErrMsgInvalidAmount,
	ErrCodeConfiguration:      ErrMsgConfiguration,
	ErrCodeCredential:         ErrMsgCredential,
	ErrCodeGatewayRejected:    ErrMsgGatewayRejected,
	ErrCodeNetwork:            ErrMsgNetwork,
	ErrCodePaymentNotFound:    ErrMsgPaymentNotFound,
	ErrCodeInvalidCallback:    ErrMsgInvalidCallback,
	ErrCodeInternalError:      ErrMsgInternalError,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidRequestBody, ErrCodeInvalidPhoneNumber, ErrCodeInvalidAmount, ErrCodeInvalidCallback:
		return 400
	case ErrCodePaymentNotFound:
		return 404
	case ErrCodeValidationFailed:
		return 422
	case ErrCodeGatewayRejected:
		return 502
	case ErrCodeCredential, ErrCodeNetwork, ErrCodeConfiguration:
		return 503
	default:
		return 500
	}
}

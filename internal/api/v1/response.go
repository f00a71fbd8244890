package v1

// CallbackAck is the body Daraja expects back from a result URL.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

type CallbackError struct {
	Error string `json:"error"`
}

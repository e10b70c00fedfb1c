package types

// SuccessEnvelope wraps every successful session API response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a typed error.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed session API response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

package types

// SuccessEnvelope wraps every 2xx response body under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a coded domain error. Details is populated
// only for validation failures, with the per-field messages.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx response body under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

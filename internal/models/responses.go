package models

// LoginResponse represents the response to a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// VerifyResetResponse is returned when a code and token pair is valid
type VerifyResetResponse struct {
	Valid bool `json:"valid"`
}

// CompleteResetResponse is returned after a successful reset. AccessToken is
// only set when auto sign-in is enabled.
type CompleteResetResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

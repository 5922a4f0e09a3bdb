package models

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PasswordResetRequest starts a password reset for an email address
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// VerifyResetRequest checks a code and token pair without consuming it
type VerifyResetRequest struct {
	Code  string `json:"code" binding:"required,numeric,min=4,max=12"`
	Token string `json:"token" binding:"required,max=128"`
}

// CompleteResetRequest sets a new password using a code and token pair
type CompleteResetRequest struct {
	Code        string `json:"code" binding:"required,numeric,min=4,max=12"`
	Token       string `json:"token" binding:"required,max=128"`
	NewPassword string `json:"new_password" binding:"required,max=128,strongpassword"`
}

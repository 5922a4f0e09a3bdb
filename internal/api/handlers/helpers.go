package handlers

import (
	"errors"
	"fittrack/internal/audit"
	"fittrack/internal/auth"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// requestMeta collects the client details attached to audit events
func requestMeta(c *gin.Context, email string) audit.Meta {
	return audit.Meta{
		Email:     email,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// passwordPolicyError reports the policy violations when err is a failed
// strongpassword binding
func passwordPolicyError(err error, password string) (string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "", false
	}
	for _, fe := range verrs {
		if fe.Tag() == "strongpassword" {
			return strings.Join(auth.ValidatePassword(password).Errors, "; "), true
		}
	}
	return "", false
}

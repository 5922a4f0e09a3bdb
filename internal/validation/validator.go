// Package validation provides custom validators for the application
package validation

import (
	"fittrack/internal/auth"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// Initialize registers all custom validators with gin's binding engine
func Initialize() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := Register(v); err != nil {
			panic(err)
		}
	})
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("nospaces", validateNoSpaces); err != nil {
		return err
	}
	return v.RegisterValidation("strongpassword", validateStrongPassword)
}

// validateNoSpaces checks if a string contains non-space characters
func validateNoSpaces(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.TrimSpace(value) != ""
}

// validateStrongPassword applies the password policy
func validateStrongPassword(fl validator.FieldLevel) bool {
	return auth.ValidatePassword(fl.Field().String()).Valid
}

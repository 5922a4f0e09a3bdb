package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `validate:"required,nospaces"`
	Password string `validate:"required,strongpassword"`
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	tests := []struct {
		name    string
		input   signup
		wantErr string
	}{
		{name: "Valid", input: signup{Name: "Jane Runner", Password: "Sup3r$ecretPass"}},
		{name: "Blank name", input: signup{Name: "   ", Password: "Sup3r$ecretPass"}, wantErr: "nospaces"},
		{name: "Weak password", input: signup{Name: "Jane", Password: "password"}, wantErr: "strongpassword"},
		{name: "No symbol", input: signup{Name: "Jane", Password: "Sup3rSecretPass"}, wantErr: "strongpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.wantErr, verrs[0].Tag())
		})
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Initialize()
		Initialize()
	})
}

package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator that reports fields by their JSON name.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	// required string fields must not be only whitespace
	v.RegisterStructValidation(credentialsStructValidation, SignupRequest{}, LoginRequest{}, ConfirmRequest{})

	return v
}

func credentialsStructValidation(sl validatorv10.StructLevel) {
	var email string
	switch req := sl.Current().Interface().(type) {
	case SignupRequest:
		email = req.Email
	case LoginRequest:
		email = req.Email
	case ConfirmRequest:
		email = req.Email
	}
	if email != "" && strings.TrimSpace(email) == "" {
		sl.ReportError(email, "email", "Email", "required", "")
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxBodySize = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Passwords need length plus upper, lower and digit classes.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		if len(pw) < 8 {
			return false
		}
		var upper, lower, digit bool
		for _, r := range pw {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return upper && lower && digit
	})
	return v
}

// fieldMessage turns a failed rule into a short human-readable hint.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return "must be at least 8 characters with upper case, lower case and a digit"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "invalid value"
	}
}

// decodeValid decodes the JSON body into dst and validates it. On a
// validation failure it writes the field-error response itself and reports
// false; the handler just returns.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()

	body := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "malformed_body", "request body is not valid JSON")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fieldMessage(fe)
			}
			s.writeFieldErrors(ctx, w, fields)
			return false
		}
		s.writeErrorCode(ctx, w, http.StatusBadRequest, "validation_failed", "invalid request")
		return false
	}
	return true
}

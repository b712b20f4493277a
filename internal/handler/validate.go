package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps every request body the API reads.
const MaxBodyBytes = 64 << 10

var (
	accountNumberRx = regexp.MustCompile(`^\d{8,16}$`)
	swiftRx         = regexp.MustCompile(`^[A-Za-z]{6}[A-Za-z0-9]{2}([A-Za-z0-9]{3})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "account_number", func(fl validator.FieldLevel) bool {
		return accountNumberRx.MatchString(fl.Field().String())
	})
	mustRegister(v, "swift", func(fl validator.FieldLevel) bool {
		return swiftRx.MatchString(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

var errMalformedBody = errors.New("malformed request body")

// decodeJSONBody decodes r's body into dest and validates it. Field problems
// come back as FieldErrors; an undecodable body comes back as an error.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) ([]FieldError, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedBody, err)
	}

	if err := validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fieldErrors(verrs), nil
		}
		return nil, fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	return nil, nil
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "account_number":
		return "must be 8 to 16 digits"
	case "swift":
		return "must be an 8 or 11 character SWIFT/BIC code"
	}
	return "is invalid"
}

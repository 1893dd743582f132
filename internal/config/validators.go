package config

import (
	"crypto/aes"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// messages maps validation tags to human-readable messages. {0} is the field label, {1} the parameter.
var messages = map[string]string{
	"required":    "{0} is required",
	"min":         "{0} must be at least {1}",
	"len":         "{0} must be {1} characters long",
	"oneof":       "{0} must be one of [{1}]",
	"excludesall": "{0} must not contain any of {1}",
	"chunk":       "{0} must be a positive multiple of 16",
	"exclusive":   "{0} is mutually exclusive with {1}",
}

// newValidator returns a validator with the custom validations registered
// and field names reported by their flag labels.
func newValidator() (*validator.Validate, error) {
	validate := validator.New()

	if err := validate.RegisterValidation("chunk", validateChunk); err != nil {
		return nil, fmt.Errorf("registering chunk validation: %w", err)
	}

	if err := validate.RegisterValidation("exclusive", validateExclusive); err != nil {
		return nil, fmt.Errorf("registering exclusive validation: %w", err)
	}

	validate.RegisterTagNameFunc(label)

	return validate, nil
}

func label(fld reflect.StructField) string {
	const splitSize = 2

	name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
	if name == "-" || name == "" {
		return fld.Name
	}

	return name
}

func message(fe validator.FieldError) string {
	msg, ok := messages[fe.Tag()]
	if !ok {
		return fe.Error()
	}

	param := fe.Param()

	if fe.Tag() == "exclusive" {
		if field, found := reflect.TypeOf(Config{}).FieldByName(param); found {
			param = label(field)
		}
	}

	return strings.NewReplacer("{0}", fe.Field(), "{1}", param).Replace(msg)
}

// validateChunk checks that a chunk size is a positive multiple of the AES block size.
func validateChunk(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() { //nolint:exhaustive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		size := field.Int()

		return size > 0 && size%aes.BlockSize == 0
	default:
		return false
	}
}

// validateExclusive checks if two fields are mutually exclusive.
// Returns false if both fields have non-zero values.
func validateExclusive(fl validator.FieldLevel) bool {
	otherFieldName := fl.Param()
	field := fl.Field()
	otherField := fl.Parent().FieldByName(otherFieldName)

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	return field.IsZero() || otherField.IsZero()
}

package service

import (
	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// validateInput runs the `validate` struct tags of an input type.
func validateInput(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return validationError("invalid input", err)
	}
	return nil
}

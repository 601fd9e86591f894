package handler

import (
	"fleetadmin/internal/utils"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator with the "otp" tag registered: six digits
// within the issued code range.
func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		return utils.IsOTPCode(fl.Field().String())
	})
	return validate
}

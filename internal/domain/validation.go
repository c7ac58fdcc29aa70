package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Validation struct {
	validator *validator.Validate
}

func NewValidation() *Validation {
	v := validator.New()
	v.RegisterValidation("visibility", validateVisibility)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return &Validation{validator: v}
}

func validateVisibility(fl validator.FieldLevel) bool {
	return Visibility(fl.Field().String()).Valid()
}

// decimalValue lets numeric tags such as gte run against decimal fields
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// ValidationError wraps the validator's FieldError
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (v ValidationError) Error() string {
	return fmt.Sprintf("Field '%s': %s", v.Field, v.Message)
}

// ValidationErrors is a slice of ValidationError
type ValidationErrors []ValidationError

// Errors converts the slice to plain messages
func (ve ValidationErrors) Errors() []string {
	errs := []string{}
	for _, v := range ve {
		errs = append(errs, v.Error())
	}
	return errs
}

// Error implements the error interface so parse failures can be returned as errors
func (ve ValidationErrors) Error() string {
	return strings.Join(ve.Errors(), "; ")
}

func (v *Validation) Validate(i interface{}) ValidationErrors {
	var errors ValidationErrors

	err := v.validator.Struct(i)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return ValidationErrors{{Field: "", Message: err.Error()}}
		}
		for _, ve := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   ve.Field(),
				Message: fmt.Sprintf("failed on the '%s' tag", ve.Tag()),
			})
		}
	}

	return errors
}

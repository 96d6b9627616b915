package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var recordValidator = newRecordValidator()

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return Subject(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return ValidGradeLevel(fl.Field().String())
	})
	return v
}

// Validate checks r against the record invariants for variant. It returns a
// *ValidationError naming the first offending field. r is expected to be
// normalized.
func (r Record) Validate(variant Variant) error {
	if err := recordValidator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return NewValidationError(fe.Field(), reason(fe))
		}
		return NewValidationError("", err.Error())
	}
	if r.Date.IsZero() {
		return NewValidationError("data", "is required")
	}
	switch variant {
	case VariantConstructor:
		if r.Constructor == "" {
			return NewValidationError("construtor", "is required")
		}
	default:
		if r.Skill == "" {
			return NewValidationError("habilidade", "is required")
		}
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		if fe.Field() == "resultado" {
			return "must be between 0 and 100"
		}
		return "must be at most " + fe.Param() + " characters"
	case "subject":
		return "must be " + string(SubjectPortuguese) + " or " + string(SubjectMathematics)
	case "grade":
		return "must be one of " + strings.Join(gradeLevels, ", ")
	default:
		return "failed " + fe.Tag() + " check"
	}
}

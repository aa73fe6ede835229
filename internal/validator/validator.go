// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phoneRegex accepts E.164-style numbers: an optional leading plus and
// 7 to 15 digits.
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// entityNameRegex accepts table names ("user_profiles") and entity names
// ("UserProfile").
var entityNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,127}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("entity_name", validateEntityName)
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateEntityName(fl validator.FieldLevel) bool {
	return entityNameRegex.MatchString(fl.Field().String())
}

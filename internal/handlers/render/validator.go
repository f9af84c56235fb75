package render

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Indian mobile number: 10 digits starting with 6-9
var phoneRegexp = regexp.MustCompile(`^[6-9]\d{9}$`)

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("phone", validatePhoneNumber)
	validate.RegisterTagNameFunc(useJSONTagNames)

	return validate
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phoneRegexp.MatchString(fl.Field().String())
}
